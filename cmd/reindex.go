package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/textvec"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Build the catalog vector space and report its shape",
	Long: `Loads the product catalog, fits the term vocabulary, and vectorizes
every product. Prints vocabulary and matrix statistics.

The server does this automatically at startup and on demand; this
command exists to inspect the result and to validate the catalog
before deploying.

Example:
  kindred reindex --max-features 5000 --top-terms 20`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	// Vectorizer settings
	reindexCmd.Flags().Int("max-features", 0, "vocabulary cap (0 = config default)")
	reindexCmd.Flags().Int("ngram-max", 0, "n-gram upper bound (0 = config default)")

	// Output settings
	reindexCmd.Flags().Int("top-terms", 0, "print the N highest-IDF terms")
	reindexCmd.Flags().Bool("show-empty", true, "list products with no catalog text")
}

func runReindex(cmd *cobra.Command, args []string) error {
	maxFeatures, _ := cmd.Flags().GetInt("max-features")
	ngramMax, _ := cmd.Flags().GetInt("ngram-max")
	topTerms, _ := cmd.Flags().GetInt("top-terms")
	showEmpty, _ := cmd.Flags().GetBool("show-empty")
	verbose := viper.GetBool("verbose")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxFeatures > 0 {
		cfg.Recs.MaxFeatures = maxFeatures
	}
	if ngramMax > 0 {
		cfg.Recs.NGramMax = ngramMax
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	st, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	opts := textvec.Options{
		MaxFeatures: cfg.Recs.MaxFeatures,
		NGramMin:    1,
		NGramMax:    cfg.Recs.NGramMax,
	}

	builder := catalog.NewBuilder(st, opts)

	// A rebuild is a single store round-trip plus an in-process fit, so
	// the bar is a spinner rather than a determinate count.
	bar := progressbar.NewOptions64(
		-1,
		progressbar.OptionSetDescription("Building vector space"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)

	start := time.Now()
	snap, err := builder.Refresh(ctx)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	printReindexSummary(snap, time.Since(start), verbose)

	if showEmpty {
		var empty []int64
		for i, p := range snap.Products {
			if snap.Matrix[i] == nil {
				empty = append(empty, p.ID)
			}
		}
		if len(empty) > 0 {
			fmt.Printf("Products with no indexable text (%d): %v\n\n", len(empty), empty)
		}
	}

	if topTerms > 0 {
		printTopTerms(snap.Model, topTerms)
	}

	return nil
}

func printReindexSummary(snap *catalog.Snapshot, took time.Duration, verbose bool) {
	var nonZero int
	for _, row := range snap.Matrix {
		nonZero += len(row)
	}

	fmt.Println()
	fmt.Println("=== Reindex Complete ===")
	fmt.Println()
	fmt.Printf("Products:          %d\n", snap.Len())
	fmt.Printf("Vocabulary:        %d terms\n", snap.Model.Dims())
	fmt.Printf("Matrix non-zeros:  %d\n", nonZero)
	if snap.Len() > 0 {
		fmt.Printf("Avg terms/product: %.1f\n", float64(nonZero)/float64(snap.Len()))
	}
	fmt.Printf("Duration:          %v\n", took.Round(time.Millisecond))
	if verbose {
		fmt.Printf("Built at:          %s\n", snap.BuiltAt.UTC().Format(time.RFC3339))
	}
	fmt.Println()
}

func printTopTerms(model *textvec.Model, n int) {
	type termIDF struct {
		term string
		idf  float64
	}
	terms := make([]termIDF, 0, model.Dims())
	for col := 0; col < model.Dims(); col++ {
		terms = append(terms, termIDF{term: model.Term(col), idf: model.IDF(col)})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].idf != terms[j].idf {
			return terms[i].idf > terms[j].idf
		}
		return terms[i].term < terms[j].term
	})

	if n > len(terms) {
		n = len(terms)
	}
	fmt.Printf("=== Top %d terms by IDF ===\n\n", n)
	for i := 0; i < n; i++ {
		fmt.Printf("%-30s %.4f\n", terms[i].term, terms[i].idf)
	}
	fmt.Println()
}
