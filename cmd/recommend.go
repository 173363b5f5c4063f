package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kindred-recs/kindred/pkg/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [identity]",
	Short: "Query recommendations for a user or session",
	Long: `Fetches recommendations for an identity and displays them.
Useful for testing the pipeline and tuning vectorizer parameters.

An identity is a user id, or a session id with the "anon:" prefix:

  kindred recommend 42
  kindred recommend anon:3f9c2a --k 5

Environment Variables:
  PG_HOST, PG_PORT, PG_DATABASE, PG_USER, PG_PASSWORD`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("k", "k", 0, "number of recommendations (0 = config default)")
	recommendCmd.Flags().Bool("json", false, "print the raw JSON response")
	recommendCmd.Flags().Bool("show-path", true, "show which pipeline branch served the result")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	identity := args[0]

	k, _ := cmd.Flags().GetInt("k")
	asJSON, _ := cmd.Flags().GetBool("json")
	showPath, _ := cmd.Flags().GetBool("show-path")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCancelled")
		cancel()
	}()

	svc, closer, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	fmt.Fprintln(os.Stderr, "Building catalog snapshot...")
	start := time.Now()
	snap, err := svc.Catalog().Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Snapshot ready: %d products, %d terms in %v\n\n",
		snap.Len(), snap.Model.Dims(), time.Since(start).Round(time.Millisecond))

	resp, err := svc.Recommend(ctx, identity, k)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if len(resp.Recommendations) == 0 {
		fmt.Println("No recommendations available.")
		return nil
	}

	if showPath {
		switch resp.Path {
		case recommend.PathRanked:
			fmt.Fprintf(os.Stderr, "Path: similarity ranking\n\n")
		case recommend.PathFallback:
			fmt.Fprintf(os.Stderr, "Path: popularity fallback\n\n")
		}
	}

	fmt.Printf("=== Recommendations for %s (%d) ===\n\n", identity, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		fmt.Printf("[%d] #%d  %s\n", i+1, rec.ID, rec.Name)
		fmt.Printf("    Score: %.4f", rec.Score)
		if rec.Price != nil {
			fmt.Printf("  |  Price: %.2f", *rec.Price)
		}
		fmt.Println()
		fmt.Println()
	}

	return nil
}
