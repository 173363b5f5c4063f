package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/metrics"
	"github.com/kindred-recs/kindred/pkg/recommend"
	"github.com/kindred-recs/kindred/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Kindred recommendation server",
	Long: `Starts the HTTP recommendation server.

The catalog snapshot is built once at startup; if the store is down at
that point the server still comes up and the first successful request
triggers the build instead.

Example:
  kindred serve --port 8080

The server exposes:
  GET /v1/recommend  - Recommendations for a user or session
  GET /health        - Health check and snapshot state
  GET /metrics       - Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "HTTP server port (overrides config)")
	serveCmd.Flags().String("host", "", "HTTP server host (overrides config)")
	serveCmd.Flags().Bool("no-warm", false, "skip the startup snapshot build")
}

// server holds the HTTP handler state.
type server struct {
	svc      *recommend.Service
	metrics  *metrics.Metrics
	tracer   *telemetry.Provider
	defaultK int
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	noWarm, _ := cmd.Flags().GetBool("no-warm")

	ctx := context.Background()

	tracer, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Tracing.Enabled,
		Exporter:    cfg.Telemetry.Tracing.Exporter,
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		SampleRate:  cfg.Telemetry.Tracing.SampleRate,
		ServiceName: "kindred",
		Insecure:    cfg.Telemetry.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	svc, closer, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	m := metrics.New()
	svc.Metrics = m
	svc.Tracer = tracer
	svc.Catalog().OnBuild = func(snap *catalog.Snapshot, took time.Duration) {
		m.RecordSnapshotBuild(snap.Len(), snap.Model.Dims(), took)
	}

	// Warm the snapshot so the first request doesn't pay the build
	// latency. A failure here is not fatal: the store may come up
	// later, and Ensure retries on the request path.
	if !noWarm {
		fmt.Fprintln(os.Stderr, "Building catalog snapshot...")
		if snap, err := svc.Catalog().Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: snapshot build failed, deferring to first request: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Snapshot ready: %d products, %d terms\n", snap.Len(), snap.Model.Dims())
		}
	}

	srv := &server{
		svc:      svc,
		metrics:  m,
		tracer:   tracer,
		defaultK: cfg.Recs.DefaultK,
	}

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/recommend", m.Middleware("recommend", srv.handleRecommend))
	mux.HandleFunc("/health", srv.handleHealth)
	mux.Handle("/metrics", m.Handler())

	handler := corsMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Fprintln(os.Stderr, "\nShutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Printf("Kindred server starting on %s\n", addr)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Printf("  GET http://%s/v1/recommend?user_id=<id>&k=8\n", addr)
	fmt.Printf("  GET http://%s/health\n", addr)
	fmt.Printf("  GET http://%s/metrics\n", addr)
	fmt.Println()

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	fmt.Println("Server stopped")
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := r.URL.Query().Get("user_id")
	if identity == "" {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	k := s.defaultK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "k must be a positive integer", http.StatusBadRequest)
			return
		}
		k = parsed
	}

	ctx, span := s.tracer.StartRequest(r.Context(), "recommend")
	defer span.End()

	start := time.Now()
	resp, err := s.svc.Recommend(ctx, identity, k)
	if err != nil {
		telemetry.RecordError(span, err)
		http.Error(w, fmt.Sprintf("recommendation failed: %v", err), http.StatusBadGateway)
		return
	}
	telemetry.RecordResult(span, string(resp.Path), len(resp.Recommendations), time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":          "ok",
		"snapshot_loaded": false,
	}
	if snap, ok := s.svc.Catalog().Current(); ok {
		status["snapshot_loaded"] = true
		status["products"] = snap.Len()
		status["vocabulary"] = snap.Model.Dims()
		status["built_at"] = snap.BuiltAt.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}
