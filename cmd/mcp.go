package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kindred-recs/kindred/pkg/config"
	"github.com/kindred-recs/kindred/pkg/recommend"
	"github.com/kindred-recs/kindred/pkg/types"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start Kindred as an MCP server",
	Long: `Starts Kindred as a Model Context Protocol (MCP) server.

This allows AI assistants like Claude, Amp, and Cursor to fetch
personalized product recommendations directly.

Transports:
  stdio (default) - For local desktop apps (Claude Desktop, Cursor)
  http            - For remote/cloud deployments (hosted MCP server)

Tools exposed:
  recommend_products - Personalized recommendations for a user or session
  top_popular        - The 30-day popularity ranking

Resources exposed:
  kindred://config - Current pipeline configuration

Example:
  # Local stdio server (Claude Desktop, Cursor, Amp)
  kindred mcp

  # Remote HTTP server (hosted deployment)
  kindred mcp --transport http --port 8081

Configure in Claude Desktop (claude_desktop_config.json):
  {
    "mcpServers": {
      "kindred": {
        "command": "kindred",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	// Transport settings
	mcpCmd.Flags().String("transport", "stdio", "Transport type: stdio or http")
	mcpCmd.Flags().Int("port", 8081, "HTTP server port (for http transport)")
	mcpCmd.Flags().String("host", "0.0.0.0", "HTTP server host (for http transport)")
}

// mcpServer wraps the MCP server with the recommendation pipeline.
type mcpServer struct {
	svc *recommend.Service
	cfg *config.Config
}

func runMCP(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	svc, closer, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	mcpSrv := &mcpServer{svc: svc, cfg: cfg}

	// Create MCP server with capabilities
	s := mcpserver.NewMCPServer(
		"Kindred",
		"1.0.0",
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(true, false),
	)

	mcpSrv.registerTools(s)
	mcpSrv.registerResources(s)

	// Start server based on transport
	switch transport {
	case "stdio":
		if err := mcpserver.ServeStdio(s); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}

	case "http":
		addr := fmt.Sprintf("%s:%d", host, port)
		fmt.Printf("Kindred MCP server starting on http://%s\n", addr)
		fmt.Printf("  Endpoint: http://%s/mcp\n", addr)
		fmt.Printf("  Health:   http://%s/health\n", addr)
		fmt.Println()

		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok","server":"kindred-mcp"}`))
		})

		// MCP endpoint with stateful sessions
		mcpHandler := mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateful(true))
		mux.Handle("/mcp", mcpHandler)

		httpServer := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		if err := httpServer.ListenAndServe(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

	default:
		return fmt.Errorf("unsupported transport: %s (use 'stdio' or 'http')", transport)
	}

	return nil
}

func (m *mcpServer) registerTools(s *mcpserver.MCPServer) {
	recommendTool := mcp.NewTool("recommend_products",
		mcp.WithDescription(`Get personalized product recommendations for a shopper.

Builds a taste profile from the shopper's weighted interaction history
(views, cart adds, purchases) and ranks the catalog by similarity to it.
Shoppers with no usable history get the 30-day popularity ranking instead.

INPUT: A user id, or a session id prefixed with "anon:" for shoppers
who are not signed in.
OUTPUT: Ranked products with similarity scores.`),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User id, or session id with the 'anon:' prefix (e.g. 'anon:3f9c2a')"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of recommendations to return (default: 8)"),
		),
	)

	s.AddTool(recommendTool, m.handleRecommendProducts)

	popularTool := mcp.NewTool("top_popular",
		mcp.WithDescription(`Get the most popular products over the last 30 days.

This is the same ranking new and anonymous shoppers receive; use it when
no shopper identity is available.`),
		mcp.WithNumber("k",
			mcp.Description("Number of products to return (default: 8)"),
		),
	)

	s.AddTool(popularTool, m.handleTopPopular)
}

func (m *mcpServer) registerResources(s *mcpserver.MCPServer) {
	configResource := mcp.NewResource(
		"kindred://config",
		"Kindred Configuration",
		mcp.WithResourceDescription("Current recommendation pipeline configuration"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snapshotLoaded := false
		products, vocabulary := 0, 0
		if snap, ok := m.svc.Catalog().Current(); ok {
			snapshotLoaded = true
			products = snap.Len()
			vocabulary = snap.Model.Dims()
		}

		cfg := map[string]interface{}{
			"pipeline": map[string]interface{}{
				"default_k":     m.cfg.Recs.DefaultK,
				"history_limit": m.cfg.Recs.HistoryLimit,
				"max_features":  m.cfg.Recs.MaxFeatures,
				"ngram_max":     m.cfg.Recs.NGramMax,
			},
			"snapshot": map[string]interface{}{
				"loaded":     snapshotLoaded,
				"products":   products,
				"vocabulary": vocabulary,
			},
			"store_backend": m.cfg.Store.Backend,
		}
		cfgJSON, _ := json.MarshalIndent(cfg, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "kindred://config",
				MIMEType: "application/json",
				Text:     string(cfgJSON),
			},
		}, nil
	})
}

func (m *mcpServer) handleRecommendProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}

	k := 0
	if raw := request.GetFloat("k", 0); raw > 0 {
		k = int(raw)
	}

	resp, err := m.svc.Recommend(ctx, userID, k)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recommendation failed: %v", err)), nil
	}

	result := map[string]interface{}{
		"recommendations": formatRecommendations(resp.Recommendations),
		"path":            string(resp.Path),
	}

	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (m *mcpServer) handleTopPopular(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	k := 0
	if raw := request.GetFloat("k", 0); raw > 0 {
		k = int(raw)
	}

	// An identity that can never match history always takes the
	// popularity branch.
	resp, err := m.svc.Recommend(ctx, types.AnonPrefix, k)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("popularity lookup failed: %v", err)), nil
	}

	result := map[string]interface{}{
		"recommendations": formatRecommendations(resp.Recommendations),
	}

	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func formatRecommendations(recs []types.Recommendation) []map[string]interface{} {
	result := make([]map[string]interface{}, len(recs))
	for i, rec := range recs {
		entry := map[string]interface{}{
			"id":    rec.ID,
			"name":  rec.Name,
			"score": rec.Score,
		}
		if rec.Price != nil {
			entry["price"] = *rec.Price
		}
		result[i] = entry
	}
	return result
}
