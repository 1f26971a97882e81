package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/watcher"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

var (
	serveHost  string
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API serving question answering, analytics and query history.

Endpoints:
  POST /ask             {"query": "...", "top_k": 3, "min_similarity": 0.2, "filter": {...}, "stream": false}
  POST /analytics       {"metric": "cancellation_rate"} or an empty body for every metric
  GET  /query-history   ?limit=50&offset=0
  GET  /health
  POST /index/rebuild

With --watch the records file is watched and the index is rebuilt when it changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "listen host")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "listen port")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "rebuild the index when the records file changes")
	serveCmd.Flags().StringVarP(&recordsPath, "records", "r", "", "records CSV (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	ports := &httpapi.Ports{
		RAG:       ragService,
		Analytics: analyticsService,
		Builder:   indexBuilder,
	}
	server, err := httpapi.NewServer(ports, httpapi.Config{
		Addr: net.JoinHostPort(serveHost, strconv.Itoa(servePort)),
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	if serveWatch {
		if indexBuilder == nil {
			return errors.New("--watch needs a record source")
		}
		w, err := watcher.New(indexBuilder, watcher.Config{Path: indexBuilder.Location()})
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	if health := ragService.Health(); !health.IndexLoaded {
		logger.Warn("No index loaded; /ask returns 503 until 'hotelrag build' or POST /index/rebuild")
	}

	cmd.Printf("HTTP API listening on http://%s\n", server.Addr())
	g.Go(func() error { return server.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
