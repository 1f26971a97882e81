package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for hotelrag resources.
	uriScheme = "hotelrag://"

	// historyResourceLimit bounds the entries served by the history resource.
	historyResourceLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "health",
		Name:        "health",
		Description: "State of the loaded booking index",
		MIMEType:    "application/json",
	}, s.handleHealthResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Previously answered questions, oldest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Template for single analytics metrics.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "analytics/{metric}",
		Name:        "analytics-metric",
		Description: "A single booking statistic",
		MIMEType:    "application/json",
	}, s.handleAnalyticsResource)
}

// handleHealthResource returns the index health.
func (s *Server) handleHealthResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.RAG.Health())
}

// handleHistoryResource returns the most recent answered questions.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.RAG.GetHistory(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if len(entries) > historyResourceLimit {
		entries = entries[len(entries)-historyResourceLimit:]
	}
	if entries == nil {
		entries = []domain.QueryHistoryEntry{}
	}
	return jsonResource(req.Params.URI, entries)
}

// handleAnalyticsResource returns one metric.
func (s *Server) handleAnalyticsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Analytics == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract metric from URI: hotelrag://analytics/{metric}
	metric := domain.AnalyticsMetric(extractMetric(req.Params.URI))
	if !metric.IsValid() {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := s.ports.Analytics.Metric(ctx, metric)
	if err != nil {
		return nil, fmt.Errorf("computing %s: %w", metric, err)
	}
	return jsonResource(req.Params.URI, data)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractMetric extracts the metric name from a URI like hotelrag://analytics/{metric}.
func extractMetric(uri string) string {
	const prefix = uriScheme + "analytics/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
