package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// DefaultHistoryLimit is the page size when limit is not given.
const DefaultHistoryLimit = 50

// maxReportedSkips bounds the rejected records listed in a rebuild response.
const maxReportedSkips = 20

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query         string         `json:"query" binding:"required,max=2000"`
	TopK          int            `json:"top_k" binding:"gte=0,lte=100"`
	MinSimilarity *float64       `json:"min_similarity" binding:"omitempty,gte=-1,lte=1"`
	Filter        map[string]any `json:"filter"`
	Stream        bool           `json:"stream"`
}

// ContextEntry is one retrieved record in an ask response.
type ContextEntry struct {
	ID         int64           `json:"id"`
	Similarity float64         `json:"similarity"`
	Text       string          `json:"text"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Query          string          `json:"query"`
	Answer         string          `json:"answer"`
	Validity       domain.Validity `json:"validity"`
	NoContext      bool            `json:"no_context"`
	Context        []ContextEntry  `json:"context"`
	ProcessingTime float64         `json:"processing_time"`
	Status         domain.Status   `json:"status"`
}

// AnalyticsRequest is the optional body of POST /analytics.
type AnalyticsRequest struct {
	Metric string `json:"metric"`
}

// AnalyticsResponse is the body returned for a single metric.
type AnalyticsResponse struct {
	Metric domain.AnalyticsMetric `json:"metric"`
	Data   any                    `json:"data"`
}

// HistoryResponse is the body returned by GET /query-history.
type HistoryResponse struct {
	Entries []domain.QueryHistoryEntry `json:"entries"`
	Count   int                        `json:"count"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	domain.Health
	Status domain.Status `json:"status"`
}

// RebuildResponse is the body returned by POST /index/rebuild.
type RebuildResponse struct {
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Rejections []string      `json:"rejections,omitempty"`
	Dimension  int           `json:"dimension"`
	DurationMs int64         `json:"duration_ms"`
	Status     domain.Status `json:"status"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Status domain.Status `json:"status"`
}

// HTTPStatus maps an outcome class onto an HTTP status code.
func HTTPStatus(status domain.Status) int {
	switch status {
	case domain.StatusOK, domain.StatusNoData:
		return http.StatusOK
	case domain.StatusDegraded:
		return http.StatusServiceUnavailable
	case domain.StatusBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := domain.StatusOf(err, nil)
	if status == domain.StatusInternal {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(HTTPStatus(status), ErrorResponse{Error: err.Error(), Status: status})
}

func badRequest(c *gin.Context, format string, args ...any) {
	writeError(c, fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...)))
}

func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "%v", err)
		return
	}

	filter, err := domain.FilterFromJSON(req.Filter)
	if err != nil {
		writeError(c, err)
		return
	}
	opts := domain.QueryOptions{
		TopK:          req.TopK,
		MinSimilarity: req.MinSimilarity,
		Filter:        filter,
	}

	if req.Stream {
		s.streamAnswer(c, req.Query, opts)
		return
	}

	start := time.Now()
	answer, err := s.ports.RAG.AnswerQuery(c.Request.Context(), req.Query, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	status := domain.StatusOf(nil, answer)
	c.JSON(HTTPStatus(status), newAskResponse(answer, time.Since(start), status))
}

// streamAnswer writes answer text as "delta" server-sent events followed by
// a final "answer" event, or an "error" event on failure.
func (s *Server) streamAnswer(c *gin.Context, query string, opts domain.QueryOptions) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	start := time.Now()
	answer, err := s.ports.RAG.AnswerQueryStream(c.Request.Context(), query, opts, func(delta string) {
		c.SSEvent("delta", delta)
		c.Writer.Flush()
	})
	if err != nil {
		c.SSEvent("error", ErrorResponse{Error: err.Error(), Status: domain.StatusOf(err, nil)})
		c.Writer.Flush()
		return
	}
	c.SSEvent("answer", newAskResponse(answer, time.Since(start), domain.StatusOf(nil, answer)))
	c.Writer.Flush()
}

func newAskResponse(answer *domain.Answer, elapsed time.Duration, status domain.Status) AskResponse {
	entries := make([]ContextEntry, len(answer.Context.Entries))
	for i, e := range answer.Context.Entries {
		entries[i] = ContextEntry{
			ID:         e.Entry.DocumentID,
			Similarity: e.Similarity,
			Text:       e.Entry.Text,
			Metadata:   e.Entry.Metadata,
		}
	}
	return AskResponse{
		Query:          answer.Query,
		Answer:         answer.Text,
		Validity:       answer.Validity,
		NoContext:      answer.NoContext,
		Context:        entries,
		ProcessingTime: elapsed.Seconds(),
		Status:         status,
	}
}

func (s *Server) handleAnalytics(c *gin.Context) {
	if s.ports.Analytics == nil {
		writeError(c, fmt.Errorf("%w: analytics", domain.ErrNotConfigured))
		return
	}

	var req AnalyticsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "%v", err)
			return
		}
	}

	ctx := c.Request.Context()
	if req.Metric == "" {
		report, err := s.ports.Analytics.Report(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	metric := domain.AnalyticsMetric(req.Metric)
	data, err := s.ports.Analytics.Metric(ctx, metric)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnalyticsResponse{Metric: metric, Data: data})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit", DefaultHistoryLimit)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}

	entries, err := s.ports.RAG.GetHistory(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.QueryHistoryEntry{}
	}
	c.JSON(http.StatusOK, HistoryResponse{
		Entries: entries,
		Count:   len(entries),
		Limit:   limit,
		Offset:  offset,
	})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	health := s.ports.RAG.Health()
	status := domain.StatusOK
	if !health.IndexLoaded {
		status = domain.StatusDegraded
	}
	c.JSON(HTTPStatus(status), HealthResponse{Health: health, Status: status})
}

func (s *Server) handleRebuild(c *gin.Context) {
	if s.ports.Builder == nil {
		writeError(c, fmt.Errorf("%w: no record source", domain.ErrNotConfigured))
		return
	}

	report, err := s.ports.Builder.Rebuild(c.Request.Context())
	if err != nil {
		// A report with rejections explains why nothing was indexed.
		if report != nil && errors.Is(err, domain.ErrInvalidInput) {
			status := domain.StatusOf(err, nil)
			c.AbortWithStatusJSON(HTTPStatus(status), gin.H{
				"error":      err.Error(),
				"status":     status,
				"rejections": rejections(report.Skipped),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, RebuildResponse{
		Indexed:    report.Indexed,
		Skipped:    len(report.Skipped),
		Rejections: rejections(report.Skipped),
		Dimension:  report.Dimension,
		DurationMs: report.Duration.Milliseconds(),
		Status:     domain.StatusOK,
	})
}

func rejections(skipped []*domain.RecordError) []string {
	n := min(len(skipped), maxReportedSkips)
	out := make([]string, n)
	for i := range n {
		out[i] = skipped[i].Error()
	}
	return out
}
