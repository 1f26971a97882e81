package driving

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// AnalyticsService computes aggregate statistics over the booking records.
type AnalyticsService interface {
	// Report computes every metric. A failing metric is recorded in
	// report.Errors rather than failing the whole report.
	Report(ctx context.Context) (*domain.AnalyticsReport, error)

	// Metric computes a single metric by name.
	// Unknown names fail with domain.ErrUnsupportedType.
	Metric(ctx context.Context, metric domain.AnalyticsMetric) (any, error)
}
