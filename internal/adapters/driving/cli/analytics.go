package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics [metric]",
	Short: "Show booking statistics",
	Long: `Computes aggregate statistics over the booking records and prints them as JSON.

Metrics:
  revenue_trends             total revenue per arrival month
  cancellation_rate          cancellation percentage per hotel
  geographical_distribution  top countries by bookings
  lead_time_distribution     lead time summary below the 99th percentile
  hotel_distribution         bookings per hotel

Without a metric every statistic is computed.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: metricNames(),
	RunE:      runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

func metricNames() []string {
	metrics := domain.AllAnalyticsMetrics()
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return names
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	var result any
	if len(args) == 0 {
		report, err := analyticsService.Report(cmd.Context())
		if err != nil {
			return fmt.Errorf("analytics failed: %w", err)
		}
		result = report
	} else {
		data, err := analyticsService.Metric(cmd.Context(), domain.AnalyticsMetric(args[0]))
		if err != nil {
			return fmt.Errorf("analytics failed: %w", err)
		}
		result = data
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
