package domain

// AnalyticsMetric names an aggregate computed over the booking records.
type AnalyticsMetric string

// Available analytics metrics.
const (
	MetricRevenueTrends            AnalyticsMetric = "revenue_trends"
	MetricCancellationRate         AnalyticsMetric = "cancellation_rate"
	MetricGeographicalDistribution AnalyticsMetric = "geographical_distribution"
	MetricLeadTimeDistribution     AnalyticsMetric = "lead_time_distribution"
	MetricHotelDistribution        AnalyticsMetric = "hotel_distribution"
)

// IsValid returns true if the metric is recognised.
func (m AnalyticsMetric) IsValid() bool {
	switch m {
	case MetricRevenueTrends, MetricCancellationRate, MetricGeographicalDistribution,
		MetricLeadTimeDistribution, MetricHotelDistribution:
		return true
	default:
		return false
	}
}

// AllAnalyticsMetrics returns every metric in report order.
func AllAnalyticsMetrics() []AnalyticsMetric {
	return []AnalyticsMetric{
		MetricRevenueTrends,
		MetricCancellationRate,
		MetricGeographicalDistribution,
		MetricLeadTimeDistribution,
		MetricHotelDistribution,
	}
}

// MonthlyRevenue is total revenue for one arrival month.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// CancellationStat is the cancellation rate for one hotel.
type CancellationStat struct {
	Hotel     string  `json:"hotel"`
	Bookings  int     `json:"bookings"`
	Cancelled int     `json:"cancelled"`
	Rate      float64 `json:"rate_percent"`
}

// CountryCount is the number of bookings from one country.
type CountryCount struct {
	Country  string `json:"country"`
	Bookings int    `json:"bookings"`
}

// HotelCount is the number of bookings at one hotel.
type HotelCount struct {
	Hotel    string `json:"hotel"`
	Bookings int    `json:"bookings"`
}

// LeadTimeStats summarises lead times below the 99th percentile.
type LeadTimeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	P99    float64 `json:"p99_cutoff"`
}

// AnalyticsReport bundles every metric. Failed metrics are listed in Errors.
type AnalyticsReport struct {
	RevenueTrends            []MonthlyRevenue   `json:"revenue_trends,omitempty"`
	CancellationRates        []CancellationStat `json:"cancellation_rate,omitempty"`
	GeographicalDistribution []CountryCount     `json:"geographical_distribution,omitempty"`
	LeadTimeDistribution     *LeadTimeStats     `json:"lead_time_distribution,omitempty"`
	HotelDistribution        []HotelCount       `json:"hotel_distribution,omitempty"`
	Errors                   map[string]string  `json:"errors,omitempty"`
}
