package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// topCountries is the number of countries in the geographical distribution.
const topCountries = 10

// leadTimeQuantile is the cut-off applied before summarising lead times.
const leadTimeQuantile = 0.99

// errNoRecords is reported for every metric when the dataset is empty.
var errNoRecords = errors.New("no booking records loaded")

// AnalyticsService computes aggregate statistics over booking records.
// Records are loaded from the source on first use and cached until Invalidate.
type AnalyticsService struct {
	source driven.RecordSource

	mu      sync.Mutex
	records []domain.BookingRecord
	loaded  bool
}

// NewAnalyticsService creates an analytics service reading from source.
func NewAnalyticsService(source driven.RecordSource) *AnalyticsService {
	return &AnalyticsService{source: source}
}

// NewAnalyticsServiceFromRecords creates an analytics service over a fixed record set.
func NewAnalyticsServiceFromRecords(records []domain.BookingRecord) *AnalyticsService {
	s := &AnalyticsService{}
	s.SetRecords(records)
	return s
}

// SetRecords replaces the cached records.
func (s *AnalyticsService) SetRecords(records []domain.BookingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.loaded = true
}

// Invalidate drops cached records so the next call reloads from the source.
func (s *AnalyticsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != nil {
		s.records = nil
		s.loaded = false
	}
}

func (s *AnalyticsService) load(ctx context.Context) ([]domain.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.records, nil
	}
	if s.source == nil {
		return nil, fmt.Errorf("%w: no record source", domain.ErrNotConfigured)
	}

	records, skipped, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if len(skipped) > 0 {
		logger.Warn("Skipped %d unreadable rows in %s", len(skipped), s.source.Location())
	}
	s.records = records
	s.loaded = true
	logger.Debug("Loaded %d records for analytics", len(records))
	return records, nil
}

// Report computes every metric. Metrics that cannot be computed are listed
// in report.Errors.
func (s *AnalyticsService) Report(ctx context.Context) (*domain.AnalyticsReport, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.AnalyticsReport{}
	fail := func(m domain.AnalyticsMetric, err error) {
		if report.Errors == nil {
			report.Errors = make(map[string]string)
		}
		report.Errors[string(m)] = err.Error()
	}

	for _, m := range domain.AllAnalyticsMetrics() {
		v, err := compute(records, m)
		if err != nil {
			fail(m, err)
			continue
		}
		switch m {
		case domain.MetricRevenueTrends:
			report.RevenueTrends = v.([]domain.MonthlyRevenue)
		case domain.MetricCancellationRate:
			report.CancellationRates = v.([]domain.CancellationStat)
		case domain.MetricGeographicalDistribution:
			report.GeographicalDistribution = v.([]domain.CountryCount)
		case domain.MetricLeadTimeDistribution:
			report.LeadTimeDistribution = v.(*domain.LeadTimeStats)
		case domain.MetricHotelDistribution:
			report.HotelDistribution = v.([]domain.HotelCount)
		}
	}
	return report, nil
}

// Metric computes a single metric.
func (s *AnalyticsService) Metric(ctx context.Context, metric domain.AnalyticsMetric) (any, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: metric %q", domain.ErrUnsupportedType, metric)
	}
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return compute(records, metric)
}

func compute(records []domain.BookingRecord, metric domain.AnalyticsMetric) (any, error) {
	if len(records) == 0 {
		return nil, errNoRecords
	}
	switch metric {
	case domain.MetricRevenueTrends:
		return RevenueTrends(records), nil
	case domain.MetricCancellationRate:
		return CancellationRates(records), nil
	case domain.MetricGeographicalDistribution:
		return GeographicalDistribution(records, topCountries), nil
	case domain.MetricLeadTimeDistribution:
		return LeadTimeDistribution(records), nil
	case domain.MetricHotelDistribution:
		return HotelDistribution(records), nil
	default:
		return nil, fmt.Errorf("%w: metric %q", domain.ErrUnsupportedType, metric)
	}
}

// RevenueTrends sums total revenue per arrival month, oldest month first.
func RevenueTrends(records []domain.BookingRecord) []domain.MonthlyRevenue {
	totals := make(map[string]float64)
	for i := range records {
		r := records[i].WithDerived()
		totals[r.ArrivalMonth()] += r.TotalRevenue
	}

	out := make([]domain.MonthlyRevenue, 0, len(totals))
	for month, revenue := range totals {
		out = append(out, domain.MonthlyRevenue{Month: month, Revenue: round2(revenue)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CancellationRates returns the cancellation percentage per hotel, by hotel name.
func CancellationRates(records []domain.BookingRecord) []domain.CancellationStat {
	byHotel := make(map[string]*domain.CancellationStat)
	for i := range records {
		stat, ok := byHotel[records[i].Hotel]
		if !ok {
			stat = &domain.CancellationStat{Hotel: records[i].Hotel}
			byHotel[records[i].Hotel] = stat
		}
		stat.Bookings++
		if records[i].IsCanceled {
			stat.Cancelled++
		}
	}

	out := make([]domain.CancellationStat, 0, len(byHotel))
	for _, stat := range byHotel {
		stat.Rate = round2(float64(stat.Cancelled) / float64(stat.Bookings) * 100)
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hotel < out[j].Hotel })
	return out
}

// GeographicalDistribution returns the n countries with the most bookings.
// Records without a country are ignored.
func GeographicalDistribution(records []domain.BookingRecord, n int) []domain.CountryCount {
	counts := make(map[string]int)
	for i := range records {
		if records[i].Country == "" {
			continue
		}
		counts[records[i].Country]++
	}

	out := make([]domain.CountryCount, 0, len(counts))
	for country, c := range counts {
		out = append(out, domain.CountryCount{Country: country, Bookings: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bookings != out[j].Bookings {
			return out[i].Bookings > out[j].Bookings
		}
		return out[i].Country < out[j].Country
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// HotelDistribution returns booking counts per hotel, largest first.
func HotelDistribution(records []domain.BookingRecord) []domain.HotelCount {
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Hotel]++
	}

	out := make([]domain.HotelCount, 0, len(counts))
	for hotel, c := range counts {
		out = append(out, domain.HotelCount{Hotel: hotel, Bookings: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bookings != out[j].Bookings {
			return out[i].Bookings > out[j].Bookings
		}
		return out[i].Hotel < out[j].Hotel
	})
	return out
}

// LeadTimeDistribution summarises lead times strictly below the 99th percentile.
// If the cut-off excludes everything the full set is summarised.
func LeadTimeDistribution(records []domain.BookingRecord) *domain.LeadTimeStats {
	all := make([]float64, len(records))
	for i := range records {
		all[i] = float64(records[i].LeadTime)
	}
	sort.Float64s(all)

	cut := quantile(all, leadTimeQuantile)
	kept := all
	for i, v := range all {
		if v >= cut {
			kept = all[:i]
			break
		}
	}
	if len(kept) == 0 {
		kept = all
	}

	var sum float64
	for _, v := range kept {
		sum += v
	}
	return &domain.LeadTimeStats{
		Count:  len(kept),
		Mean:   round2(sum / float64(len(kept))),
		Median: quantile(kept, 0.5),
		Min:    int(kept[0]),
		Max:    int(kept[len(kept)-1]),
		P99:    cut,
	}
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
