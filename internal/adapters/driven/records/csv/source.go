// Package csv loads booking records from the processed hotel-bookings CSV.
package csv

import (
	"context"
	encsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// checkEvery is how many rows are read between cancellation checks.
const checkEvery = 1000

// requiredColumns must be present in the header.
var requiredColumns = []string{"hotel", "adr"}

// Source reads booking records from a CSV file.
// Record IDs are the 0-based data row index, so they are stable for a given file.
type Source struct {
	path string
}

// NewSource creates a CSV record source for the given path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Location returns the CSV file path.
func (s *Source) Location() string {
	return s.path
}

// Load reads every row. Rows that fail to parse are reported and skipped.
func (s *Source) Load(ctx context.Context) ([]domain.BookingRecord, []*domain.RecordError, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	records, rejected, err := Parse(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("read records %s: %w", s.path, err)
	}
	logger.Debug("Loaded %d records from %s (%d rejected)", len(records), s.path, len(rejected))
	return records, rejected, nil
}

// Parse reads booking records from r. The first row is the header; columns
// are matched by name so extra columns and any order are accepted.
func Parse(ctx context.Context, r io.Reader) ([]domain.BookingRecord, []*domain.RecordError, error) {
	reader := encsv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := newColumns(header)
	for _, name := range requiredColumns {
		if !cols.has(name) {
			return nil, nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidInput, name)
		}
	}
	if !cols.has("arrival_date") && !cols.hasAll("arrival_date_year", "arrival_date_month", "arrival_date_day_of_month") {
		return nil, nil, fmt.Errorf("%w: missing arrival date columns", domain.ErrInvalidInput)
	}

	var (
		records  []domain.BookingRecord
		rejected []*domain.RecordError
	)
	for id := int64(0); ; id++ {
		if id%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", id, err)
		}

		rec, recErr := parseRow(id, cols.bind(row))
		if recErr != nil {
			rejected = append(rejected, recErr)
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

// columns maps header names to positions.
type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c columns) hasAll(names ...string) bool {
	for _, name := range names {
		if !c.has(name) {
			return false
		}
	}
	return true
}

func (c columns) bind(values []string) row {
	return row{cols: c, values: values}
}

// row reads named fields from one CSV line and remembers the first failure.
type row struct {
	cols   columns
	values []string
	err    *domain.RecordError
	id     int64
}

func (r *row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r *row) fail(field, reason string) {
	if r.err == nil {
		r.err = &domain.RecordError{RecordID: r.id, Field: field, Reason: reason}
	}
}

// integer accepts "3" and "3.0"; pandas writes filled count columns as floats.
func (r *row) integer(name string) int {
	v := r.str(name)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		r.fail(name, fmt.Sprintf("not an integer: %q", v))
		return 0
	}
	return int(f)
}

func (r *row) float(name string) float64 {
	v := r.str(name)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(name, fmt.Sprintf("not a number: %q", v))
		return 0
	}
	return f
}

func (r *row) boolean(name string) bool {
	switch strings.ToLower(r.str(name)) {
	case "", "0", "0.0", "false", "no":
		return false
	case "1", "1.0", "true", "yes":
		return true
	default:
		r.fail(name, fmt.Sprintf("not a boolean: %q", r.str(name)))
		return false
	}
}

// arrival reads either a single arrival_date column or the year, month name
// and day-of-month split used by the bookings dataset.
func (r *row) arrival() time.Time {
	if v := r.str("arrival_date"); v != "" {
		for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
		r.fail("arrival_date", fmt.Sprintf("not a date: %q", v))
		return time.Time{}
	}

	year := r.integer("arrival_date_year")
	day := r.integer("arrival_date_day_of_month")
	month, ok := parseMonth(r.str("arrival_date_month"))
	if !ok {
		r.fail("arrival_date_month", fmt.Sprintf("not a month: %q", r.str("arrival_date_month")))
		return time.Time{}
	}
	if r.err != nil {
		return time.Time{}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if year <= 0 || t.Day() != day || t.Month() != month {
		r.fail("arrival_date_day_of_month", fmt.Sprintf("invalid date %d-%s-%d", year, month, day))
		return time.Time{}
	}
	return t
}

// parseMonth accepts full names, three-letter abbreviations and numbers.
func parseMonth(v string) (time.Month, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(v, name) || strings.EqualFold(v, name[:3]) {
			return m, true
		}
	}
	return 0, false
}

func parseRow(id int64, r row) (domain.BookingRecord, *domain.RecordError) {
	r.id = id
	rec := domain.BookingRecord{
		ID:                 id,
		Hotel:              r.str("hotel"),
		ArrivalDate:        r.arrival(),
		LeadTime:           r.integer("lead_time"),
		StaysWeekendNights: r.integer("stays_in_weekend_nights"),
		StaysWeekNights:    r.integer("stays_in_week_nights"),
		Adults:             r.integer("adults"),
		Children:           r.integer("children"),
		Babies:             r.integer("babies"),
		ReservedRoomType:   r.str("reserved_room_type"),
		ADR:                r.float("adr"),
		Country:            r.str("country"),
		IsCanceled:         r.boolean("is_canceled"),
		ReservationStatus:  r.str("reservation_status"),
		TotalNights:        r.integer("total_nights"),
		TotalRevenue:       r.float("total_revenue"),
	}
	if r.err != nil {
		return domain.BookingRecord{}, r.err
	}
	if rec.Hotel == "" {
		return domain.BookingRecord{}, &domain.RecordError{RecordID: id, Field: "hotel", Reason: "empty"}
	}
	return rec.WithDerived(), nil
}
