package services

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// arrivalLayout is the date format used in document text and metadata.
const arrivalLayout = "2006-01-02"

// Encoder turns booking records into retrieval documents.
// Encoding is a pure function of the record: identical records produce
// byte-identical text and equal metadata.
type Encoder struct {
	validate *validator.Validate
}

// NewEncoder creates a record encoder.
func NewEncoder() *Encoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match the dataset columns.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Encoder{validate: v}
}

// Encode validates a record and renders it as an EncodedDocument.
// Invalid records fail with a *domain.RecordError wrapping domain.ErrEncoding.
func (e *Encoder) Encode(record domain.BookingRecord) (domain.EncodedDocument, error) {
	r := record.WithDerived()
	if err := e.check(r); err != nil {
		return domain.EncodedDocument{}, err
	}

	return domain.EncodedDocument{
		DocumentID: r.ID,
		Text:       renderRecord(r),
		Metadata:   recordMetadata(r),
	}, nil
}

// EncodeAll encodes records in order, separating failures.
func (e *Encoder) EncodeAll(records []domain.BookingRecord) ([]domain.EncodedDocument, []*domain.RecordError) {
	docs := make([]domain.EncodedDocument, 0, len(records))
	var failed []*domain.RecordError

	for i := range records {
		doc, err := e.Encode(records[i])
		if err != nil {
			var recErr *domain.RecordError
			if !errors.As(err, &recErr) {
				recErr = &domain.RecordError{RecordID: records[i].ID, Reason: err.Error()}
			}
			failed = append(failed, recErr)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, failed
}

func (e *Encoder) check(r domain.BookingRecord) error {
	if err := e.validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &domain.RecordError{
				RecordID: r.ID,
				Field:    fe.Field(),
				Reason:   describeRule(fe),
			}
		}
		return &domain.RecordError{RecordID: r.ID, Reason: err.Error()}
	}

	switch {
	case r.ArrivalDate.IsZero():
		return &domain.RecordError{RecordID: r.ID, Field: "arrival_date", Reason: "missing"}
	case !finite(r.ADR):
		return &domain.RecordError{RecordID: r.ID, Field: "adr", Reason: "not a finite number"}
	case !finite(r.TotalRevenue):
		return &domain.RecordError{RecordID: r.ID, Field: "total_revenue", Reason: "not a finite number"}
	case r.TotalNights != r.StaysWeekendNights+r.StaysWeekNights:
		return &domain.RecordError{
			RecordID: r.ID,
			Field:    "total_nights",
			Reason: fmt.Sprintf("%d does not equal weekend plus week nights (%d)",
				r.TotalNights, r.StaysWeekendNights+r.StaysWeekNights),
		}
	}
	return nil
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %s %s", fe.Tag(), fe.Param())
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// renderRecord produces the natural-language text that gets embedded.
func renderRecord(r domain.BookingRecord) string {
	country := r.Country
	if country == "" {
		country = "an unknown country"
	}
	cancelled := "not cancelled"
	if r.IsCanceled {
		cancelled = "cancelled"
	}
	status := r.ReservationStatus
	if status == "" {
		status = "unknown"
	}
	room := r.ReservedRoomType
	if room == "" {
		room = "unspecified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Booking %d at %s: guest from %s arriving %s",
		r.ID, r.Hotel, country, r.ArrivalDate.Format(arrivalLayout))
	fmt.Fprintf(&b, " for %d nights (%d weekend, %d week),",
		r.TotalNights, r.StaysWeekendNights, r.StaysWeekNights)
	fmt.Fprintf(&b, " %d adults, %d children, %d babies, room type %s,",
		r.Adults, r.Children, r.Babies, room)
	fmt.Fprintf(&b, " average daily rate %.2f, total revenue %.2f,", r.ADR, r.TotalRevenue)
	fmt.Fprintf(&b, " lead time %d days, status %s (%s).", r.LeadTime, cancelled, status)
	return b.String()
}

func recordMetadata(r domain.BookingRecord) domain.Metadata {
	return domain.Metadata{
		domain.MetaHotel:             r.Hotel,
		domain.MetaCountry:           r.Country,
		domain.MetaArrivalDate:       r.ArrivalDate.Format(arrivalLayout),
		domain.MetaArrivalYear:       int64(r.ArrivalDate.Year()),
		domain.MetaArrivalMonth:      r.ArrivalDate.Month().String(),
		domain.MetaIsCanceled:        r.IsCanceled,
		domain.MetaReservationStatus: r.ReservationStatus,
		domain.MetaRoomType:          r.ReservedRoomType,
		domain.MetaLeadTime:          int64(r.LeadTime),
		domain.MetaTotalNights:       int64(r.TotalNights),
		domain.MetaADR:               r.ADR,
		domain.MetaTotalRevenue:      r.TotalRevenue,
	}
}
