package domain

import "time"

// Booking statuses as they appear in the hotel bookings dataset.
const (
	ReservationCheckOut = "Check-Out"
	ReservationCanceled = "Canceled"
	ReservationNoShow   = "No-Show"
)

// BookingRecord is one normalised hotel booking.
// Fields mirror the processed hotel-bookings dataset; TotalNights and
// TotalRevenue are derived during preprocessing and may be filled by
// WithDerived when the source omits them.
type BookingRecord struct {
	// ID is the stable document identifier (the dataset row index).
	ID int64 `json:"id" validate:"gte=0"`

	// Hotel is the property name, e.g. "Resort Hotel" or "City Hotel".
	Hotel string `json:"hotel" validate:"required"`

	// ArrivalDate is the calendar day of arrival.
	ArrivalDate time.Time `json:"arrival_date"`

	// LeadTime is the number of days between booking and arrival.
	LeadTime int `json:"lead_time" validate:"gte=0"`

	// StaysWeekendNights counts Saturday/Sunday nights booked.
	StaysWeekendNights int `json:"stays_in_weekend_nights" validate:"gte=0"`

	// StaysWeekNights counts Monday-Friday nights booked.
	StaysWeekNights int `json:"stays_in_week_nights" validate:"gte=0"`

	Adults   int `json:"adults" validate:"gte=0"`
	Children int `json:"children" validate:"gte=0"`
	Babies   int `json:"babies" validate:"gte=0"`

	// ReservedRoomType is the room type code.
	ReservedRoomType string `json:"reserved_room_type"`

	// ADR is the average daily rate.
	ADR float64 `json:"adr" validate:"gte=0"`

	// Country is the ISO 3166 alpha-3 country of origin.
	Country string `json:"country"`

	// IsCanceled reports whether the booking was cancelled.
	IsCanceled bool `json:"is_canceled"`

	// ReservationStatus is the final status (Check-Out, Canceled, No-Show).
	ReservationStatus string `json:"reservation_status"`

	// TotalNights is StaysWeekendNights + StaysWeekNights.
	TotalNights int `json:"total_nights" validate:"gte=0"`

	// TotalRevenue is ADR * TotalNights.
	TotalRevenue float64 `json:"total_revenue" validate:"gte=0"`
}

// WithDerived returns a copy with TotalNights and TotalRevenue computed
// from the stay counts and ADR when they are unset.
func (r BookingRecord) WithDerived() BookingRecord {
	if r.TotalNights == 0 {
		r.TotalNights = r.StaysWeekendNights + r.StaysWeekNights
	}
	if r.TotalRevenue == 0 {
		r.TotalRevenue = r.ADR * float64(r.TotalNights)
	}
	return r
}

// ArrivalMonth returns the arrival year-month as YYYY-MM.
func (r BookingRecord) ArrivalMonth() string {
	return r.ArrivalDate.Format("2006-01")
}

// Guests returns the total number of guests on the booking.
func (r BookingRecord) Guests() int {
	return r.Adults + r.Children + r.Babies
}
