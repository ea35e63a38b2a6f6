package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a stored booking.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusReserved  Status = "reserved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statuses = []Status{StatusUpcoming, StatusActive, StatusReserved, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// StatusFilter selects bookings by status when listing. It is never stored.
type StatusFilter string

const FilterAll StatusFilter = "all"

var ErrInvalidStatusFilter = errors.New("invalid booking status filter")

// ParseStatusFilter accepts any Status or "all". Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	if !Status(s).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusFilter, s)
	}
	return StatusFilter(s), nil
}

func (f StatusFilter) Matches(s Status) bool {
	return f == FilterAll || Status(f) == s
}

// Status returns the single status the filter selects, if it selects one.
func (f StatusFilter) Status() (Status, bool) {
	if f == FilterAll {
		return "", false
	}
	return Status(f), true
}

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
	ErrActiveMismatch  = errors.New("is_active does not match status")
	ErrInvalidWindow   = errors.New("end time must be after start time")
	ErrInvalidDuration = errors.New("duration must be positive")
)

type Booking struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"-"`
	ParkingName       string    `db:"parking_name" json:"parking_name"`
	SpotLabel         string    `db:"spot_label" json:"spot_label"`
	Address           string    `db:"address" json:"address"`
	StartTime         time.Time `db:"start_time" json:"start_time"`
	EndTime           time.Time `db:"end_time" json:"end_time"`
	Duration          int       `db:"duration" json:"duration"`
	Price             int64     `db:"price" json:"price"`
	Status            Status    `db:"status" json:"status"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	BookingCode       string    `db:"booking_code" json:"booking_code"`
	ParkingSlotID     string    `db:"spot_id" json:"parking_slot_id"`
	ParkingLocationID string    `db:"lot_id" json:"parking_location_id"`
}

// Validate checks the record invariants: a real status, is_active agreeing
// with it, and end after start when both are set.
func (b *Booking) Validate() error {
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, b.Status)
	}
	if b.IsActive != (b.Status == StatusActive) {
		return ErrActiveMismatch
	}
	if !b.StartTime.IsZero() && !b.EndTime.IsZero() && !b.EndTime.After(b.StartTime) {
		return ErrInvalidWindow
	}
	return nil
}

// Params is the request to create a booking. Duration is in minutes. The
// optional times are resolved by ResolveWindow at the call site.
type Params struct {
	ParkingLotID   string     `json:"parking_lot_id"`
	ParkingLotName string     `json:"parking_lot_name"`
	SpotID         string     `json:"spot_id"`
	SpotLabel      string     `json:"spot_label"`
	Duration       int        `json:"duration"`
	Price          int64      `json:"price"`
	UserID         string     `json:"user_id"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}

// ResolveWindow fills the defaults of p: start is now when absent, end is
// start plus the duration when absent.
func ResolveWindow(p Params, now time.Time) (start, end time.Time, err error) {
	start = now
	if p.StartTime != nil {
		start = *p.StartTime
	}

	if p.EndTime != nil {
		end = *p.EndTime
	} else {
		if p.Duration <= 0 {
			return time.Time{}, time.Time{}, ErrInvalidDuration
		}
		end = start.Add(time.Duration(p.Duration) * time.Minute)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return start, end, nil
}

type Result struct {
	Success     bool       `json:"success"`
	BookingID   string     `json:"booking_id,omitempty"`
	BookingCode string     `json:"booking_code,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Err         error      `json:"-"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(r), errorMessage(r.Err)})
}

type CancellationResult struct {
	Success  bool   `json:"success"`
	Refunded *int64 `json:"refunded,omitempty"`
	Err      error  `json:"-"`
}

func (r CancellationResult) MarshalJSON() ([]byte, error) {
	type plain CancellationResult
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(r), errorMessage(r.Err)})
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
