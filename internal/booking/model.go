package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tamagocat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict         = apperror.New(http.StatusConflict, "requested window overlaps an existing booking")
	ErrInvalidTimeRange     = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrNotSlotAligned       = apperror.New(http.StatusBadRequest, "duration must be a positive multiple of the slot duration")
	ErrStartTimePast        = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrInvalidSelection     = apperror.New(http.StatusBadRequest, "slot selection must be a contiguous run of available slots")
	ErrResourceNotFound     = apperror.New(http.StatusNotFound, "resource not found")
	ErrResourceInactive     = apperror.New(http.StatusBadRequest, "resource is not active")
	ErrPermissionDenied     = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidTransition    = apperror.New(http.StatusConflict, "booking status does not allow this action")
	ErrOutsideCheckInWindow = apperror.New(http.StatusUnprocessableEntity, "outside the allowed check-in window")
	ErrCancelDeadlinePassed = apperror.New(http.StatusUnprocessableEntity, "bookings can only be cancelled before they start")
	ErrInvalidDate          = apperror.New(http.StatusBadRequest, "invalid date")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// LiveStatuses are the statuses that count toward the per-resource
// non-overlap invariant. Rejected and cancelled bookings free their
// interval immediately; completed ones are in the past by definition.
var LiveStatuses = []Status{StatusPending, StatusApproved, StatusCheckedIn}

// IsLive reports whether a booking in this status occupies its interval.
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusApproved || s == StatusCheckedIn
}

type Booking struct {
	ID            string
	ResourceID    string
	ResourceName  string
	RequesterID   string
	RequesterName string
	StartTime     time.Time
	EndTime       time.Time
	Status        Status
	AdminNote     *string
	CheckedInAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Interval is a half-open [Start, End) time window.
type Interval struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// ConflictError is returned by Reserve when the requested window overlaps
// live bookings. It carries the offending intervals and advisory
// alternatives for the caller to render.
type ConflictError struct {
	Conflicts  []Interval
	Suggestion *Suggestion
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%d conflicting interval(s))", ErrTimeConflict.Message, len(e.Conflicts))
}

// Unwrap lets errors.Is(err, ErrTimeConflict) classify conflict errors.
func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

// Filter defines parameters for listing bookings.
type Filter struct {
	RequesterID string
	ResourceID  string
	Status      string
	StartTime   *time.Time // Filter bookings ending after this time
	EndTime     *time.Time // Filter bookings starting before this time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
