package http

import (
	"time"

	"github.com/tamagocat/office-booking-backend/internal/booking"
	"github.com/tamagocat/office-booking-backend/internal/pkg/request"
	resHttp "github.com/tamagocat/office-booking-backend/internal/resource/http"
	userHttp "github.com/tamagocat/office-booking-backend/internal/user/http"
)

const dateFormat = "2006-01-02"

type BookingResponse struct {
	ID          string              `json:"id"`
	Resource    resHttp.ResourceTag `json:"resource"`
	Requester   userHttp.UserTag    `json:"requester"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     time.Time           `json:"end_time"`
	Status      string              `json:"status"`
	AdminNote   *string             `json:"admin_note"`
	CheckedInAt *time.Time          `json:"checked_in_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		Resource:    resHttp.ResourceTag{ID: b.ResourceID, Name: b.ResourceName},
		Requester:   userHttp.UserTag{ID: b.RequesterID, Name: b.RequesterName},
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Status:      string(b.Status),
		AdminNote:   b.AdminNote,
		CheckedInAt: b.CheckedInAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ConflictResponse is the 409 payload: the offending intervals plus
// advisory alternatives the caller can render directly.
type ConflictResponse struct {
	Error       string              `json:"error"`
	Conflicts   []booking.Interval  `json:"conflicts"`
	Suggestions *booking.Suggestion `json:"suggestions"`
}

func NewConflictResponse(e *booking.ConflictError) ConflictResponse {
	return ConflictResponse{
		Error:       booking.ErrTimeConflict.Message,
		Conflicts:   e.Conflicts,
		Suggestions: e.Suggestion,
	}
}

type SlotResponse struct {
	Index     int       `json:"index"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type AvailabilityResponse struct {
	ResourceID          string         `json:"resource_id"`
	Date                string         `json:"date"`
	SlotDurationMinutes int            `json:"slot_duration_minutes"`
	Slots               []SlotResponse `json:"slots"`
}

func NewAvailabilityResponse(w *booking.AvailabilityWindow) AvailabilityResponse {
	slots := make([]SlotResponse, len(w.Slots))
	for i, s := range w.Slots {
		slots[i] = SlotResponse{
			Index:     s.Index,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Status:    string(s.Status),
		}
	}
	return AvailabilityResponse{
		ResourceID:          w.ResourceID,
		Date:                w.Date.Format(dateFormat),
		SlotDurationMinutes: int(w.SlotDuration.Minutes()),
		Slots:               slots,
	}
}

// AvailabilityRequest defines query parameters for the availability grid.
// duration_minutes overrides the configured slot width for this view.
type AvailabilityRequest struct {
	Date            string `form:"date" binding:"required,datetime=2006-01-02"`
	DurationMinutes int    `form:"duration_minutes" binding:"omitempty,min=5,max=480"`
}

// CreateBookingBody accepts either an explicit window (start_time and
// end_time) or a date plus slot indices from the availability grid.
type CreateBookingBody struct {
	ResourceID string     `json:"resource_id" binding:"required,uuid"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Date       *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Slots      []int      `json:"slots"`
}

// Validate performs custom validation for CreateBookingBody.
func (r *CreateBookingBody) Validate() error {
	explicit := r.StartTime != nil && r.EndTime != nil
	bySlots := r.Date != nil && len(r.Slots) > 0
	if explicit == bySlots {
		return booking.ErrInvalidTimeRange
	}
	if explicit && !r.StartTime.Before(*r.EndTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

// UpdateBookingBody carries the admin review decision.
type UpdateBookingBody struct {
	Status    string  `json:"status" binding:"required,oneof=approved rejected"`
	AdminNote *string `json:"admin_note"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending approved rejected checked_in completed cancelled"`
	RequesterID   string     `form:"requester_id" binding:"omitempty,uuid"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil {
		if r.StartTimeFrom.After(*r.StartTimeTo) {
			return booking.ErrInvalidTimeRange
		}
	}
	return nil
}
