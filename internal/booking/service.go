package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tamagocat/office-booking-backend/internal/resource"
)

// Clock is the single source of "now" for past-slot marking, the check-in
// window and the cancellation deadline. Injectable for tests.
type Clock func() time.Time

type ReserveRequest struct {
	RequesterID string
	ResourceID  string
	StartTime   time.Time
	EndTime     time.Time
}

type Service interface {
	// Availability computes the slot grid for a resource on a date. A
	// positive slotMinutes overrides the policy slot width for this view
	// only; zero means the policy default. It is a read over current
	// committed state and may be momentarily stale with respect to
	// concurrent reservations.
	Availability(ctx context.Context, resourceID string, date time.Time, slotMinutes int) (*AvailabilityWindow, error)

	// Reserve validates the window and commits it as a pending booking.
	// On contention it returns a *ConflictError carrying the offending
	// intervals and advisory alternatives.
	Reserve(ctx context.Context, req ReserveRequest) (*Booking, error)

	// ReserveSlots reserves by slot indices on a date instead of an
	// explicit window, replaying the clicks through the selection reducer.
	ReserveSlots(ctx context.Context, requesterID, resourceID string, date time.Time, slots []int) (*Booking, error)

	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	Approve(ctx context.Context, id string, note *string) (*Booking, error)
	Reject(ctx context.Context, id string, note *string) (*Booking, error)
	CheckIn(ctx context.Context, id, requesterID string) (*Booking, error)
	Cancel(ctx context.Context, id, requesterID string) (*Booking, error)

	// CompleteOverdue sweeps approved and checked_in bookings whose end
	// has passed into completed. Invoked periodically; read paths also
	// fold the transition lazily.
	CompleteOverdue(ctx context.Context) (int64, error)
}

type service struct {
	repo       Repository
	resService resource.Service
	policy     Policy
	now        Clock
}

func NewService(repo Repository, resService resource.Service, policy Policy) Service {
	return NewServiceWithClock(repo, resService, policy, time.Now)
}

// NewServiceWithClock is NewService with an injectable clock.
func NewServiceWithClock(repo Repository, resService resource.Service, policy Policy, now Clock) Service {
	return &service{
		repo:       repo,
		resService: resService,
		policy:     policy,
		now:        now,
	}
}

// activeResource loads the resource and maps missing/inactive to engine errors.
func (s *service) activeResource(ctx context.Context, resourceID string) (*resource.Resource, error) {
	res, err := s.resService.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if !res.IsActive {
		return nil, ErrResourceInactive
	}
	return res, nil
}

func (s *service) Availability(ctx context.Context, resourceID string, date time.Time, slotMinutes int) (*AvailabilityWindow, error) {
	if _, err := s.activeResource(ctx, resourceID); err != nil {
		return nil, err
	}

	p := s.policy
	if slotMinutes > 0 {
		p.SlotDuration = time.Duration(slotMinutes) * time.Minute
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayStart := midnight.Add(time.Duration(p.DayStartMinutes) * time.Minute)
	dayEnd := midnight.Add(time.Duration(p.DayEndMinutes) * time.Minute)

	bookings, err := s.repo.ListLiveInRange(ctx, resourceID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	win := ComputeAvailability(resourceID, midnight, bookings, p, s.now())
	return &win, nil
}

func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*Booking, error) {
	now := s.now()

	// Validation failures are never conflicts: malformed intervals are the
	// caller's bug and carry no suggestions.
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if !s.policy.Aligned(req.StartTime, req.EndTime) {
		return nil, ErrNotSlotAligned
	}
	if req.StartTime.Before(now) {
		return nil, ErrStartTimePast
	}

	res, err := s.activeResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ResourceID:  req.ResourceID,
		RequesterID: req.RequesterID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      StatusPending,
	}

	conflicts, err := s.repo.Reserve(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		b.ResourceName = res.Name
		return b, nil
	}

	// Idempotent retry: a repeated identical request whose first attempt
	// already committed is satisfied by the existing booking, not a
	// duplicate and not a conflict.
	existing, err := s.repo.FindIdentical(ctx, req.ResourceID, req.RequesterID, req.StartTime, req.EndTime)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sugg, err := s.suggest(ctx, res, req.StartTime, req.EndTime, now)
	if err != nil {
		// Suggestions are advisory; never let them mask the conflict.
		log.Printf("failed to compute conflict suggestions for resource %s: %v", req.ResourceID, err)
		sugg = emptySuggestion()
	}

	return nil, &ConflictError{Conflicts: conflicts, Suggestion: sugg}
}

func (s *service) ReserveSlots(ctx context.Context, requesterID, resourceID string, date time.Time, slots []int) (*Booking, error) {
	win, err := s.Availability(ctx, resourceID, date, 0)
	if err != nil {
		return nil, err
	}

	// Replay the clicks through the reducer. Every click must extend the
	// selection; a toggle-off, a no-op on a non-available slot or a
	// contiguity reset means the submitted set was not a valid contiguous
	// run against current availability.
	var sel []int
	for _, idx := range slots {
		next := Select(sel, idx, *win)
		if len(next) != len(sel)+1 {
			return nil, ErrInvalidSelection
		}
		sel = next
	}

	iv, ok := SelectionWindow(sel, *win)
	if !ok {
		return nil, ErrInvalidSelection
	}

	return s.Reserve(ctx, ReserveRequest{
		RequesterID: requesterID,
		ResourceID:  resourceID,
		StartTime:   iv.Start,
		EndTime:     iv.End,
	})
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.foldCompleted(ctx, b)
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, b := range bookings {
		s.foldCompleted(ctx, b)
	}
	return bookings, total, nil
}

// foldCompleted lazily applies the end-has-passed completion transition on
// read paths. Persistence is best effort; the periodic sweep catches up.
func (s *service) foldCompleted(ctx context.Context, b *Booking) {
	if !CanTransition(b.Status, StatusCompleted) {
		return
	}
	if b.EndTime.After(s.now()) {
		return
	}
	b.Status = StatusCompleted
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		log.Printf("failed to persist lazy completion for booking %s: %v", b.ID, err)
	}
}

func (s *service) Approve(ctx context.Context, id string, note *string) (*Booking, error) {
	return s.review(ctx, id, StatusApproved, note)
}

func (s *service) Reject(ctx context.Context, id string, note *string) (*Booking, error) {
	return s.review(ctx, id, StatusRejected, note)
}

func (s *service) review(ctx context.Context, id string, to Status, note *string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidTransition
	}

	b.Status = to
	if note != nil {
		b.AdminNote = note
	}
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) CheckIn(ctx context.Context, id, requesterID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.RequesterID != requesterID {
		return nil, ErrPermissionDenied
	}
	if !CanTransition(b.Status, StatusCheckedIn) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	if now.Before(b.StartTime.Add(-s.policy.CheckInGrace)) || now.After(b.EndTime) {
		return nil, ErrOutsideCheckInWindow
	}

	b.Status = StatusCheckedIn
	b.CheckedInAt = &now
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id, requesterID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.RequesterID != requesterID {
		return nil, ErrPermissionDenied
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, ErrInvalidTransition
	}
	if !s.now().Before(b.StartTime) {
		return nil, ErrCancelDeadlinePassed
	}

	b.Status = StatusCancelled
	if err := s.repo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) CompleteOverdue(ctx context.Context) (int64, error) {
	return s.repo.CompleteOverdue(ctx, s.now())
}
