package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tamagocat/office-booking-backend/internal/resource"
)

// memRepo is an in-memory Repository. Reserve holds the mutex across the
// overlap check and the insert, mirroring the transactional closure of the
// real store.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*Booking
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*Booking)}
}

func (r *memRepo) Reserve(_ context.Context, b *Booking) ([]Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requested := Interval{Start: b.StartTime, End: b.EndTime}
	var conflicts []Interval
	for _, existing := range r.bookings {
		if existing.ResourceID != b.ResourceID || !existing.Status.IsLive() {
			continue
		}
		iv := Interval{Start: existing.StartTime, End: existing.EndTime}
		if requested.Overlaps(iv) {
			conflicts = append(conflicts, iv)
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Start.Before(conflicts[j].Start) })
		return conflicts, nil
	}

	r.seq++
	b.ID = fmt.Sprintf("b-%d", r.seq)
	b.CreatedAt = time.Now()
	stored := *b
	r.bookings[b.ID] = &stored
	return nil, nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if filter.RequesterID != "" && b.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = b.Status
	stored.AdminNote = b.AdminNote
	stored.CheckedInAt = b.CheckedInAt
	return nil
}

func (r *memRepo) FindIdentical(_ context.Context, resourceID, requesterID string, start, end time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.ResourceID == resourceID && b.RequesterID == requesterID &&
			b.StartTime.Equal(start) && b.EndTime.Equal(end) && b.Status.IsLive() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) HasOverlap(_ context.Context, resourceID string, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requested := Interval{Start: start, End: end}
	for _, b := range r.bookings {
		if b.ResourceID != resourceID || !b.Status.IsLive() {
			continue
		}
		if requested.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListLiveInRange(_ context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := Interval{Start: from, End: to}
	var out []*Booking
	for _, b := range r.bookings {
		if b.ResourceID != resourceID || !b.Status.IsLive() {
			continue
		}
		if window.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memRepo) CompleteOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, b := range r.bookings {
		if (b.Status == StatusApproved || b.Status == StatusCheckedIn) && !b.EndTime.After(now) {
			b.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

// memResourceService serves the fixed resource set the tests register.
type memResourceService struct {
	resources map[string]*resource.Resource
}

func newMemResourceService(resources ...*resource.Resource) *memResourceService {
	m := make(map[string]*resource.Resource, len(resources))
	for _, res := range resources {
		m[res.ID] = res
	}
	return &memResourceService{resources: m}
}

func (s *memResourceService) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	res, ok := s.resources[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return res, nil
}

func (s *memResourceService) ListActive(_ context.Context, t resource.Type) ([]*resource.Resource, error) {
	var out []*resource.Resource
	for _, res := range s.resources {
		if res.IsActive && res.ResourceType == t {
			out = append(out, res)
		}
	}
	return out, nil
}

func (s *memResourceService) Create(context.Context, resource.CreateRequest) (*resource.Resource, error) {
	panic("not used in booking tests")
}

func (s *memResourceService) List(context.Context, resource.Filter) ([]*resource.Resource, int, error) {
	panic("not used in booking tests")
}

func (s *memResourceService) Update(context.Context, string, resource.UpdateRequest) (*resource.Resource, error) {
	panic("not used in booking tests")
}

func (s *memResourceService) Delete(context.Context, string) error {
	panic("not used in booking tests")
}

func (s *memResourceService) UploadPhoto(context.Context, string, *multipart.FileHeader) (*resource.Resource, error) {
	panic("not used in booking tests")
}

func (s *memResourceService) Photo(context.Context, string, bool) (io.ReadCloser, error) {
	panic("not used in booking tests")
}

// testClock is a settable clock for the service under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var (
	testDay   = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (Service, *memRepo, *testClock) {
	t.Helper()

	roomA := &resource.Resource{ID: "room-a", Name: "Room A", ResourceType: resource.TypeMeetingRoom, IsActive: true}
	roomB := &resource.Resource{ID: "room-b", Name: "Room B", ResourceType: resource.TypeMeetingRoom, IsActive: true}
	laptop := &resource.Resource{ID: "laptop-1", Name: "Laptop 1", ResourceType: resource.TypeLaptop, IsActive: true}
	retired := &resource.Resource{ID: "room-old", Name: "Old Room", ResourceType: resource.TypeMeetingRoom, IsActive: false}

	repo := newMemRepo()
	clk := &testClock{t: testStart}
	svc := NewServiceWithClock(repo, newMemResourceService(roomA, roomB, laptop, retired), DefaultPolicy(), clk.Now)
	return svc, repo, clk
}

func mustReserve(t *testing.T, svc Service, requester, resourceID string, start, end time.Time) *Booking {
	t.Helper()
	b, err := svc.Reserve(context.Background(), ReserveRequest{
		RequesterID: requester,
		ResourceID:  resourceID,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestReserveValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     ReserveRequest
		wantErr error
	}{
		{
			name:    "end before start",
			req:     ReserveRequest{RequesterID: "u1", ResourceID: "room-a", StartTime: at(11, 0), EndTime: at(10, 0)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "zero duration",
			req:     ReserveRequest{RequesterID: "u1", ResourceID: "room-a", StartTime: at(10, 0), EndTime: at(10, 0)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "not slot aligned",
			req:     ReserveRequest{RequesterID: "u1", ResourceID: "room-a", StartTime: at(10, 0), EndTime: at(10, 45)},
			wantErr: ErrNotSlotAligned,
		},
		{
			name: "start in the past",
			req: ReserveRequest{
				RequesterID: "u1", ResourceID: "room-a",
				StartTime: testStart.Add(-time.Hour), EndTime: testStart.Add(-30 * time.Minute),
			},
			wantErr: ErrStartTimePast,
		},
		{
			name:    "unknown resource",
			req:     ReserveRequest{RequesterID: "u1", ResourceID: "nope", StartTime: at(10, 0), EndTime: at(11, 0)},
			wantErr: ErrResourceNotFound,
		},
		{
			name:    "inactive resource",
			req:     ReserveRequest{RequesterID: "u1", ResourceID: "room-old", StartTime: at(10, 0), EndTime: at(11, 0)},
			wantErr: ErrResourceInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			// Validation failures are never conflicts.
			var conflictErr *ConflictError
			assert.False(t, errors.As(err, &conflictErr))
		})
	}
}

func TestReserveSuccess(t *testing.T) {
	svc, _, _ := newTestService(t)

	b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Room A", b.ResourceName)
	assert.Equal(t, at(10, 0), b.StartTime)
	assert.Equal(t, at(11, 0), b.EndTime)
}

func TestReserveConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	_, err := svc.Reserve(ctx, ReserveRequest{
		RequesterID: "u2", ResourceID: "room-a",
		StartTime: at(10, 30), EndTime: at(11, 30),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeConflict)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, at(10, 0), conflictErr.Conflicts[0].Start)
	assert.Equal(t, at(11, 0), conflictErr.Conflicts[0].End)
}

func TestReserveConflictSuggestions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	_, err := svc.Reserve(ctx, ReserveRequest{
		RequesterID: "u2", ResourceID: "room-a",
		StartTime: at(10, 30), EndTime: at(11, 30),
	})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.NotNil(t, conflictErr.Suggestion)

	// Room B is the only other active meeting room and is free; the laptop
	// is a different resource type and must not be offered.
	require.Len(t, conflictErr.Suggestion.Resources, 1)
	assert.Equal(t, "room-b", conflictErr.Suggestion.Resources[0].ID)
	assert.Equal(t, "Room B", conflictErr.Suggestion.Resources[0].Name)

	// Nearest free one-hour windows on room-a, closest first, forward
	// before backward on ties. The backward window at 09:30 still overlaps
	// the 10:00 booking and must be skipped.
	require.Len(t, conflictErr.Suggestion.Windows, 3)
	assert.Equal(t, Interval{Start: at(11, 30), End: at(12, 30)}, conflictErr.Suggestion.Windows[0])
	assert.Equal(t, Interval{Start: at(12, 0), End: at(13, 0)}, conflictErr.Suggestion.Windows[1])
	assert.Equal(t, Interval{Start: at(9, 0), End: at(10, 0)}, conflictErr.Suggestion.Windows[2])
}

func TestReserveConflictSuggestionsSkipBusyAlternatives(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
	// Room B is busy for the requested window too.
	mustReserve(t, svc, "u3", "room-b", at(10, 0), at(11, 30))

	_, err := svc.Reserve(ctx, ReserveRequest{
		RequesterID: "u2", ResourceID: "room-a",
		StartTime: at(10, 0), EndTime: at(11, 0),
	})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Empty(t, conflictErr.Suggestion.Resources)
}

func TestReserveBackToBack(t *testing.T) {
	svc, _, _ := newTestService(t)

	mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	// A booking starting exactly where the previous one ends is no overlap:
	// intervals are half-open.
	b := mustReserve(t, svc, "u2", "room-a", at(11, 0), at(11, 30))
	assert.Equal(t, StatusPending, b.Status)
}

func TestReserveIdempotentRetry(t *testing.T) {
	svc, _, _ := newTestService(t)

	first := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	// The same requester repeating the exact same request gets the booking
	// created by the first attempt, not a conflict and not a duplicate.
	retry := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
	assert.Equal(t, first.ID, retry.ID)

	bookings, total, err := svc.List(context.Background(), Filter{RequesterID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, bookings, 1)
}

func TestReserveConcurrentSameWindow(t *testing.T) {
	svc, repo, _ := newTestService(t)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveRequest{
				RequesterID: fmt.Sprintf("u%d", i),
				ResourceID:  "room-a",
				StartTime:   at(14, 0),
				EndTime:     at(15, 0),
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrTimeConflict)
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent reservation must win")

	// No overlapping live bookings were committed.
	live, err := repo.ListLiveInRange(context.Background(), "room-a", at(14, 0), at(15, 0))
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestReserveSlots(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	t.Run("contiguous run reserves the spanned window", func(t *testing.T) {
		// Slots 2,3,4 on the default grid are 10:00-11:30.
		b, err := svc.ReserveSlots(ctx, "u1", "room-a", testDay, []int{2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, at(10, 0), b.StartTime)
		assert.Equal(t, at(11, 30), b.EndTime)
	})

	t.Run("non-contiguous selection is rejected", func(t *testing.T) {
		_, err := svc.ReserveSlots(ctx, "u2", "room-b", testDay, []int{2, 5})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("duplicate index toggles off and is rejected", func(t *testing.T) {
		_, err := svc.ReserveSlots(ctx, "u2", "room-b", testDay, []int{2, 2})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("taken slot is rejected", func(t *testing.T) {
		// Slot 3 is inside the 10:00-11:30 booking made above.
		_, err := svc.ReserveSlots(ctx, "u2", "room-a", testDay, []int{3})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		_, err := svc.ReserveSlots(ctx, "u2", "room-b", testDay, nil)
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("out of range index is rejected", func(t *testing.T) {
		_, err := svc.ReserveSlots(ctx, "u2", "room-b", testDay, []int{99})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

	win, err := svc.Availability(ctx, "room-a", testDay, 0)
	require.NoError(t, err)
	require.Len(t, win.Slots, DefaultPolicy().SlotsPerDay())

	// 10:00-11:00 covers slots 2 and 3.
	assert.Equal(t, SlotTaken, win.Slots[2].Status)
	assert.Equal(t, SlotTaken, win.Slots[3].Status)
	assert.Equal(t, SlotAvailable, win.Slots[4].Status)

	// The other room is unaffected.
	winB, err := svc.Availability(ctx, "room-b", testDay, 0)
	require.NoError(t, err)
	assert.Equal(t, SlotAvailable, winB.Slots[2].Status)

	// A custom grid width changes the view, not the stored bookings:
	// hour-wide slots over 09:00-18:00 give 9 cells and 10:00-11:00 is cell 1.
	winHourly, err := svc.Availability(ctx, "room-a", testDay, 60)
	require.NoError(t, err)
	require.Len(t, winHourly.Slots, 9)
	assert.Equal(t, SlotTaken, winHourly.Slots[1].Status)
	assert.Equal(t, SlotAvailable, winHourly.Slots[2].Status)

	_, err = svc.Availability(ctx, "nope", testDay, 0)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestApproveAndReject(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	note := "confirmed by reception"

	t.Run("approve pending", func(t *testing.T) {
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

		approved, err := svc.Approve(ctx, b.ID, &note)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, approved.Status)
		require.NotNil(t, approved.AdminNote)
		assert.Equal(t, note, *approved.AdminNote)
	})

	t.Run("reject pending", func(t *testing.T) {
		b := mustReserve(t, svc, "u1", "room-b", at(10, 0), at(11, 0))

		rejected, err := svc.Reject(ctx, b.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)
	})

	t.Run("rejected booking frees the window", func(t *testing.T) {
		b := mustReserve(t, svc, "u2", "room-b", at(10, 0), at(11, 0))
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("review of a non-pending booking fails", func(t *testing.T) {
		b := mustReserve(t, svc, "u1", "room-a", at(12, 0), at(13, 0))
		_, err := svc.Approve(ctx, b.ID, nil)
		require.NoError(t, err)

		_, err = svc.Reject(ctx, b.ID, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.Approve(ctx, "missing", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (Service, *testClock, *Booking) {
		svc, _, clk := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
		_, err := svc.Approve(ctx, b.ID, nil)
		require.NoError(t, err)
		return svc, clk, b
	}

	t.Run("too early", func(t *testing.T) {
		svc, clk, b := setup(t)
		// 20 minutes before start, grace is 15.
		clk.Set(at(9, 40))

		_, err := svc.CheckIn(ctx, b.ID, "u1")
		assert.ErrorIs(t, err, ErrOutsideCheckInWindow)
	})

	t.Run("within grace before start", func(t *testing.T) {
		svc, clk, b := setup(t)
		clk.Set(at(9, 50))

		checked, err := svc.CheckIn(ctx, b.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, StatusCheckedIn, checked.Status)
		require.NotNil(t, checked.CheckedInAt)
		assert.Equal(t, at(9, 50), *checked.CheckedInAt)
	})

	t.Run("during the booking", func(t *testing.T) {
		svc, clk, b := setup(t)
		clk.Set(at(10, 30))

		checked, err := svc.CheckIn(ctx, b.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, StatusCheckedIn, checked.Status)
	})

	t.Run("after the booking ended", func(t *testing.T) {
		svc, clk, b := setup(t)
		clk.Set(at(11, 1))

		_, err := svc.CheckIn(ctx, b.ID, "u1")
		assert.ErrorIs(t, err, ErrOutsideCheckInWindow)
	})

	t.Run("only the requester may check in", func(t *testing.T) {
		svc, clk, b := setup(t)
		clk.Set(at(10, 0))

		_, err := svc.CheckIn(ctx, b.ID, "someone-else")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("pending booking cannot check in", func(t *testing.T) {
		svc, _, clk := newTestService(t)
		pending := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
		clk.Set(at(10, 0))

		_, err := svc.CheckIn(ctx, pending.ID, "u1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("before start", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

		cancelled, err := svc.Cancel(ctx, b.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("cancelled window becomes reservable again", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
		_, err := svc.Cancel(ctx, b.ID, "u1")
		require.NoError(t, err)

		again := mustReserve(t, svc, "u2", "room-a", at(10, 0), at(11, 0))
		assert.NotEqual(t, b.ID, again.ID)
	})

	t.Run("at start time the deadline has passed", func(t *testing.T) {
		svc, _, clk := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
		clk.Set(at(10, 0))

		_, err := svc.Cancel(ctx, b.ID, "u1")
		assert.ErrorIs(t, err, ErrCancelDeadlinePassed)
	})

	t.Run("only the requester may cancel", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))

		_, err := svc.Cancel(ctx, b.ID, "u2")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("checked-in booking cannot be cancelled", func(t *testing.T) {
		svc, _, clk := newTestService(t)
		b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
		_, err := svc.Approve(ctx, b.ID, nil)
		require.NoError(t, err)
		clk.Set(at(10, 0))
		_, err = svc.CheckIn(ctx, b.ID, "u1")
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, b.ID, "u1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestLazyCompletionOnRead(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()

	b := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
	_, err := svc.Approve(ctx, b.ID, nil)
	require.NoError(t, err)

	clk.Set(at(12, 0))

	got, err := svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// The transition was persisted, not just rendered.
	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestCompleteOverdue(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	approved := mustReserve(t, svc, "u1", "room-a", at(10, 0), at(11, 0))
	_, err := svc.Approve(ctx, approved.ID, nil)
	require.NoError(t, err)

	// Still pending: the sweep never touches unreviewed bookings.
	pending := mustReserve(t, svc, "u2", "room-b", at(10, 0), at(11, 0))

	// Future approved booking stays untouched.
	future := mustReserve(t, svc, "u1", "room-a", at(15, 0), at(16, 0))
	_, err = svc.Approve(ctx, future.ID, nil)
	require.NoError(t, err)

	clk.Set(at(12, 0))

	n, err := svc.CompleteOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	gotPending, err := svc.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, gotPending.Status)
}
