package booking

import (
	"context"
	"sort"
	"time"

	"github.com/tamagocat/office-booking-backend/internal/resource"
)

// AlternativeResource is a free resource of the same type offered after a
// conflict.
type AlternativeResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Suggestion is the advisory payload attached to a conflict. Nothing in it
// is held or locked: a subsequent reserve on a suggested alternative can
// itself conflict and callers must treat that as a fresh conflict.
type Suggestion struct {
	Resources []AlternativeResource `json:"available_resources"`
	Windows   []Interval            `json:"available_slots"`
}

func emptySuggestion() *Suggestion {
	return &Suggestion{
		Resources: []AlternativeResource{},
		Windows:   []Interval{},
	}
}

// suggest computes alternatives for a conflicting [start, end) request:
// active resources of the same type that are free for the window, ordered
// by id, and the nearest free equal-duration windows on the original
// resource within the policy horizon, ordered by distance from the
// request. Every candidate is re-verified free against the store at
// suggestion time.
func (s *service) suggest(ctx context.Context, res *resource.Resource, start, end time.Time, now time.Time) (*Suggestion, error) {
	sugg := emptySuggestion()

	alternatives, err := s.resService.ListActive(ctx, res.ResourceType)
	if err != nil {
		return nil, err
	}
	sort.Slice(alternatives, func(i, j int) bool { return alternatives[i].ID < alternatives[j].ID })

	for _, alt := range alternatives {
		if alt.ID == res.ID {
			continue
		}
		taken, err := s.repo.HasOverlap(ctx, alt.ID, start, end)
		if err != nil {
			return nil, err
		}
		if !taken {
			sugg.Resources = append(sugg.Resources, AlternativeResource{ID: alt.ID, Name: alt.Name})
		}
	}

	duration := end.Sub(start)
	step := s.policy.SlotDuration

	// Scan outward from the request in slot steps, forward from end and
	// backward from start, nearest windows first (forward wins ties).
	for offset := time.Duration(0); offset <= s.policy.SuggestionHorizon; offset += step {
		if len(sugg.Windows) >= s.policy.SuggestionLimit {
			break
		}

		candidates := []Interval{
			{Start: end.Add(offset), End: end.Add(offset + duration)},
			{Start: start.Add(-offset - duration), End: start.Add(-offset)},
		}

		for _, c := range candidates {
			if len(sugg.Windows) >= s.policy.SuggestionLimit {
				break
			}
			// Windows that already started are not reservable.
			if c.Start.Before(now) {
				continue
			}
			taken, err := s.repo.HasOverlap(ctx, res.ID, c.Start, c.End)
			if err != nil {
				return nil, err
			}
			if !taken {
				sugg.Windows = append(sugg.Windows, c)
			}
		}
	}

	return sugg, nil
}
