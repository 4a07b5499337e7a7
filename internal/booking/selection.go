package booking

import "sort"

// Select applies one slot click to the current selection and returns the
// new selection. It is a pure function; current is never mutated and the
// result is always sorted ascending.
//
// Rules:
//   - Clicking a slot that is not available (taken, past, or out of range)
//     is a no-op.
//   - Clicking an already-selected slot deselects it.
//   - Adding a slot keeps the union if it stays contiguous; otherwise the
//     old selection is discarded and the selection restarts at the clicked
//     slot. Silently favouring the most recent contiguous intent over
//     rejecting the click is a deliberate UX policy, not a bug.
func Select(current []int, index int, win AvailabilityWindow) []int {
	slot, ok := win.Slot(index)
	if !ok || slot.Status != SlotAvailable {
		return append([]int(nil), current...)
	}

	// Toggle off if already selected.
	for i, v := range current {
		if v == index {
			next := make([]int, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			return next
		}
	}

	union := make([]int, 0, len(current)+1)
	union = append(union, current...)
	union = append(union, index)
	sort.Ints(union)

	if isContiguous(union) {
		return union
	}
	return []int{index}
}

// isContiguous reports whether a sorted slice is an ascending run with no
// gaps.
func isContiguous(sorted []int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

// SelectionWindow derives the [start, end) window covered by a selection.
// Returns false for an empty selection or indices outside the grid.
func SelectionWindow(selection []int, win AvailabilityWindow) (Interval, bool) {
	if len(selection) == 0 {
		return Interval{}, false
	}

	sorted := append([]int(nil), selection...)
	sort.Ints(sorted)

	first, ok := win.Slot(sorted[0])
	if !ok {
		return Interval{}, false
	}
	last, ok := win.Slot(sorted[len(sorted)-1])
	if !ok {
		return Interval{}, false
	}

	return Interval{Start: first.StartTime, End: last.EndTime}, true
}
