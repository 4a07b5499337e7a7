package booking

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotTaken     SlotStatus = "taken"
	SlotPast      SlotStatus = "past"
)

// TimeSlot is one fixed-width cell of the availability grid.
type TimeSlot struct {
	Index     int
	StartTime time.Time
	EndTime   time.Time
	Status    SlotStatus
}

// AvailabilityWindow is the discretized view of one resource on one day.
// It is recomputed per query from the current booking set and is never
// the system of record.
type AvailabilityWindow struct {
	ResourceID   string
	Date         time.Time
	SlotDuration time.Duration
	Slots        []TimeSlot
}

// ComputeAvailability derives the slot grid for a resource on the given
// date. date is truncated to midnight in its own location. Only live
// bookings mark slots taken; a partial overlap takes the whole slot.
// A slot whose end is not after now is past; taken wins over past when
// both apply, and both render as non-selectable.
func ComputeAvailability(resourceID string, date time.Time, bookings []*Booking, p Policy, now time.Time) AvailabilityWindow {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayStart := midnight.Add(time.Duration(p.DayStartMinutes) * time.Minute)

	win := AvailabilityWindow{
		ResourceID:   resourceID,
		Date:         midnight,
		SlotDuration: p.SlotDuration,
		Slots:        make([]TimeSlot, 0, p.SlotsPerDay()),
	}

	for i := 0; i < p.SlotsPerDay(); i++ {
		slot := TimeSlot{
			Index:     i,
			StartTime: dayStart.Add(time.Duration(i) * p.SlotDuration),
			EndTime:   dayStart.Add(time.Duration(i+1) * p.SlotDuration),
			Status:    SlotAvailable,
		}

		cell := Interval{Start: slot.StartTime, End: slot.EndTime}
		for _, b := range bookings {
			if !b.Status.IsLive() {
				continue
			}
			if cell.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
				slot.Status = SlotTaken
				break
			}
		}

		if slot.Status == SlotAvailable && !slot.EndTime.After(now) {
			slot.Status = SlotPast
		}

		win.Slots = append(win.Slots, slot)
	}

	return win
}

// Slot returns the slot at the given index, or false if out of range.
func (w AvailabilityWindow) Slot(index int) (TimeSlot, bool) {
	if index < 0 || index >= len(w.Slots) {
		return TimeSlot{}, false
	}
	return w.Slots[index], true
}
