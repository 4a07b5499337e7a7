package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Policy holds the engine-wide booking rules. All values come from
// configuration; the zero value is not usable, construct via DefaultPolicy
// or fill every field.
type Policy struct {
	SlotDuration      time.Duration
	DayStartMinutes   int // Operating window start, minutes from midnight.
	DayEndMinutes     int // Operating window end, minutes from midnight.
	CheckInGrace      time.Duration
	SuggestionHorizon time.Duration
	SuggestionLimit   int
}

// DefaultPolicy returns the built-in policy defaults: 30-minute slots,
// a 09:00-18:00 operating window, 15 minutes of check-in grace and a
// 4-hour suggestion horizon.
func DefaultPolicy() Policy {
	return Policy{
		SlotDuration:      30 * time.Minute,
		DayStartMinutes:   9 * 60,
		DayEndMinutes:     18 * 60,
		CheckInGrace:      15 * time.Minute,
		SuggestionHorizon: 4 * time.Hour,
		SuggestionLimit:   3,
	}
}

// SlotsPerDay returns the number of slots in the operating window.
func (p Policy) SlotsPerDay() int {
	return int(time.Duration(p.DayEndMinutes-p.DayStartMinutes) * time.Minute / p.SlotDuration)
}

// Aligned reports whether the interval duration is a positive multiple of
// the slot duration.
func (p Policy) Aligned(start, end time.Time) bool {
	d := end.Sub(start)
	return d > 0 && d%p.SlotDuration == 0
}

// ParseClockTime parses "HH:MM" (or "HH:MM:SS", seconds ignored) into
// minutes from midnight.
func ParseClockTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock time %q", s)
	}

	return h*60 + m, nil
}
