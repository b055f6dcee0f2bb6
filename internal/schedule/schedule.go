// Package schedule holds the festival programme and answers "what's on now".
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/westfest/internal/model"
)

// Schedule maps a lowercase weekday name to that day's events in declared
// order. Days without an entry have no events.
type Schedule map[string][]model.Event

var dayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayKey returns the schedule key for a weekday.
func DayKey(d time.Weekday) string { return dayKeys[d] }

// ParseDay maps a day name (any case) back to its weekday.
func ParseDay(name string) (time.Weekday, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, k := range dayKeys {
		if k == name {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", name)
}

// Resolve returns the event happening at now, if any.
//
// now is read in its own location; callers convert to the festival zone
// first. Seconds are discarded and both bounds are inclusive, so an event
// still matches during its end minute. When events overlap the first one in
// declared order wins.
func Resolve(s Schedule, now time.Time) (model.Event, bool) {
	events, ok := s[DayKey(now.Weekday())]
	if !ok {
		return model.Event{}, false
	}
	nowMin := now.Hour()*60 + now.Minute()
	for _, ev := range events {
		if ev.Start.Minutes() <= nowMin && nowMin <= ev.End.Minutes() {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Day returns a copy of the events for d.
func Day(s Schedule, d time.Weekday) []model.Event {
	events := s[DayKey(d)]
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}

// Days returns the scheduled day keys in week order starting from first.
func Days(s Schedule, first time.Weekday) []string {
	out := make([]string, 0, len(s))
	for i := 0; i < 7; i++ {
		k := DayKey((first + time.Weekday(i)) % 7)
		if _, ok := s[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
