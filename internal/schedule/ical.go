package schedule

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/iliyamo/westfest/internal/model"
)

// Calendar renders the programme as an iCalendar feed. Each scheduled day is
// pinned to the first date on or after start's date with that weekday, read
// in loc. Entries that end before they start are skipped.
func Calendar(s Schedule, start time.Time, loc *time.Location, name string) string {
	if loc == nil {
		loc = time.Local
	}
	start = start.In(loc)
	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//WestFest//Programme//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for _, key := range Days(s, start.Weekday()) {
		d, _ := ParseDay(key)
		offset := (int(d) - int(start.Weekday()) + 7) % 7
		date := base.AddDate(0, 0, offset)
		for i, ev := range s[key] {
			if ev.SpansMidnight() {
				continue
			}
			vev := cal.AddEvent(fmt.Sprintf("%s-%d-%s@westfest", date.Format("20060102"), i, key))
			vev.SetDtStampTime(start)
			vev.SetStartAt(atTime(date, ev.Start))
			vev.SetEndAt(atTime(date, ev.End))
			vev.SetSummary(ev.Description)
		}
	}
	return cal.Serialize()
}

func atTime(date time.Time, t model.TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}
