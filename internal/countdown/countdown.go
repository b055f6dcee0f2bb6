// Package countdown drives the home screen: a countdown to the festival
// opening, then the "what's happening now" view once it has started.
package countdown

import (
	"fmt"
	"time"

	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/schedule"
)

// Phase is the home screen mode.
type Phase int

const (
	// Counting means the festival has not started yet.
	Counting Phase = iota
	// Live means the festival start has been observed. It is terminal.
	Live
)

func (p Phase) String() string {
	switch p {
	case Counting:
		return "counting"
	case Live:
		return "live"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Remaining is a duration split into whole hours, minutes and seconds.
type Remaining struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Until returns target-now floored to whole seconds. It is zero once now
// has reached target, never negative.
func Until(target, now time.Time) Remaining {
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{}
	}
	secs := int64(d / time.Second)
	return Remaining{
		Hours:   secs / 3600,
		Minutes: (secs / 60) % 60,
		Seconds: secs % 60,
	}
}

// Total returns the remaining time as a duration.
func (r Remaining) Total() time.Duration {
	return time.Duration(r.Hours)*time.Hour + time.Duration(r.Minutes)*time.Minute + time.Duration(r.Seconds)*time.Second
}

func (r Remaining) String() string {
	return fmt.Sprintf("%dh %dm %ds", r.Hours, r.Minutes, r.Seconds)
}

// Frame is what the home screen renders for one tick.
type Frame struct {
	Phase     Phase        `json:"phase"`
	At        time.Time    `json:"at"`
	Countdown *Remaining   `json:"countdown,omitempty"`
	Display   string       `json:"display,omitempty"`
	Current   *model.Event `json:"current"`
}

// Snapshot computes the frame for now without any ticker state.
func Snapshot(target time.Time, s schedule.Schedule, now time.Time) Frame {
	if now.Before(target) {
		return counting(target, now)
	}
	return live(s, now)
}

func counting(target, now time.Time) Frame {
	r := Until(target, now)
	return Frame{Phase: Counting, At: now, Countdown: &r, Display: r.String()}
}

func live(s schedule.Schedule, now time.Time) Frame {
	f := Frame{Phase: Live, At: now}
	if ev, ok := schedule.Resolve(s, now); ok {
		f.Current = &ev
	}
	return f
}
