package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/schedule"
)

// DefaultInterval is the home screen refresh cadence.
const DefaultInterval = time.Second

// Ticker republishes the home screen frame at a fixed cadence. Before the
// target it publishes the countdown; from the first tick that observes
// now >= target it stays Live and resolves the current event on every tick.
type Ticker struct {
	clock    clockwork.Clock
	target   time.Time
	schedule schedule.Schedule
	loc      *time.Location
	interval time.Duration

	phase Phase
}

// Option configures a Ticker.
type Option func(*Ticker)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clockwork.Clock) Option { return func(t *Ticker) { t.clock = c } }

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(t *Ticker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLocation sets the zone the schedule is read in. Defaults to the
// target's location.
func WithLocation(loc *time.Location) Option {
	return func(t *Ticker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// NewTicker builds a ticker for one screen. The initial phase follows the
// clock at construction time.
func NewTicker(target time.Time, s schedule.Schedule, opts ...Option) *Ticker {
	t := &Ticker{
		clock:    clockwork.NewRealClock(),
		target:   target,
		schedule: s,
		loc:      target.Location(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.clock.Now().Before(target) {
		t.phase = Live
	}
	return t
}

// Phase returns the current phase. Only call it from the publish callback or
// after the handle is stopped.
func (t *Ticker) Phase() Phase { return t.phase }

// Observe advances the state machine to now and returns the frame to render.
func (t *Ticker) Observe(now time.Time) Frame {
	now = now.In(t.loc)
	if t.phase == Counting && !now.Before(t.target) {
		t.phase = Live
		log.Info().Time("target", t.target).Time("observed_at", now).Msg("festival started, switching to live view")
	}
	if t.phase == Counting {
		return counting(t.target, now)
	}
	return live(t.schedule, now)
}

// Handle is the scoped lifetime of a running ticker.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start publishes an initial frame and then one frame per interval until
// ctx is done or the handle is stopped. publish is always called from the
// same goroutine, one frame at a time.
func (t *Ticker) Start(ctx context.Context, publish func(Frame)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	tk := t.clock.NewTicker(t.interval)

	go func() {
		defer close(h.done)
		defer tk.Stop()

		publish(t.Observe(t.clock.Now()))
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.Chan():
				// A stop can race with a pending tick; stop wins.
				if ctx.Err() != nil {
					return
				}
				publish(t.Observe(t.clock.Now()))
			}
		}
	}()
	return h
}

// Stop cancels the ticker and waits for its goroutine to exit. No frame is
// published after Stop returns. Calling Stop from inside publish deadlocks.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the ticker goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }
