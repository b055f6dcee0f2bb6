package session

import (
	"fmt"
	"sync"

	"github.com/iliyamo/westfest/internal/model"
)

// State is the entry screen state.
type State int

const (
	// StatePending: waiting for the first snapshot, show a spinner.
	StatePending State = iota
	// StateReady: signed out, show the login form.
	StateReady
	// StateRedirected: signed in, the screen has been replaced by the main app.
	StateRedirected
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateRedirected:
		return "redirected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Navigator replaces the current screen with route.
type Navigator func(route string)

// Gate decides, from observed sessions, whether the entry screen shows the
// login form or replaces itself with the main app. It navigates once per
// transition into the signed-in state; repeated signed-in snapshots are
// ignored until a signed-out one re-arms it.
type Gate struct {
	navigate  Navigator
	mainRoute string

	mu          sync.Mutex
	state       State
	signedIn    bool
	closed      bool
	unsubscribe func()
}

// NewGate builds a pending gate.
func NewGate(navigate Navigator, mainRoute string) *Gate {
	return &Gate{navigate: navigate, mainRoute: mainRoute}
}

// Activate subscribes the gate to key's session stream. A gate is
// activated at most once.
func (g *Gate) Activate(src Source, key string) {
	g.mu.Lock()
	if g.closed || g.unsubscribe != nil {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	unsub := src.Subscribe(key, g.Observe)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		unsub()
		return
	}
	g.unsubscribe = unsub
}

// Observe applies one session snapshot.
func (g *Gate) Observe(s model.Session) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if !s.Authenticated {
		g.signedIn = false
		g.state = StateReady
		g.mu.Unlock()
		return
	}
	if g.signedIn {
		g.mu.Unlock()
		return
	}
	g.signedIn = true
	g.state = StateRedirected
	// Navigate under the lock: nothing navigates after Deactivate returns.
	defer g.mu.Unlock()
	g.navigate(g.mainRoute)
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Deactivate cancels the subscription. Later snapshots are ignored.
func (g *Gate) Deactivate() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
