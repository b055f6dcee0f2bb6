// Package session tracks per-device authentication state and gates the
// entry screen on it.
package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/model"
)

// Source is a cancellable stream of session snapshots for one device key.
type Source interface {
	Subscribe(key string, fn func(model.Session)) (unsubscribe func())
}

// Hub keeps the latest snapshot per device and fans changes out to
// subscribers. Each subscriber gets its own delivery goroutine, so callbacks
// for one subscriber never overlap and arrive in publish order. A slow
// subscriber only ever sees the newest snapshot it missed.
type Hub struct {
	mu      sync.Mutex
	current map[string]model.Session
	subs    map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub. Devices never seen are signed out.
func NewHub() *Hub {
	return &Hub{
		current: make(map[string]model.Session),
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

type subscriber struct {
	fn   func(model.Session)
	wake chan struct{}
	stop chan struct{}

	mu      sync.Mutex
	pending *model.Session
}

func (s *subscriber) offer(snap model.Session) {
	s.mu.Lock()
	s.pending = &snap
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) take() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return model.Session{}, false
	}
	snap := *s.pending
	s.pending = nil
	return snap, true
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}
		snap, ok := s.take()
		if !ok {
			continue
		}
		select {
		case <-s.stop:
			return
		default:
		}
		s.fn(snap)
	}
}

// Subscribe delivers the current snapshot for key and then every change,
// asynchronously. The returned function cancels the subscription; no new
// delivery starts after it returns. It is safe to call more than once.
func (h *Hub) Subscribe(key string, fn func(model.Session)) func() {
	sub := &subscriber{fn: fn, wake: make(chan struct{}, 1), stop: make(chan struct{})}

	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[key] = set
	}
	set[sub] = struct{}{}
	sub.offer(h.current[key])
	h.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[key], sub)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			h.mu.Unlock()
			close(sub.stop)
		})
	}
}

// Publish records snap as the current state of key and notifies subscribers.
func (h *Hub) Publish(key string, snap model.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if snap.Authenticated {
		h.current[key] = snap
	} else {
		delete(h.current, key)
	}
	for sub := range h.subs[key] {
		sub.offer(snap)
	}
	log.Debug().
		Str("device", key).
		Bool("authenticated", snap.Authenticated).
		Int("subscribers", len(h.subs[key])).
		Msg("session published")
}

// Current returns the latest snapshot for key.
func (h *Hub) Current(key string) model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current[key]
}

// DevicesFor returns the device keys currently signed in as uid.
func (h *Hub) DevicesFor(uid string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for key, snap := range h.current {
		if snap.Authenticated && snap.Profile.UID == uid {
			out = append(out, key)
		}
	}
	return out
}
