package session

import (
	"testing"
	"time"

	"github.com/iliyamo/westfest/internal/model"
)

func waitSession(t *testing.T, ch <-chan model.Session) model.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session")
		return model.Session{}
	}
}

func alice() model.Session {
	return model.SignedIn(model.User{ID: "u-1", Email: "alice@example.com", DisplayName: "Alice"})
}

func TestHubDeliversCurrentFirst(t *testing.T) {
	h := NewHub()
	h.Publish("dev-1", alice())

	got := make(chan model.Session, 4)
	unsub := h.Subscribe("dev-1", func(s model.Session) { got <- s })
	defer unsub()

	if s := waitSession(t, got); !s.Authenticated || s.Profile.UID != "u-1" {
		t.Fatalf("first delivery = %+v, want alice", s)
	}
}

func TestHubUnknownDeviceIsSignedOut(t *testing.T) {
	h := NewHub()
	got := make(chan model.Session, 4)
	unsub := h.Subscribe("dev-x", func(s model.Session) { got <- s })
	defer unsub()

	if s := waitSession(t, got); s.Authenticated {
		t.Fatalf("first delivery = %+v, want signed out", s)
	}
}

func TestHubFansOutPerKey(t *testing.T) {
	h := NewHub()
	a := make(chan model.Session, 4)
	b := make(chan model.Session, 4)
	defer h.Subscribe("dev-a", func(s model.Session) { a <- s })()
	defer h.Subscribe("dev-b", func(s model.Session) { b <- s })()
	waitSession(t, a)
	waitSession(t, b)

	h.Publish("dev-a", alice())
	if s := waitSession(t, a); !s.Authenticated {
		t.Fatalf("dev-a got %+v", s)
	}
	select {
	case s := <-b:
		t.Fatalf("dev-b should not be notified, got %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	if !h.Current("dev-a").Authenticated || h.Current("dev-b").Authenticated {
		t.Fatal("Current does not reflect publishes")
	}
}

func TestHubNoDeliveryAfterUnsubscribe(t *testing.T) {
	h := NewHub()
	got := make(chan model.Session, 4)
	unsub := h.Subscribe("dev-1", func(s model.Session) { got <- s })
	waitSession(t, got)

	unsub()
	unsub()
	h.Publish("dev-1", alice())
	select {
	case s := <-got:
		t.Fatalf("delivery after unsubscribe: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDevicesFor(t *testing.T) {
	h := NewHub()
	h.Publish("phone", alice())
	h.Publish("tablet", alice())
	h.Publish("tablet", model.SignedOut)

	devs := h.DevicesFor("u-1")
	if len(devs) != 1 || devs[0] != "phone" {
		t.Fatalf("DevicesFor = %v, want [phone]", devs)
	}
}

func timeout() <-chan time.Time { return time.After(2 * time.Second) }
