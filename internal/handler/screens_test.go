package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/session"
)

type screenMsg struct {
	Type    string `json:"type"`
	State   string `json:"state"`
	Route   string `json:"route"`
	Replace bool   `json:"replace"`
	Frame   struct {
		Phase   string `json:"phase"`
		Display string `json:"display"`
	} `json:"frame"`
}

func startScreens(t *testing.T, h *ScreenHandler) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.GET("/v1/ws/entry", h.Entry)
	e.GET("/v1/ws/home", h.Home)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func next(t *testing.T, ws *websocket.Conn) screenMsg {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m screenMsg
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return m
}

func TestEntryScreenGate(t *testing.T) {
	hub := session.NewHub()
	h := NewScreenHandler(hub, Festival{}, "/MainContainer", DefaultScreenConfig())
	ws := dial(t, startScreens(t, h), "/v1/ws/entry?device=phone")

	if m := next(t, ws); m.Type != "state" || m.State != "pending" {
		t.Fatalf("first message = %+v", m)
	}
	if m := next(t, ws); m.Type != "state" || m.State != "ready" {
		t.Fatalf("second message = %+v", m)
	}

	hub.Publish("phone", model.Session{Authenticated: true, Profile: model.Profile{UID: "u1"}})
	m := next(t, ws)
	if m.Type != "navigate" || m.Route != "/MainContainer" || !m.Replace {
		t.Fatalf("navigate message = %+v", m)
	}

	hub.Publish("phone", model.SignedOut)
	if m := next(t, ws); m.Type != "state" || m.State != "ready" {
		t.Fatalf("after sign-out = %+v", m)
	}
}

func TestEntryScreenRequiresDevice(t *testing.T) {
	h := NewScreenHandler(session.NewHub(), Festival{}, "/MainContainer", DefaultScreenConfig())
	srv := startScreens(t, h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/entry"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial without device succeeded")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("resp = %v", resp)
	}
}

func TestHomeScreenTicks(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 25, 13, 59, 58, 0, time.UTC))
	f := testFestival(t, time.Time{})
	f.Clock = clock
	h := NewScreenHandler(session.NewHub(), f, "/MainContainer", DefaultScreenConfig())
	ws := dial(t, startScreens(t, h), "/v1/ws/home")

	if m := next(t, ws); m.Type != "frame" || m.Frame.Phase != "counting" || m.Frame.Display != "0h 0m 2s" {
		t.Fatalf("initial frame = %+v", m)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("BlockUntil: %v", err)
	}
	clock.Advance(time.Second)
	if m := next(t, ws); m.Frame.Display != "0h 0m 1s" {
		t.Fatalf("second frame = %+v", m)
	}
	clock.Advance(time.Second)
	if m := next(t, ws); m.Frame.Phase != "live" {
		t.Fatalf("third frame = %+v", m)
	}
}
