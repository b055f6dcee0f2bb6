package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/countdown"
	"github.com/iliyamo/westfest/internal/middleware"
	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/session"
)

// ScreenConfig tunes the websocket connections.
type ScreenConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	CheckOrigin    func(r *http.Request) bool
}

// DefaultScreenConfig returns the websocket defaults.
func DefaultScreenConfig() ScreenConfig {
	return ScreenConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1024,
		SendBuffer:     32,
		CheckOrigin:    func(r *http.Request) bool { return true },
	}
}

// ScreenHandler drives the entry and home screens over websockets. Each
// connection owns its gate or ticker and releases it when the socket closes.
type ScreenHandler struct {
	Sessions  session.Source
	Festival  Festival
	MainRoute string
	cfg       ScreenConfig
	upgrader  websocket.Upgrader
}

func NewScreenHandler(sessions session.Source, f Festival, mainRoute string, cfg ScreenConfig) *ScreenHandler {
	return &ScreenHandler{
		Sessions:  sessions,
		Festival:  f,
		MainRoute: mainRoute,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

type stateMsg struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type navigateMsg struct {
	Type    string `json:"type"`
	Route   string `json:"route"`
	Replace bool   `json:"replace"`
}

type frameMsg struct {
	Type  string          `json:"type"`
	Frame countdown.Frame `json:"frame"`
}

// Entry is the session gate screen: pending until the first session
// snapshot, then either the login form or a navigation to the main route.
func (h *ScreenHandler) Entry(c echo.Context) error {
	device := middleware.DeviceID(c)
	if device == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "device required"})
	}
	sc, err := h.open(c)
	if err != nil {
		return nil
	}
	defer sc.close()

	gate := session.NewGate(func(route string) {
		sc.push(navigateMsg{Type: "navigate", Route: route, Replace: true})
	}, h.MainRoute)

	sc.push(stateMsg{Type: "state", State: session.StatePending.String()})
	gate.Activate(&readyNotifier{src: h.Sessions, gate: gate, push: sc.push}, device)
	defer gate.Deactivate()

	sc.readPump()
	return nil
}

// Home is the countdown screen: one frame per tick until the socket closes.
func (h *ScreenHandler) Home(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return nil
	}
	defer sc.close()

	f := h.Festival
	opts := []countdown.Option{countdown.WithLocation(f.Location), countdown.WithInterval(f.Interval)}
	if f.Clock != nil {
		opts = append(opts, countdown.WithClock(f.Clock))
	}
	t := countdown.NewTicker(f.Target, f.Schedule, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handle := t.Start(ctx, func(fr countdown.Frame) {
		sc.push(frameMsg{Type: "frame", Frame: fr})
	})
	defer handle.Stop()

	sc.readPump()
	return nil
}

// readyNotifier forwards snapshots to the gate and reports each move into
// the ready state to the client.
type readyNotifier struct {
	src  session.Source
	gate *session.Gate
	push func(v any)
	last session.State
}

func (r *readyNotifier) Subscribe(key string, fn func(model.Session)) func() {
	return r.src.Subscribe(key, func(s model.Session) {
		fn(s)
		st := r.gate.State()
		if st == session.StateReady && r.last != session.StateReady {
			r.push(stateMsg{Type: "state", State: st.String()})
		}
		r.last = st
	})
}

// screenConn is one websocket with a single writer goroutine.
type screenConn struct {
	id   string
	ws   *websocket.Conn
	cfg  ScreenConfig
	send chan []byte
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func (h *ScreenHandler) open(c echo.Context) (*screenConn, error) {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Str("path", c.Path()).Msg("websocket upgrade failed")
		return nil, err
	}
	buf := h.cfg.SendBuffer
	if buf <= 0 {
		buf = 32
	}
	sc := &screenConn{
		id:   uuid.NewString(),
		ws:   ws,
		cfg:  h.cfg,
		send: make(chan []byte, buf),
		done: make(chan struct{}),
	}
	sc.wg.Add(1)
	go sc.writePump()
	log.Debug().Str("conn", sc.id).Str("path", c.Path()).Msg("screen connected")
	return sc, nil
}

// push queues v for the client. It gives up once the connection is done.
func (sc *screenConn) push(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("conn", sc.id).Msg("encode screen message")
		return
	}
	select {
	case sc.send <- b:
	case <-sc.done:
	}
}

func (sc *screenConn) writePump() {
	defer sc.wg.Done()
	ping := time.NewTicker(sc.cfg.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-sc.done:
			_ = sc.ws.SetWriteDeadline(time.Now().Add(sc.cfg.WriteTimeout))
			_ = sc.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-sc.send:
			_ = sc.ws.SetWriteDeadline(time.Now().Add(sc.cfg.WriteTimeout))
			if err := sc.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("conn", sc.id).Msg("screen write failed")
				sc.stop()
				return
			}
		case <-ping.C:
			_ = sc.ws.SetWriteDeadline(time.Now().Add(sc.cfg.WriteTimeout))
			if err := sc.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				sc.stop()
				return
			}
		}
	}
}

// readPump blocks until the client goes away. Client messages are ignored.
func (sc *screenConn) readPump() {
	defer sc.stop()
	sc.ws.SetReadLimit(sc.cfg.MaxMessageSize)
	_ = sc.ws.SetReadDeadline(time.Now().Add(sc.cfg.ReadTimeout))
	sc.ws.SetPongHandler(func(string) error {
		return sc.ws.SetReadDeadline(time.Now().Add(sc.cfg.ReadTimeout))
	})
	for {
		if _, _, err := sc.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", sc.id).Msg("screen closed unexpectedly")
			}
			return
		}
		_ = sc.ws.SetReadDeadline(time.Now().Add(sc.cfg.ReadTimeout))
	}
}

func (sc *screenConn) stop() { sc.once.Do(func() { close(sc.done) }) }

// close stops the writer and closes the socket. Deferred teardown of the
// gate or ticker runs before it, so nothing is pushed afterwards.
func (sc *screenConn) close() {
	sc.stop()
	sc.wg.Wait()
	_ = sc.ws.Close()
	log.Debug().Str("conn", sc.id).Msg("screen disconnected")
}
