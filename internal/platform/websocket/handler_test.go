package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type snapshotStub struct {
	Year int `json:"year"`
}

func startLiveServer(t *testing.T, fn SnapshotFunc) (*Hub, string, func()) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	h := NewLiveHandler(hub, fn, 20*time.Millisecond, zerolog.Nop())

	e := echo.New()
	h.RegisterRoutes(e.Group("/dashboard"))
	srv := httptest.NewServer(e)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/dashboard/live"
	return hub, url, srv.Close
}

func TestLiveHandler_RegisterRoutes(t *testing.T) {
	e := echo.New()
	NewLiveHandler(NewHub(zerolog.Nop()), nil, 0, zerolog.Nop()).RegisterRoutes(e.Group("/dashboard"))

	for _, r := range e.Routes() {
		if r.Path == "/dashboard/live" && r.Method == http.MethodGet {
			return
		}
	}
	t.Fatal("expected GET /dashboard/live to be registered")
}

func TestLiveHandler_RejectsPlainHTTP(t *testing.T) {
	e := echo.New()
	h := NewLiveHandler(NewHub(zerolog.Nop()), nil, 0, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard/live", nil), rec)

	if err := h.HandleConnect(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 from upgrader, got %d", rec.Code)
	}
}

func TestLiveHandler_PushesSnapshots(t *testing.T) {
	var calls atomic.Int32
	hub, url, stop := startLiveServer(t, func(ctx context.Context, year int) (interface{}, error) {
		calls.Add(1)
		return snapshotStub{Year: year}, nil
	})
	defer stop()

	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url+"?year=2024", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventSnapshot || !strings.Contains(string(ev.Data), `"year":2024`) {
		t.Errorf("unexpected first event %+v", ev)
	}

	if err := conn.WriteJSON(ClientMessage{Action: "year", Year: 2025}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.Contains(string(ev.Data), `"year":2025`) {
			break
		}
	}
	if !strings.Contains(string(ev.Data), `"year":2025`) {
		t.Fatal("expected a snapshot for the new year")
	}
	if hub.TopicCount(TopicDashboard) != 1 {
		t.Errorf("expected client on dashboard topic, got %d", hub.TopicCount(TopicDashboard))
	}
	if calls.Load() < 2 {
		t.Errorf("expected repeated snapshots, got %d", calls.Load())
	}
}

func TestLiveHandler_ErrorEvent(t *testing.T) {
	_, url, stop := startLiveServer(t, func(context.Context, int) (interface{}, error) {
		return nil, errors.New("backend down")
	})
	defer stop()

	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != EventError || ev.Message == "" {
		t.Errorf("expected error event, got %+v", ev)
	}
}

func TestLiveHandler_StopsOnDisconnect(t *testing.T) {
	hub, url, stop := startLiveServer(t, func(_ context.Context, year int) (interface{}, error) {
		return snapshotStub{Year: year}, nil
	})
	defer stop()

	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Error("expected client to be unregistered after disconnect")
	}
}

func TestSameOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://cosa.local/dashboard/live", nil)
	if !sameOrigin(req) {
		t.Error("missing Origin should be accepted")
	}
	req.Header.Set("Origin", "http://cosa.local")
	if !sameOrigin(req) {
		t.Error("same host should be accepted")
	}
	req.Header.Set("Origin", "http://evil.example")
	if sameOrigin(req) {
		t.Error("foreign origin should be rejected")
	}
}
