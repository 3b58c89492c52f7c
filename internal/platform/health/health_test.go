package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakePinger) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestMonitor_StartsOnline(t *testing.T) {
	m := NewMonitor(&fakePinger{}, time.Second, zerolog.Nop())
	if !m.Online() {
		t.Error("expected monitor to start online")
	}
}

func TestMonitor_CheckTracksTransitions(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Second, zerolog.Nop())

	p.fail(errors.New("connection refused"))
	if m.Check(context.Background()) {
		t.Fatal("expected offline")
	}
	st := m.Status()
	if st.Online || st.Error != "connection refused" || st.LastCheck.IsZero() {
		t.Errorf("unexpected status %+v", st)
	}

	p.fail(nil)
	if !m.Check(context.Background()) {
		t.Fatal("expected online again")
	}
	if m.Status().Error != "" {
		t.Error("expected error to be cleared")
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if p.calls.Load() < 2 {
		t.Errorf("expected repeated pings, got %d", p.calls.Load())
	}
}

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health-check", nil)
	rec := httptest.NewRecorder()

	if err := HealthCheck()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "Oke" || body["version"] != "1.0.0" {
		t.Errorf("unexpected body %v", body)
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
		t.Errorf("timestamp not RFC3339: %q", body["timestamp"])
	}
}

func TestBackendStatus(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Second, zerolog.Nop())
	p.fail(errors.New("down"))
	m.Check(context.Background())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/backend-status", nil), rec)
	if err := BackendStatus(m, nil)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestBackendStatus_ReportsLiveClients(t *testing.T) {
	m := NewMonitor(&fakePinger{}, time.Second, zerolog.Nop())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/backend-status", nil), rec)
	if err := BackendStatus(m, func() int { return 3 })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"online":true`) || !strings.Contains(body, `"live_clients":3`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestRedirectWhenOffline(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, time.Second, zerolog.Nop())
	e := echo.New()
	next := func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil), rec)
	if err := RedirectWhenOffline(m)(next)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("online: expected 200, got %d", rec.Code)
	}

	p.fail(errors.New("down"))
	m.Check(context.Background())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil), rec)
	if err := RedirectWhenOffline(m)(next)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != OfflinePath {
		t.Errorf("offline: expected redirect to %s, got %d %q", OfflinePath, rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}
