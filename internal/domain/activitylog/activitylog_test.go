package activitylog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type stubRepo struct {
	entries []Entry
	last    Params
	err     error
}

func (s *stubRepo) List(_ context.Context, p Params) ([]Entry, int, error) {
	s.last = p
	return s.entries, len(s.entries), s.err
}

type captureRenderer struct {
	name string
	data interface{}
}

func (r *captureRenderer) Render(_ io.Writer, name string, data interface{}, _ echo.Context) error {
	r.name, r.data = name, data
	return nil
}

func TestEntry_Classes(t *testing.T) {
	tests := []struct {
		code, method string
		status, mcls string
	}{
		{"200", "get", "success", "info"},
		{"422", "POST", "warning", "success"},
		{"500", "DELETE", "danger", "danger"},
		{"abc", "OPTIONS", "neutral", "neutral"},
	}
	for _, tt := range tests {
		e := Entry{StatusCode: apiclient.FlexString(tt.code), Method: tt.method}
		if e.StatusClass() != tt.status || e.MethodClass() != tt.mcls {
			t.Errorf("%s %s: got %s %s", tt.code, tt.method, e.StatusClass(), e.MethodClass())
		}
	}
}

func TestEntry_Matches(t *testing.T) {
	e := Entry{Name: "Analis", Method: "PUT", Endpoint: "/api/test-glucosa/1/validation", IPAddress: "10.0.0.2", CreatedAt: "2024-06-15T01:00:00Z"}
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	if !e.Matches(Params{Params: pagination.Params{Search: "validation"}, Date: day}) {
		t.Error("expected match on endpoint and WIB date")
	}
	if e.Matches(Params{Params: pagination.Params{Search: "delete"}}) {
		t.Error("unexpected match")
	}
	if e.Matches(Params{Date: day.AddDate(0, 0, 1)}) {
		t.Error("unexpected date match")
	}
	if e.When() != "15/06/2024 08:00:00" {
		t.Errorf("When = %q", e.When())
	}
}

func TestParams_Query(t *testing.T) {
	p := Params{Params: pagination.Params{Page: 2, Limit: 25}, Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)}
	if got := p.Query().Encode(); got != "created_at=2024-06-15&limit=25&page=2" {
		t.Errorf("Query = %s", got)
	}
}

func TestPage(t *testing.T) {
	repo := &stubRepo{entries: []Entry{
		{Method: "GET", Endpoint: "/api/patients", CreatedAt: "2024-06-15 08:00:00"},
		{Method: "POST", Endpoint: "/auth/login", CreatedAt: "2024-06-15 09:00:00"},
	}}
	e := echo.New()
	r := &captureRenderer{}
	e.Renderer = r
	h := NewHandler(NewService(repo), zerolog.Nop())
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=activity_log&search=login", nil), httptest.NewRecorder())

	if err := h.Page(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(pageView)
	if r.name != "activity_log" || len(v.Items) != 1 || v.Items[0].Endpoint != "/auth/login" {
		t.Errorf("unexpected view %+v", v)
	}
	if repo.last.Search != "login" || v.Filters["search"] != "login" {
		t.Errorf("search not passed: %+v", repo.last)
	}
}

func TestService_ListRefilters(t *testing.T) {
	repo := &stubRepo{entries: []Entry{
		{Method: "GET", Endpoint: "/api/patients", CreatedAt: "2024-06-15T01:00:00Z"},
		{Method: "PUT", Endpoint: "/api/patients/3", CreatedAt: "2024-06-16T01:00:00Z"},
		{Method: "POST", Endpoint: "/auth/login", CreatedAt: "2024-06-15T02:00:00Z"},
	}}
	svc := NewService(repo)
	p := Params{Params: pagination.Params{Page: 1, Limit: 10, Search: "patients"}, Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)}

	items, total, err := svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Endpoint != "/api/patients" {
		t.Errorf("unexpected items %+v", items)
	}
	if total != 3 {
		t.Errorf("total = %d, want the backend total", total)
	}
	if repo.last.Search != "patients" {
		t.Errorf("filters not forwarded: %+v", repo.last)
	}
}

func TestService_ListError(t *testing.T) {
	svc := NewService(&stubRepo{err: apiclient.ErrUnauthorized})
	if _, _, err := svc.List(context.Background(), Params{}); err != apiclient.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
