package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCacheControl(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/static/css/app.css", "public, max-age=86400"},
		{"/custom-sw.js", "no-cache"},
		{"/dashboard", "no-store"},
		{"/dashboard/results/4/print", "no-store"},
		{"/login", "no-store"},
	}

	e := echo.New()
	mw := CacheControl(DefaultCacheConfig())
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := mw(func(c echo.Context) error { return nil })(c); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.path, err)
		}
		if got := rec.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("%s: Cache-Control = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCacheControl_CustomMaxAge(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/assets/logo.png", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := CacheControl(CacheConfig{StaticPrefixes: []string{"/assets/"}, MaxAge: 60})
	if err := mw(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Errorf("Cache-Control = %q", got)
	}
}
