package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheConfig controls the Cache-Control header per path.
type CacheConfig struct {
	// StaticPrefixes are served with a public max-age.
	StaticPrefixes []string
	// MaxAge is the max-age in seconds for static assets.
	MaxAge int
	// RevalidatePaths must be revalidated on every load (service worker).
	RevalidatePaths []string
}

// DefaultCacheConfig caches /static for a day and always revalidates the
// service worker.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		StaticPrefixes:  []string{"/static/"},
		MaxAge:          86400,
		RevalidatePaths: []string{"/custom-sw.js"},
	}
}

// CacheControl sets Cache-Control: static assets are cacheable, the service
// worker is revalidated and every other response, which may carry patient
// data, is no-store.
func CacheControl(cfg CacheConfig) echo.MiddlewareFunc {
	static := "public, max-age=" + strconv.Itoa(cfg.MaxAge)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			h := c.Response().Header()

			switch {
			case hasAnyPrefix(path, cfg.StaticPrefixes):
				h.Set("Cache-Control", static)
			case contains(cfg.RevalidatePaths, path):
				h.Set("Cache-Control", "no-cache")
			default:
				h.Set("Cache-Control", "no-store")
			}
			return next(c)
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
