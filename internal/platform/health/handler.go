package health

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// OfflinePath is where browsers are sent while the backend is down.
const OfflinePath = "/offline"

// HealthCheck answers GET /api/health-check. It reports this process, not
// the backend.
func HealthCheck() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "Oke",
			"version":   Version,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		})
	}
}

type backendStatus struct {
	Status
	LiveClients *int `json:"live_clients,omitempty"`
}

// BackendStatus answers GET /api/backend-status with the monitor's view of
// the backend, 503 while it is unreachable. The offline page polls it.
// liveClients, when set, reports the open live dashboard connections.
func BackendStatus(m *Monitor, liveClients func() int) echo.HandlerFunc {
	return func(c echo.Context) error {
		st := backendStatus{Status: m.Status()}
		if liveClients != nil {
			n := liveClients()
			st.LiveClients = &n
		}
		code := http.StatusOK
		if !st.Online {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, st)
	}
}

// RedirectWhenOffline sends requests to OfflinePath while the monitor
// reports the backend as unreachable. WebSocket upgrades are left alone.
func RedirectWhenOffline(m *Monitor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.Online() || strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket") {
				return next(c)
			}
			return c.Redirect(http.StatusSeeOther, OfflinePath)
		}
	}
}
