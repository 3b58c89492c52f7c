package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fanscosa/cosa-web/internal/platform/health"
)

//go:embed static
var staticFS embed.FS

// RegisterStatic serves the embedded assets, the service worker and the
// offline page. None of them need a session.
func RegisterStatic(e *echo.Echo) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	assets := http.FileServer(http.FS(sub))
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", assets)))
	e.GET("/custom-sw.js", serviceWorker)
	e.GET(health.OfflinePath, Offline)
}

func serviceWorker(c echo.Context) error {
	b, err := staticFS.ReadFile("static/custom-sw.js")
	if err != nil {
		return err
	}
	c.Response().Header().Set("Service-Worker-Allowed", "/")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", b)
}

// Offline is shown while the backend cannot be reached. The page polls
// /api/backend-status and returns to the dashboard once it answers.
func Offline(c echo.Context) error {
	return c.Render(http.StatusOK, "offline", nil)
}
