package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
)

type errorView struct {
	Code    int
	Message string
	Back    string
}

// HTTPErrorHandler maps handler errors to responses. An authentication
// failure from the backend ends the session and sends the browser to the
// login page; everything else becomes an error page, or JSON for API and
// XHR callers.
func HTTPErrorHandler(sessions *session.Manager, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if errors.Is(err, apiclient.ErrUnauthorized) {
			sessions.Clear(c)
			if wantsJSON(c) {
				_ = c.JSON(http.StatusUnauthorized, map[string]string{"message": apiclient.UserMessage(err)})
				return
			}
			sessions.SetFlash(c, session.FlashError, "Session expired. Please login again.")
			_ = c.Redirect(http.StatusSeeOther, session.LoginPath)
			return
		}

		code, msg := classify(err)
		evt := logger.Warn()
		if code >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		rid, _ := c.Get("request_id").(string)
		evt.Err(err).
			Str("request_id", rid).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if wantsJSON(c) {
			_ = c.JSON(code, map[string]string{"message": msg})
			return
		}
		if rerr := c.Render(code, "error", errorView{Code: code, Message: msg, Back: "/dashboard"}); rerr != nil {
			_ = c.String(code, msg)
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case apiclient.KindNotFound:
			return http.StatusNotFound, apiErr.Message
		case apiclient.KindValidation:
			return http.StatusUnprocessableEntity, apiErr.Message
		case apiclient.KindTimeout:
			return http.StatusGatewayTimeout, apiErr.Message
		}
		return http.StatusBadGateway, apiclient.UserMessage(err)
	}
	return http.StatusInternalServerError, "An unexpected error occurred. Please try again."
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.URL.Path, "/api/") {
		return true
	}
	if req.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := req.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
