package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

// Flash kinds mirror the toast variants shown after an action.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashAdd     = "add"
	FlashUpdate  = "update"
	FlashDelete  = "delete"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash stores a message that survives exactly one redirect.
func (m *Manager) SetFlash(c echo.Context, kind, message string) {
	encoded, err := m.codec.Encode(flashCookie, Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending message, if any, and deletes it.
func (m *Manager) PopFlash(c echo.Context) *Flash {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	var f Flash
	if err := m.codec.Decode(flashCookie, ck.Value, &f); err != nil {
		return nil
	}
	return &f
}

// RedirectWithFlash stores a flash and answers with a 303 to target.
func (m *Manager) RedirectWithFlash(c echo.Context, kind, message, target string) error {
	m.SetFlash(c, kind, message)
	return c.Redirect(http.StatusSeeOther, target)
}

// RedirectWithError flashes a displayable message for err and redirects to
// target. Authentication failures are returned unchanged so the error
// handler can end the session.
func (m *Manager) RedirectWithError(c echo.Context, err error, fallback, target string) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	msg := fallback
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	if msg == "" {
		msg = apiclient.UserMessage(err)
	}
	return m.RedirectWithFlash(c, FlashError, msg, target)
}
