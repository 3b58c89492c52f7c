package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

type Handler struct {
	svc      *Service
	sessions *session.Manager
	logger   zerolog.Logger
}

func NewHandler(svc *Service, sessions *session.Manager, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the login and logout pages. loginLimit guards the
// credential check against brute force.
func (h *Handler) RegisterRoutes(e *echo.Echo, loginLimit echo.MiddlewareFunc) {
	e.GET(session.LoginPath, h.LoginPage)
	if loginLimit != nil {
		e.POST(session.LoginPath, h.Login, loginLimit)
	} else {
		e.POST(session.LoginPath, h.Login)
	}
	e.POST("/logout", h.Logout)
}

type loginView struct {
	Email    string
	Remember bool
	Errors   validation.FieldErrors
	Error    string
}

func (h *Handler) LoginPage(c echo.Context) error {
	if _, ok := h.sessions.Token(c); ok {
		return c.Redirect(http.StatusSeeOther, DashboardPath)
	}
	email := h.sessions.RememberedEmail(c)
	return c.Render(http.StatusOK, "login", loginView{Email: email, Remember: email != ""})
}

func (h *Handler) Login(c echo.Context) error {
	var cr Credentials
	if err := c.Bind(&cr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	validation.TrimStrings(&cr)
	if err := c.Validate(&cr); err != nil {
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			return err
		}
		return c.Render(http.StatusUnprocessableEntity, "login", loginView{Email: cr.Email, Remember: cr.Remember, Errors: fe})
	}

	token, err := h.svc.Login(c.Request().Context(), &cr)
	if err != nil {
		var rej *RejectedError
		if !errors.As(err, &rej) {
			h.logger.Error().Err(err).Msg("login request failed")
			return c.Render(http.StatusBadGateway, "login", loginView{Email: cr.Email, Remember: cr.Remember, Error: "Login Failed"})
		}
		h.logger.Info().Str("email", cr.Email).Msg("login rejected")
		return c.Render(http.StatusUnauthorized, "login", loginView{Email: cr.Email, Remember: cr.Remember, Error: rej.Message})
	}

	h.sessions.SetToken(c, token, cr.Remember)
	if cr.Remember {
		if err := h.sessions.SetRememberedEmail(c, cr.Email); err != nil {
			h.logger.Warn().Err(err).Msg("failed to remember login email")
		}
	} else {
		h.sessions.ForgetEmail(c)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashSuccess, "Login Successful!", DashboardPath)
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return h.sessions.RedirectWithFlash(c, session.FlashSuccess, "Logout Successfull..!", session.LoginPath)
}

// ShellMiddleware verifies the session against the backend on every
// dashboard request. Page loads also get the full Shell under "shell";
// mutations only need the user name for audit and validation records.
func (h *Handler) ShellMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if c.Request().Method != http.MethodGet || c.Path() != DashboardPath {
				id, err := h.svc.Identity(ctx)
				if err != nil {
					return err
				}
				c.Set("user_name", id.Name)
				return next(c)
			}
			sh, err := h.svc.Shell(ctx)
			if err != nil {
				return err
			}
			c.Set("user_name", sh.UserName)
			c.Set("shell", sh)
			return next(c)
		}
	}
}
