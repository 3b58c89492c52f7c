package setting

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
)

// MenuKey selects the general settings view on /dashboard.
const MenuKey = "settings_general"

const pagePath = "/dashboard?menu=" + MenuKey

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/settings/:id", h.Update)
}

type pageView struct {
	Setting *Setting
	Form    Form
	Errors  validation.FieldErrors
	Error   string
}

// Page renders the setting form. A failed fetch still shows an empty form.
func (h *Handler) Page(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return c.Render(http.StatusOK, "settings", pageView{Setting: &Setting{}, Error: apiclient.UserMessage(err)})
	}
	return c.Render(http.StatusOK, "settings", pageView{Setting: s, Form: FormFrom(s)})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid setting id")
	}
	var f Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	validation.TrimStrings(&f)
	if err := c.Validate(&f); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return c.Render(http.StatusUnprocessableEntity, "settings", pageView{
				Setting: &Setting{ID: apiclient.FlexInt(id)},
				Form:    f,
				Errors:  fe,
			})
		}
		return err
	}

	if err := h.svc.Update(c.Request().Context(), id, &f); err != nil {
		return h.sessions.RedirectWithError(c, err, "Error updating setting", pagePath)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashUpdate, "Setting updated successfully", pagePath)
}
