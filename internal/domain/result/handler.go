package result

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// MenuKey selects the results view on /dashboard.
const MenuKey = "results"

const listPath = "/dashboard?menu=" + MenuKey

type Handler struct {
	svc      *Service
	sessions *session.Manager
	logger   zerolog.Logger
}

func NewHandler(svc *Service, sessions *session.Manager, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/results/:id/validate", h.Validate)
	g.GET("/results/:id/print", h.Print)
	g.POST("/notifications/:id/open", h.OpenNotification)
}

type listView struct {
	Items      []GlucoseTest
	Params     ListParams
	Filters    map[string]string
	Pager      pagination.View
	ReturnURL  string
	Validation string
}

// ParamsFromContext reads the results list filters.
func ParamsFromContext(c echo.Context) ListParams {
	v := c.QueryParam("is_validation")
	if v != FilterUnvalidated && v != FilterValidated {
		v = ""
	}
	return ListParams{
		Params:     pagination.FromContext(c),
		Dates:      pagination.DatesFromContext(c),
		Validation: v,
	}
}

func (h *Handler) Page(c echo.Context) error {
	p := ParamsFromContext(c)
	res, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}

	filters := p.Dates.Form()
	filters["search"] = p.Search
	filters["is_validation"] = p.Validation

	return c.Render(http.StatusOK, "results", listView{
		Items:      res.Items,
		Params:     p,
		Filters:    filters,
		Pager:      pagination.NewView("/dashboard", c.QueryParams(), p.Params, res.Count(p.Searching())),
		ReturnURL:  c.Request().URL.RequestURI(),
		Validation: p.Validation,
	})
}

// safeReturn keeps post-action redirects on the dashboard.
func safeReturn(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || strings.HasPrefix(raw, "//") || !strings.HasPrefix(u.Path, "/dashboard") {
		return listPath
	}
	return u.RequestURI()
}

func userName(c echo.Context) string {
	name, _ := c.Get("user_name").(string)
	return name
}

func (h *Handler) Validate(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	back := safeReturn(c.FormValue("return"))
	labNumber := strings.TrimSpace(c.FormValue("lab_number"))

	row, err := h.svc.Validate(c.Request().Context(), id, labNumber, userName(c))
	switch {
	case errors.Is(err, ErrAlreadyValidated):
		return h.sessions.RedirectWithFlash(c, session.FlashError, "Result has already been validated", back)
	case errors.Is(err, ErrNotFound):
		return h.sessions.RedirectWithFlash(c, session.FlashError, "Result not found", back)
	case err != nil:
		h.logger.Error().Err(err).Int("result_id", id).Msg("failed to validate result")
		return h.sessions.RedirectWithError(c, err, "Failed to validate data", back)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashSuccess, validatedMessage(row), back)
}

func validatedMessage(row *GlucoseTest) string {
	if row.UserValidation == "" {
		return "Result " + row.LabNumber + " validated"
	}
	return "Result " + row.LabNumber + " validated by " + row.UserValidation
}

// Print answers with a standalone report page that opens the print dialog.
func (h *Handler) Print(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	html, err := h.svc.Print(c.Request().Context(), id, strings.TrimSpace(c.QueryParam("lab_number")), userName(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Result not found")
		}
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, html)
}

// OpenNotification marks the result seen and shows it in the results list.
// A failure to mark it is logged; the user is taken to the result anyway.
func (h *Handler) OpenNotification(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	if err := h.svc.OpenNotification(c.Request().Context(), id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		h.logger.Warn().Err(err).Int("result_id", id).Msg("failed to mark result seen")
	}
	target := pagination.Link("/dashboard", nil, map[string]string{
		"menu":   MenuKey,
		"search": strings.TrimSpace(c.FormValue("patient_code")),
		"page":   "1",
		"limit":  strconv.Itoa(pagination.DefaultLimit),
	})
	return c.Redirect(http.StatusSeeOther, target)
}
