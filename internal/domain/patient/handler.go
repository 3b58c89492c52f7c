package patient

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/chart"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// MenuKey selects the patients view on /dashboard.
const MenuKey = "patients"

const listPath = "/dashboard?menu=" + MenuKey

type Handler struct {
	svc      *Service
	sessions *session.Manager
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHandler(svc *Service, sessions *session.Manager, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/search", h.Search)
	g.POST("/patients", h.Create)
	g.POST("/patients/:id", h.Update)
	g.POST("/patients/:id/delete", h.Delete)
}

type listView struct {
	Items  []Patient
	Search string
	Pager  pagination.View
}

type detailView struct {
	Patient *Patient
	Age     string
	Barcode template.URL
	Results []result.GlucoseTest
	Filters map[string]string
	Pager   pagination.View
	Chart   template.HTML
	Error   string
}

type formView struct {
	ID      int
	Edit    bool
	Form    Form
	Errors  validation.FieldErrors
	Genders []string
}

// Page dispatches between the list, the detail view and the forms.
func (h *Handler) Page(c echo.Context) error {
	idParam := c.QueryParam("id")
	switch c.QueryParam("action") {
	case "new":
		return c.Render(http.StatusOK, "patient_form", formView{Genders: Genders})
	case "edit":
		return h.editForm(c, idParam)
	}
	if idParam != "" {
		return h.detail(c, idParam)
	}
	return h.list(c)
}

func (h *Handler) list(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "patients", listView{
		Items:  items,
		Search: p.Search,
		Pager:  pagination.NewView("/dashboard", c.QueryParams(), p, total),
	})
}

func (h *Handler) editForm(c echo.Context, idParam string) error {
	id, err := strconv.Atoi(idParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "patient_form", formView{ID: id, Edit: true, Form: FormFrom(p), Genders: Genders})
}

func (h *Handler) detail(c echo.Context, idParam string) error {
	id, err := strconv.Atoi(idParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	v := detailView{Patient: p, Age: p.Age(h.now())}
	if code := p.PatientCode.String(); code != "" {
		if img, err := labreport.BarcodeDataURI(code, 300, 80); err == nil {
			v.Barcode = img
		}
	}

	hp := result.HistoryParams{
		Params:    pagination.FromContext(c),
		LabNumber: c.QueryParam("lab_number"),
		Dates:     pagination.DatesFromContext(c),
	}
	v.Filters = hp.Dates.Form()
	v.Filters["lab_number"] = hp.LabNumber

	res, err := h.svc.Results(ctx, id, hp)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		v.Error = "Failed to fetch glucose tests."
		v.Pager = pagination.NewView("/dashboard", c.QueryParams(), hp.Params, 0)
		return c.Render(http.StatusOK, "patient_detail", v)
	}

	v.Results = res.Items
	v.Pager = pagination.NewView("/dashboard", c.QueryParams(), hp.Params, res.Count(hp.Searching()))
	v.Chart, err = chart.History("Glucose", labreport.DefaultUnit, HistoryPoints(res.Items), labreport.GlucoseLow, labreport.GlucoseHigh)
	if err != nil {
		h.logger.Error().Err(err).Int("patient_id", id).Msg("failed to render glucose history chart")
	}
	return c.Render(http.StatusOK, "patient_detail", v)
}

// bindForm binds and validates the patient form. ok is false when the
// response has already been written.
func (h *Handler) bindForm(c echo.Context, id int) (*Form, bool, error) {
	var f Form
	if err := c.Bind(&f); err != nil {
		return nil, false, echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	validation.TrimStrings(&f)
	if err := c.Validate(&f); err != nil {
		var fe validation.FieldErrors
		if !errors.As(err, &fe) {
			return nil, false, err
		}
		return nil, false, c.Render(http.StatusUnprocessableEntity, "patient_form", formView{
			ID: id, Edit: id != 0, Form: f, Errors: fe, Genders: Genders,
		})
	}
	return &f, true, nil
}

func (h *Handler) Create(c echo.Context) error {
	f, ok, err := h.bindForm(c, 0)
	if !ok {
		return err
	}
	if err := h.svc.Create(c.Request().Context(), f); err != nil {
		return h.sessions.RedirectWithError(c, err, "Something went wrong", listPath+"&action=new")
	}
	return h.sessions.RedirectWithFlash(c, session.FlashAdd, "Patient added successfully!", listPath)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	f, ok, err := h.bindForm(c, id)
	if !ok {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), id, f); err != nil {
		return h.sessions.RedirectWithError(c, err, "Error updating patient", listPath)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashUpdate, "Patient updated successfully", listPath)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.sessions.RedirectWithError(c, err, "Failed to delete patient", listPath)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashDelete, "Patient deleted successfully!", listPath)
}

// Search answers the lab-order form's patient picker.
func (h *Handler) Search(c echo.Context) error {
	hits, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to search patients. Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patients": hits})
}
