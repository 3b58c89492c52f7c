package laborder

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/domain/patient"
	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/chart"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// MenuKey selects the lab orders view on /dashboard.
const MenuKey = "lab-orders"

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
	g.POST("/lab-orders", h.Create)
	g.POST("/lab-orders/:id", h.Update)
}

type listView struct {
	Items   []LabOrder
	Filters map[string]string
	Pager   pagination.View
	Summary string
	Error   string
}

type detailView struct {
	Order   *LabOrder
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

// ParamsFromContext reads the lab-order list filters.
func ParamsFromContext(c echo.Context) ListParams {
	v := c.QueryParam("is_order")
	if v != FilterNotOrdered && v != FilterOrdered {
		v = ""
	}
	return ListParams{
		Params:  pagination.FromContext(c),
		Dates:   pagination.DatesFromContext(c),
		IsOrder: v,
	}
}

func (h *Handler) Page(c echo.Context) error {
	idParam := c.QueryParam("id")
	switch c.QueryParam("action") {
	case "new":
		return c.Render(http.StatusOK, "lab_order_form", formView{Genders: patient.Genders})
	case "edit":
		id, err := strconv.Atoi(idParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lab order id")
		}
		o, err := h.svc.Get(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.Render(http.StatusOK, "lab_order_form", formView{ID: id, Edit: true, Form: FormFrom(o), Genders: patient.Genders})
	}
	if idParam != "" {
		return h.detail(c, idParam)
	}
	return h.list(c)
}

func (h *Handler) list(c echo.Context) error {
	p := ParamsFromContext(c)
	var errMsg string
	res, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		h.logger.Error().Err(err).Msg("failed to fetch lab orders")
		res = &ListResult{}
		errMsg = "Failed to fetch lab orders data"
	}

	filters := p.Dates.Form()
	filters["search"] = p.Search
	filters["is_order"] = p.IsOrder
	v := listView{
		Items:   res.Items,
		Filters: filters,
		Pager:   pagination.NewView("/dashboard", c.QueryParams(), p.Params, res.Count(p.Searching())),
		Error:   errMsg,
	}
	if p.Searching() {
		v.Summary = "Total Hasil Pencarian: " + strconv.Itoa(res.Filtered) + " dari " + strconv.Itoa(res.Total) + " data"
	}
	return c.Render(http.StatusOK, "lab_orders", v)
}

func (h *Handler) detail(c echo.Context, idParam string) error {
	id, err := strconv.Atoi(idParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lab order id")
	}
	ctx := c.Request().Context()
	o, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	v := detailView{Order: o, Age: labreport.AgeString(o.DateOfBirth, h.now())}
	if code := o.Barcode.String(); code != "" {
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

	res, err := h.svc.Results(ctx, o, hp)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		v.Error = "Failed to fetch glucose tests."
		v.Pager = pagination.NewView("/dashboard", c.QueryParams(), hp.Params, 0)
		return c.Render(http.StatusOK, "lab_order_detail", v)
	}
	v.Results = res.Items
	v.Pager = pagination.NewView("/dashboard", c.QueryParams(), hp.Params, res.Filtered)
	v.Chart, err = chart.History("Glucose", labreport.DefaultUnit, patient.HistoryPoints(res.Items), labreport.GlucoseLow, labreport.GlucoseHigh)
	if err != nil {
		h.logger.Error().Err(err).Int("lab_order_id", id).Msg("failed to render glucose history chart")
	}
	return c.Render(http.StatusOK, "lab_order_detail", v)
}

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
		return nil, false, c.Render(http.StatusUnprocessableEntity, "lab_order_form", formView{
			ID: id, Edit: id != 0, Form: f, Errors: fe, Genders: patient.Genders,
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
	return h.sessions.RedirectWithFlash(c, session.FlashAdd, "Lab order added successfully!", listPath)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lab order id")
	}
	f, ok, err := h.bindForm(c, id)
	if !ok {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), id, f); err != nil {
		return h.sessions.RedirectWithError(c, err, "Error updating lab order", listPath)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashUpdate, "Lab order updated successfully", listPath)
}
