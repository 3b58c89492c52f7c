package account

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

const listPath = "/dashboard?menu=" + MenuList

type Handler struct {
	svc      *Service
	sessions *session.Manager
	logger   zerolog.Logger
}

func NewHandler(svc *Service, sessions *session.Manager, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/accounts", h.Create)
	g.POST("/accounts/:id", h.Update)
	g.POST("/accounts/:id/delete", h.Delete)
}

type listView struct {
	Items  []Account
	Search string
	Pager  pagination.View
}

type formView struct {
	ID     int
	Edit   bool
	Form   interface{}
	Roles  []Role
	Errors validation.FieldErrors
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "accounts", listView{
		Items:  items,
		Search: p.Search,
		Pager:  pagination.NewView("/dashboard", c.QueryParams(), p, total),
	})
}

func (h *Handler) Detail(c echo.Context) error {
	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "account_detail", a)
}

// roles loads the role picker. A failure leaves it empty rather than
// failing the form.
func (h *Handler) roles(c echo.Context) ([]Role, error) {
	roles, err := h.svc.Roles(c.Request().Context())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, err
		}
		h.logger.Warn().Err(err).Msg("failed to fetch roles")
		return []Role{}, nil
	}
	return roles, nil
}

func (h *Handler) CreateForm(c echo.Context) error {
	roles, err := h.roles(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "account_form", formView{Form: CreateForm{}, Roles: roles})
}

func (h *Handler) EditForm(c echo.Context) error {
	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			return h.sessions.RedirectWithFlash(c, session.FlashError, "User not found", listPath)
		}
		return err
	}
	roles, err := h.roles(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "account_form", formView{ID: id, Edit: true, Form: EditFormFrom(a), Roles: roles})
}

// invalid re-renders the form with its field errors. ok is false when the
// form passed validation.
func (h *Handler) invalid(c echo.Context, id int, form interface{}) (bool, error) {
	err := c.Validate(form)
	if err == nil {
		return false, nil
	}
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		return true, err
	}
	roles, rerr := h.roles(c)
	if rerr != nil {
		return true, rerr
	}
	// Forms are rendered by value; passwords are never echoed back.
	var v interface{}
	switch f := form.(type) {
	case *CreateForm:
		cp := *f
		cp.Password = ""
		v = cp
	case *EditForm:
		cp := *f
		cp.Password = ""
		v = cp
	}
	return true, c.Render(http.StatusUnprocessableEntity, "account_form", formView{
		ID: id, Edit: id != 0, Form: v, Roles: roles, Errors: fe,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var f CreateForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	validation.TrimStrings(&f)
	if done, err := h.invalid(c, 0, &f); done {
		return err
	}
	if err := h.svc.Create(c.Request().Context(), &f); err != nil {
		return h.sessions.RedirectWithError(c, err, "An error occurred while creating the user.", "/dashboard?menu="+MenuCreate)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashAdd, "Add Users Successfull!", listPath)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	var f EditForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form data")
	}
	validation.TrimStrings(&f)
	// A blank password keeps the current one.
	if strings.TrimSpace(f.Password) == "" {
		f.Password = ""
	}
	if done, err := h.invalid(c, id, &f); done {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), id, &f); err != nil {
		return h.sessions.RedirectWithError(c, err, "An error occurred while updating the user.", "/dashboard?menu="+MenuEdit+"&id="+strconv.Itoa(id))
	}
	return h.sessions.RedirectWithFlash(c, session.FlashUpdate, "User updated successfully!", listPath)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.sessions.RedirectWithError(c, err, "Failed to delete user", listPath)
	}
	return h.sessions.RedirectWithFlash(c, session.FlashDelete, "User deleted successfully!", listPath)
}
