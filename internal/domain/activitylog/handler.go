package activitylog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type pageView struct {
	Items   []Entry
	Filters map[string]string
	Pager   pagination.View
	Error   string
}

func (h *Handler) Page(c echo.Context) error {
	dates := pagination.DatesFromContext(c)
	p := Params{Params: pagination.FromContext(c), Date: dates.Single}

	v := pageView{Filters: map[string]string{"search": p.Search, "date": dates.Form()["date"]}}
	entries, total, err := h.svc.List(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		h.logger.Error().Err(err).Msg("failed to fetch activity logs")
		v.Error = "Error loading activity logs"
	}
	v.Items = entries
	v.Pager = pagination.NewView("/dashboard", c.QueryParams(), p.Params, total)
	return c.Render(http.StatusOK, "activity_log", v)
}
