package dashboard

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/chart"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type overviewView struct {
	Snapshot     *Snapshot
	Chart        template.HTML
	Years        []int
	SelectedYear int
}

// Overview renders the landing view of /dashboard. The page then switches
// to the live websocket feed for refreshes.
func (h *Handler) Overview(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	year = ClampYear(year, h.svc.now())

	snap, err := h.svc.Snapshot(c.Request().Context(), year)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadGateway, apiclient.UserMessage(err))
	}

	ch, err := chart.MonthlyBar("Glucose Test Results", snap.Year, snap.Monthly)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render monthly chart")
	}

	return c.Render(http.StatusOK, "dashboard", overviewView{
		Snapshot:     snap,
		Chart:        ch,
		Years:        Years(h.svc.now()),
		SelectedYear: snap.Year,
	})
}

// SnapshotJSON serves the same data as the live feed for clients without
// websocket support.
func (h *Handler) SnapshotJSON(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	snap, err := h.svc.Snapshot(c.Request().Context(), year)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadGateway, apiclient.UserMessage(err))
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/snapshot", h.SnapshotJSON)
}
