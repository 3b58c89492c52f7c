package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1024
)

// DefaultRefresh is the snapshot push interval.
const DefaultRefresh = 3 * time.Second

// SnapshotFunc loads the dashboard data for year on behalf of the user whose
// token is carried in ctx.
type SnapshotFunc func(ctx context.Context, year int) (interface{}, error)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// LiveHandler serves GET /dashboard/live.
type LiveHandler struct {
	hub      *Hub
	snapshot SnapshotFunc
	interval time.Duration
	logger   zerolog.Logger
}

func NewLiveHandler(hub *Hub, snapshot SnapshotFunc, interval time.Duration, logger zerolog.Logger) *LiveHandler {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	return &LiveHandler{
		hub:      hub,
		snapshot: snapshot,
		interval: interval,
		logger:   logger.With().Str("component", "dashboard_live").Logger(),
	}
}

// RegisterRoutes mounts the endpoint on the authenticated dashboard group.
func (h *LiveHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/live", h.HandleConnect)
}

// HandleConnect upgrades the connection and blocks, pushing a snapshot
// every interval, until the client goes away.
func (h *LiveHandler) HandleConnect(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	if year <= 0 {
		year = time.Now().Year()
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an error response.
		return nil
	}

	client := NewClient(uuid.New().String(), year, TopicDashboard)
	h.hub.Register(client)
	h.logger.Debug().
		Str("client_id", client.ID).
		Int("year", year).
		Int("dashboard_clients", h.hub.TopicCount(TopicDashboard)).
		Msg("client connected")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go h.writePump(cancel, client, ws)
	go h.readPump(cancel, client, ws)

	h.refreshLoop(ctx, client)

	h.hub.Unregister(client)
	h.logger.Debug().Str("client_id", client.ID).Msg("client disconnected")
	return nil
}

// refreshLoop owns the client's Send channel until it returns.
func (h *LiveHandler) refreshLoop(ctx context.Context, client *Client) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.push(ctx, client)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-client.wake:
		}
		h.push(ctx, client)
	}
}

func (h *LiveHandler) push(ctx context.Context, client *Client) {
	ev := Event{Type: EventSnapshot, Topic: TopicDashboard, Timestamp: time.Now().UTC()}

	snap, err := h.snapshot(ctx, client.Year())
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("client_id", client.ID).Msg("snapshot failed")
		ev.Type = EventError
		ev.Message = "Failed to refresh dashboard data"
	} else if ev.Data, err = json.Marshal(snap); err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
		// Slow reader; it gets the next one.
	}
}

func (h *LiveHandler) readPump(cancel context.CancelFunc, client *Client, ws *gorillawebsocket.Conn) {
	defer cancel()

	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.hub.ProcessMessage(client, msg)
	}
}

// writePump is the only goroutine that writes to ws.
func (h *LiveHandler) writePump(cancel context.CancelFunc, client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
