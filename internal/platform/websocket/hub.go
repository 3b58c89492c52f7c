// Package websocket pushes live dashboard data to browsers. The Hub tracks
// connected clients and their topic subscriptions; LiveHandler upgrades
// /dashboard/live and runs one refresh loop per connection.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TopicDashboard is joined by every live dashboard connection.
const TopicDashboard = "dashboard"

// Event types sent to clients.
const (
	EventSnapshot        = "snapshot"
	EventError           = "error"
	EventResultValidated = "result.validated"
	EventNewResults      = "results.new"
	EventActivity        = "dashboard.activity"
)

// Event is one message sent to a WebSocket client.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound message from a client. "year" switches the
// chart year and triggers an immediate refresh.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics,omitempty"`
	Year   int      `json:"year,omitempty"`
}

// EventPublisher is how other packages notify live dashboards.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is a single WebSocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte

	mu   sync.Mutex
	year int
	wake chan struct{}
}

// NewClient returns a client showing year, joined to topics.
func NewClient(id string, year int, topics ...string) *Client {
	return &Client{
		ID:     id,
		Topics: topics,
		Send:   make(chan []byte, 16),
		year:   year,
		wake:   make(chan struct{}, 1),
	}
}

func (c *Client) Year() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year
}

// SetYear changes the year and asks the refresh loop to run now.
func (c *Client) SetYear(y int) {
	c.mu.Lock()
	c.year = y
	c.mu.Unlock()
	c.Wake()
}

// Wake schedules an immediate refresh. Repeated calls coalesce.
func (c *Client) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Hub tracks clients and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> clients
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger.With().Str("component", "websocket").Logger(),
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to a registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
	client.Topics = append(client.Topics, topics...)
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
		if subscribers, ok := h.clients[t]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, t)
			}
		}
	}

	remaining := client.Topics[:0]
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

// ProcessMessage dispatches an inbound client message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	case "year":
		if msg.Year > 0 {
			client.SetYear(msg.Year)
		}
	case "refresh":
		client.Wake()
	}
}

// Broadcast sends an event to every client subscribed to topic. Clients
// whose buffer is full miss the event.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Publish broadcasts event to its topic and wakes the topic's refresh loops
// so they fetch fresh numbers.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	h.Broadcast(event.Topic, event)

	h.mu.RLock()
	for client := range h.clients[event.Topic] {
		client.Wake()
	}
	h.mu.RUnlock()
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
