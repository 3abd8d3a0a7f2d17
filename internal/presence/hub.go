package presence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultSendBuffer = 32

// Client is one websocket session registered with the hub.
type Client struct {
	UserID string
	send   chan []byte
	rooms  map[string]struct{}
	closed bool
}

// Send yields frames for the connection's writer. It is closed when the
// client is unregistered.
func (c *Client) Send() <-chan []byte { return c.send }

// Hub fans events out to clients by room. Delivery never blocks the
// publisher: a client whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	bufSize int
	bus     Publisher
	dropped atomic.Int64
	onDrop  func()
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: map[*Client]struct{}{},
		rooms:   map[string]map[*Client]struct{}{},
		bufSize: defaultSendBuffer,
		logger:  logger,
	}
}

// UseBus routes Publish through a cross-instance bus. The bus is expected
// to call Deliver on every instance, this one included.
func (h *Hub) UseBus(bus Publisher) { h.bus = bus }

// OnDrop registers a hook called for every frame dropped for a slow client.
func (h *Hub) OnDrop(fn func()) { h.onDrop = fn }

// Register adds a client for userID.
func (h *Hub) Register(userID string) *Client {
	c := &Client{UserID: userID, send: make(chan []byte, h.bufSize), rooms: map[string]struct{}{}}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unregister removes the client from all rooms and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clients, c)
	close(c.send)
}

// Join subscribes the client to room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Publish delivers ev, through the bus when one is configured.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if h.bus != nil {
		h.bus.Publish(ctx, ev)
		return
	}
	h.Deliver(ev)
}

// Deliver pushes ev to the local clients in its room, or to all local
// clients when the event has no room.
func (h *Hub) Deliver(ev Event) {
	frame := ev.Frame()

	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := h.clients
	if ev.Room != "" {
		targets = h.rooms[ev.Room]
	}
	for c := range targets {
		select {
		case c.send <- frame:
		default:
			h.dropped.Add(1)
			if h.onDrop != nil {
				h.onDrop()
			}
			h.logger.Debug("dropping event for slow client",
				slog.String("user_id", c.UserID),
				slog.String("event", ev.Name),
			)
		}
	}
}

// DeliverTo pushes ev to a single client, dropping it if the client is
// gone or its buffer is full.
func (h *Hub) DeliverTo(c *Client, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev.Frame():
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns the number of frames dropped for slow clients.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
