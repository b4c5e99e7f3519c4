package wsnav

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/gorilla/websocket"
)

// Frame types exchanged with clients.
const (
	FrameNavigate     = "navigate"
	FrameLink         = "link"
	FrameNotification = "notification"
)

// ErrNoClients is returned by Navigate when no shell is connected.
var ErrNoClients = errors.New("wsnav: no connected clients")

// Frame is the JSON message format on the socket.
type Frame struct {
	Type        string         `json:"type"`
	Screen      string         `json:"screen,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	URL         string         `json:"url,omitempty"`
	Interaction string         `json:"interaction,omitempty"`
	Response    map[string]any `json:"response,omitempty"`
}

// Options configure a Hub.
type Options struct {
	Logger         logger.Logger
	WriteTimeout   time.Duration
	OnLink         func(url string)
	OnNotification func(resp map[string]any, interaction intents.Interaction)
	// CheckOrigin overrides the origin policy. When nil, cross-origin
	// handshakes are rejected unless AllowAnyOrigin is set.
	CheckOrigin func(r *http.Request) bool
	// AllowAnyOrigin accepts handshakes from every origin.
	AllowAnyOrigin bool
}

// FeedNotifications routes client notification frames into feed.
func FeedNotifications(feed *sources.NotificationFeed) func(map[string]any, intents.Interaction) {
	return func(resp map[string]any, interaction intents.Interaction) {
		if interaction == intents.InteractionDelivered {
			feed.Deliver(resp)
			return
		}
		feed.Tap(resp)
	}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(frame Frame, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(frame)
}

// Hub tracks connected clients.
type Hub struct {
	upgrader websocket.Upgrader
	opts     Options
	logger   logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub builds a hub with no clients.
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = &logger.Nop{}
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	// A nil CheckOrigin keeps gorilla's same-origin check.
	check := opts.CheckOrigin
	if check == nil && opts.AllowAnyOrigin {
		check = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     check,
		},
		opts:    opts,
		logger:  opts.Logger,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Navigate broadcasts a navigate frame. Clients that fail to accept it are
// disconnected.
func (h *Hub) Navigate(ctx context.Context, screen string, params map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return ErrNoClients
	}
	frame := Frame{Type: FrameNavigate, Screen: screen, Params: params}
	sent := 0
	for _, c := range targets {
		if err := c.write(frame, h.opts.WriteTimeout); err != nil {
			h.logger.Warn("wsnav write failed, dropping client", logger.F("error", err))
			h.drop(c)
			continue
		}
		sent++
	}
	if sent == 0 {
		return ErrNoClients
	}
	return nil
}

// ServeHTTP upgrades the request and reads client frames until the socket
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("wsnav upgrade failed", logger.F("error", err))
		return
	}
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("wsnav client connected", logger.F("remote", r.RemoteAddr))

	defer h.drop(c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("wsnav read failed", logger.F("error", err))
			}
			return
		}
		h.handle(data)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) handle(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warn("wsnav invalid frame", logger.F("error", err))
		return
	}
	switch frame.Type {
	case FrameLink:
		if h.opts.OnLink != nil && frame.URL != "" {
			h.opts.OnLink(frame.URL)
		}
	case FrameNotification:
		if h.opts.OnNotification != nil {
			interaction := intents.Interaction(frame.Interaction)
			if interaction == "" {
				interaction = intents.InteractionTapped
			}
			h.opts.OnNotification(frame.Response, interaction)
		}
	default:
		h.logger.Debug("wsnav ignoring frame", logger.F("type", frame.Type))
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}
