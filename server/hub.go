package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"syncloop/core/input"
)

// MessageType tags status feed messages.
type MessageType string

const (
	MsgHello    MessageType = "hello" // snapshot sent on connect
	MsgProgress MessageType = "progress"
	MsgError    MessageType = "error"
	MsgReady    MessageType = "ready"
	MsgFrame    MessageType = "frame"
	MsgKey      MessageType = "key" // client -> server
	MsgPing     MessageType = "ping"
	MsgPong     MessageType = "pong"
)

const (
	sendBuffer     = 64
	broadcastQueue = 256
	readLimit      = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

// Message is one status feed frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Session   string          `json:"session,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type ProgressData struct {
	Percent int `json:"percent"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type FrameData struct {
	Index int `json:"index"`
}

// KeyData is a remote key press.
type KeyData struct {
	Code  int  `json:"code"`
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
	Shift bool `json:"shift,omitempty"`
}

// Snapshot is the state a client receives when it connects.
type Snapshot struct {
	Percent int    `json:"percent"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
	Frame   int    `json:"frame"`
}

type hubClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// closed by the hub when the client is dropped; send is never closed
	done chan struct{}
}

// Hub fans a session's status out to websocket clients. It is a sink.Sink
// and its Frame method fits the renderer's frame hook. Key messages from
// clients go to OnKey.
type Hub struct {
	session string
	log     *zap.Logger

	// OnKey receives remote key presses; it must not block.
	OnKey func(code input.KeyCode, mods input.Modifiers) bool

	// AllowedOrigins lists browser origins, besides the serving host, that
	// may open the feed. Set before the hub serves requests.
	AllowedOrigins []string

	upgrader   websocket.Upgrader
	clients    map[*hubClient]bool
	register   chan *hubClient
	unregister chan *hubClient
	broadcast  chan []byte
	done       chan struct{}

	mu    sync.Mutex
	state Snapshot
}

// NewHub creates a hub for the session with the given id. Call Run to start it.
func NewHub(sessionID string, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		session:    sessionID,
		log:        log.Named("hub"),
		clients:    make(map[*hubClient]bool),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		state:      Snapshot{Frame: -1},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits non-browser clients, same-host pages and AllowedOrigins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	h.log.Warn("websocket origin rejected", zap.String("origin", origin))
	return false
}

// Run owns the client set until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.log.Info("client connected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client
					h.remove(c)
				}
			}
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return
		}
	}
}

func (h *Hub) remove(c *hubClient) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.done)
	h.log.Info("client disconnected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
}

// SetSession tags later messages with a session id.
func (h *Hub) SetSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = id
}

// State returns the latest snapshot.
func (h *Hub) State() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hub) encode(t MessageType, data interface{}) ([]byte, error) {
	h.mu.Lock()
	msg := Message{Type: t, Session: h.session, Timestamp: time.Now().UnixMilli()}
	h.mu.Unlock()
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func (h *Hub) publish(t MessageType, data interface{}) {
	payload, err := h.encode(t, data)
	if err != nil {
		h.log.Warn("encode status message", zap.String("type", string(t)), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Debug("status queue full, message dropped", zap.String("type", string(t)))
	}
}

func (h *Hub) ReportProgress(percent int) {
	h.mu.Lock()
	h.state.Percent = percent
	h.mu.Unlock()
	h.publish(MsgProgress, ProgressData{Percent: percent})
}

func (h *Hub) ReportError(message string) {
	h.mu.Lock()
	h.state.Error = message
	h.mu.Unlock()
	h.publish(MsgError, ErrorData{Message: message})
}

func (h *Hub) ReportLoadFinished() {
	h.mu.Lock()
	h.state.Ready = true
	h.mu.Unlock()
	h.publish(MsgReady, nil)
}

// Frame publishes a redraw.
func (h *Hub) Frame(index int) {
	h.mu.Lock()
	h.state.Frame = index
	h.mu.Unlock()
	h.publish(MsgFrame, FrameData{Index: index})
}

// ServeHTTP upgrades the request and attaches the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &hubClient{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if hello, err := h.encode(MsgHello, h.State()); err == nil {
		c.send <- hello
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *hubClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Warn("invalid message format", zap.String("client", c.id), zap.Error(err))
			continue
		}
		switch msg.Type {
		case MsgPing:
			c.pong()
		case MsgKey:
			c.hub.handleKey(c, msg.Data)
		default:
			c.hub.log.Debug("ignored message", zap.String("client", c.id), zap.String("type", string(msg.Type)))
		}
	}
}

// pong answers a client ping unless the client was dropped or its queue is full.
func (c *hubClient) pong() {
	select {
	case <-c.done:
		return
	default:
	}
	msg, err := c.hub.encode(MsgPong, nil)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
	}
}

func (h *Hub) handleKey(c *hubClient, raw json.RawMessage) {
	var k KeyData
	if err := json.Unmarshal(raw, &k); err != nil {
		h.log.Warn("invalid key message", zap.String("client", c.id), zap.Error(err))
		return
	}
	if h.OnKey == nil {
		return
	}
	mods := input.Modifiers{Alt: k.Alt, Ctrl: k.Ctrl, Meta: k.Meta, Shift: k.Shift}
	if !h.OnKey(input.KeyCode(k.Code), mods) {
		h.log.Debug("remote key not accepted", zap.String("client", c.id), zap.Int("code", k.Code))
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
