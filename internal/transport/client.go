package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler receives the raw JSON body of one inbound message on a topic.
type Handler func(payload []byte)

// frame is the envelope exchanged on the socket in both directions.
type frame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

const (
	defaultReconnectDelay = 5 * time.Second
	defaultHeartbeat      = 4 * time.Second
)

// Config describes the real-time channel connection.
type Config struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
	Heartbeat      time.Duration
}

// Client wraps a websocket connection to expose topic-scoped
// publish/subscribe with automatic reconnection. Subscriptions do not
// survive a disconnect: owners are told about connection state changes
// and must re-subscribe themselves.
type Client struct {
	cfg Config
	log *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subs      map[string]map[int64]Handler
	nextSub   int64
	listeners []func(bool)

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for the given channel configuration.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	return &Client{
		cfg:  cfg,
		log:  log,
		subs: make(map[string]map[int64]Handler),
		done: make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop in the background.
func (c *Client) Start() {
	go c.run()
}

// Close tears the connection down permanently.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}

// Connected reports whether the channel is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnConnectionChange registers a listener invoked on every connect and
// disconnect with the new state.
func (c *Client) OnConnectionChange(fn func(connected bool)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Subscribe registers a handler for one topic and returns an
// unsubscribe func. When the channel is down it registers nothing and
// returns a no-op, matching the contract that subscriptions are only
// valid for the lifetime of the current connection.
func (c *Client) Subscribe(topic string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return func() {}
	}
	c.nextSub++
	id := c.nextSub
	if c.subs[topic] == nil {
		c.subs[topic] = make(map[int64]Handler)
	}
	c.subs[topic][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if handlers, ok := c.subs[topic]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(c.subs, topic)
			}
		}
	}
}

// Publish sends a payload to the destination topic. It reports false
// when the channel is down or the write fails; it never queues. Callers
// fall back to the REST path on false.
func (c *Client) Publish(topic string, payload any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("encode publish payload", zap.String("topic", topic), zap.Error(err))
		return false
	}

	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected || conn == nil {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(frame{Destination: topic, Body: body}); err != nil {
		c.log.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
		return false
	}
	return true
}

func (c *Client) run() {
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, _, err := dialer.Dial(c.cfg.URL, header)
		if err != nil {
			c.log.Warn("realtime dial failed", zap.String("url", c.cfg.URL), zap.Error(err))
			if !c.sleep(c.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		c.attach(conn)
		c.readLoop(conn)
		c.detach()

		if !c.sleep(c.cfg.ReconnectDelay) {
			return
		}
	}
}

// sleep waits for the reconnect delay, returning false if closed.
func (c *Client) sleep(d time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	c.log.Info("realtime channel connected")
	for _, fn := range listeners {
		fn(true)
	}
}

func (c *Client) detach() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.connected = false
	// Subscriptions die with the connection; owners re-subscribe on the
	// next connected notification.
	c.subs = make(map[string]map[int64]Handler)
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	c.log.Info("realtime channel disconnected")
	for _, fn := range listeners {
		fn(false)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	pongWait := 2 * c.cfg.Heartbeat
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go c.pingLoop(conn, stopPing)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("realtime read failed", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			// One malformed notification is dropped; the connection stays up.
			c.log.Warn("malformed realtime frame", zap.Error(err))
			continue
		}
		c.dispatch(f)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(f frame) {
	c.mu.Lock()
	var handlers []Handler
	for _, h := range c.subs[f.Destination] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(f.Body)
	}
}
