package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"admitchat/internal/backend"
	"admitchat/internal/models"
	"admitchat/internal/transport"
)

// Topics and destinations shared with the backend's message broker.
const (
	TopicSessions   = "/topic/sessions"
	topicChatPrefix = "/topic/chat/"
	destSendMessage = "/app/chat.sendMessage"
)

// ErrNoSession reports a send without a selected conversation.
var ErrNoSession = errors.New("no session selected")

// API is the slice of the backend REST surface the chat core consumes.
type API interface {
	Sessions(ctx context.Context, userID string) ([]models.Session, error)
	CreateSession(ctx context.Context, req backend.CreateSessionRequest) (models.Session, error)
	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
	PostMessage(ctx context.Context, msg models.Message) error
	CancelRequest(ctx context.Context, sessionID, requestID string) error
}

// Transport is the slice of the real-time client the chat core consumes.
type Transport interface {
	Connected() bool
	Subscribe(topic string, h transport.Handler) func()
	Publish(topic string, payload any) bool
	OnConnectionChange(fn func(connected bool))
}

// EventKind labels a state change pushed to the UI.
type EventKind int

const (
	EventSessions EventKind = iota
	EventMessages
	EventTyping
	EventConnection
)

// Event is one UI-facing state change. Connected is only meaningful
// for EventConnection.
type Event struct {
	Kind      EventKind
	Connected bool
}

// Controller owns the chat subsystem: it holds the stores, manages the
// real-time subscriptions (re-established manually after every
// reconnect) and routes user actions to the publish or REST path.
type Controller struct {
	log    *zap.Logger
	api    API
	rt     Transport
	userID string

	Sessions *SessionStore
	Messages *MessageStore

	mu            sync.Mutex
	selected      string
	unsubSessions func()
	unsubChat     func()

	events chan Event
}

// NewController wires the stores to the given collaborators. The
// credential and user id come in explicitly; the subsystem never reads
// ambient auth state.
func NewController(api API, rt Transport, userID string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		log:      log,
		api:      api,
		rt:       rt,
		userID:   userID,
		Sessions: NewSessionStore(api, userID, log),
		Messages: NewMessageStore(api, log),
		events:   make(chan Event, 32),
	}
	rt.OnConnectionChange(c.onConnectionChange)
	return c
}

// Events exposes the UI event stream. Events are dropped rather than
// blocking a notification handler when the consumer lags.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) emit(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

// Start performs the initial session list fetch and, if the channel is
// already up, establishes the subscriptions.
func (c *Controller) Start(ctx context.Context) {
	c.Sessions.Load(ctx)
	c.emit(Event{Kind: EventSessions})
	if c.rt.Connected() {
		c.resubscribe()
	}
}

// Connected reports the real-time channel state.
func (c *Controller) Connected() bool {
	return c.rt.Connected()
}

// Selected returns the currently selected session id.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select switches the conversation: pending entries are dropped, the
// history is refetched and the session-scoped subscription is moved.
func (c *Controller) Select(ctx context.Context, sessionID string) {
	c.mu.Lock()
	c.selected = sessionID
	c.mu.Unlock()

	c.Messages.Load(ctx, sessionID)
	c.resubscribe()
	c.emit(Event{Kind: EventMessages})
	c.emit(Event{Kind: EventTyping})
}

// Send queues an optimistic entry and submits the message, preferring
// the real-time channel and falling back to REST when the publish is
// refused. A failed fallback marks the pending entry with ERROR.
func (c *Controller) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	sessionID := c.Selected()
	if sessionID == "" {
		return ErrNoSession
	}

	entry := c.Messages.AddPending(content)
	c.emit(Event{Kind: EventMessages})

	msg := models.Message{
		Role:      models.RoleUser,
		Content:   content,
		SessionID: sessionID,
		CreatedAt: time.Now(),
		RequestID: entry.RequestID,
	}

	if c.rt.Connected() && c.rt.Publish(destSendMessage, msg) {
		return nil
	}

	if err := c.api.PostMessage(ctx, msg); err != nil {
		c.log.Warn("send message", zap.Error(err))
		c.Messages.MarkError(entry.RequestID)
		c.emit(Event{Kind: EventMessages})
		return err
	}
	return nil
}

// StartConversation creates a session, selects it and sends the first
// message. Returns the new session id, or empty on creation failure.
func (c *Controller) StartConversation(ctx context.Context, firstMessage string) (string, error) {
	c.Messages.ClearPending()
	sessionID, err := c.Sessions.Create(ctx, firstMessage)
	if err != nil {
		return "", err
	}
	c.Select(ctx, sessionID)
	if firstMessage != "" {
		if err := c.Send(ctx, firstMessage); err != nil {
			return sessionID, err
		}
	}
	return sessionID, nil
}

// Cancel asks the backend to cancel an in-flight request. The local
// state only changes when the authoritative CANCELLED update arrives.
func (c *Controller) Cancel(ctx context.Context, requestID string) error {
	sessionID := c.Selected()
	if sessionID == "" {
		return ErrNoSession
	}
	if err := c.api.CancelRequest(ctx, sessionID, requestID); err != nil {
		c.log.Warn("cancel request", zap.String("request", requestID), zap.Error(err))
		return err
	}
	return nil
}

func (c *Controller) onConnectionChange(connected bool) {
	if connected {
		c.resubscribe()
		// Refresh state that may have drifted while offline.
		ctx := context.Background()
		c.Sessions.Load(ctx)
		c.emit(Event{Kind: EventSessions})
		if sessionID := c.Selected(); sessionID != "" {
			c.Messages.Load(ctx, sessionID)
			c.emit(Event{Kind: EventMessages})
		}
	}
	c.emit(Event{Kind: EventConnection, Connected: connected})
}

// resubscribe re-establishes the sessions topic and the session-scoped
// topic on the current connection. The transport does not restore
// subscriptions across reconnects, so this runs on every connect and
// on every session switch.
func (c *Controller) resubscribe() {
	if !c.rt.Connected() {
		return
	}

	c.mu.Lock()
	sessionID := c.selected
	unsubSessions := c.unsubSessions
	unsubChat := c.unsubChat
	c.mu.Unlock()

	if unsubSessions != nil {
		unsubSessions()
	}
	if unsubChat != nil {
		unsubChat()
	}

	newUnsubSessions := c.rt.Subscribe(TopicSessions, c.handleSessionNotification)
	var newUnsubChat func()
	if sessionID != "" {
		newUnsubChat = c.rt.Subscribe(topicChatPrefix+sessionID, c.messageHandler(sessionID))
	}

	c.mu.Lock()
	c.unsubSessions = newUnsubSessions
	c.unsubChat = newUnsubChat
	c.mu.Unlock()
}

func (c *Controller) handleSessionNotification(payload []byte) {
	var update models.Session
	if err := json.Unmarshal(payload, &update); err != nil {
		c.log.Warn("malformed session notification", zap.Error(err))
		return
	}
	c.Sessions.Apply(update)
	c.emit(Event{Kind: EventSessions})
}

// messageHandler binds the handler to the session it was subscribed
// for, so late notifications for a deselected session are ignored by
// the store's guard.
func (c *Controller) messageHandler(sessionID string) transport.Handler {
	return func(payload []byte) {
		var update models.Message
		if err := json.Unmarshal(payload, &update); err != nil {
			c.log.Warn("malformed message notification", zap.Error(err))
			return
		}

		res := c.Messages.Apply(update, sessionID)
		if res.Preview {
			c.Sessions.Touch(sessionID, res.PreviewContent, res.PreviewAt)
			c.emit(Event{Kind: EventSessions})
		}
		if res.TypingChanged {
			c.emit(Event{Kind: EventTyping})
		}
		if res.Changed {
			c.emit(Event{Kind: EventMessages})
		}
	}
}
