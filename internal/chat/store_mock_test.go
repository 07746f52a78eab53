package chat

import (
	"context"
	"sync"

	"admitchat/internal/backend"
	"admitchat/internal/models"
	"admitchat/internal/transport"
)

// fakeAPI is an in-memory stand-in for the backend REST client.
type fakeAPI struct {
	mu sync.Mutex

	sessions    []models.Session
	sessionsErr error

	history    []models.Message
	historyErr error

	created   models.Session
	createErr error

	posted  []models.Message
	postErr error

	cancelled []string
	cancelErr error
}

func (f *fakeAPI) Sessions(context.Context, string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.sessionsErr
}

func (f *fakeAPI) CreateSession(context.Context, backend.CreateSessionRequest) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.createErr
}

func (f *fakeAPI) Messages(context.Context, string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeAPI) PostMessage(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, msg)
	return nil
}

func (f *fakeAPI) CancelRequest(_ context.Context, sessionID, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, sessionID+"/"+requestID)
	return nil
}

func (f *fakeAPI) postedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

// fakeTransport records subscriptions and publishes without a socket.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	publishOK bool
	subs      map[string]transport.Handler
	published []string
	listeners []func(bool)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: make(map[string]transport.Handler)}
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Subscribe(topic string, h transport.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return func() {}
	}
	f.subs[topic] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, topic)
	}
}

func (f *fakeTransport) Publish(topic string, _ any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected || !f.publishOK {
		return false
	}
	f.published = append(f.published, topic)
	return true
}

func (f *fakeTransport) OnConnectionChange(fn func(bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// fire flips the connection state and notifies listeners, mimicking the
// real client's reconnect loop.
func (f *fakeTransport) fire(connected bool) {
	f.mu.Lock()
	f.connected = connected
	if !connected {
		f.subs = make(map[string]transport.Handler)
	}
	listeners := append([]func(bool){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(connected)
	}
}

func (f *fakeTransport) handler(topic string) transport.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[topic]
}
