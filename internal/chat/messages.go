package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"admitchat/internal/models"
)

// MessageStore holds the confirmed message history of the currently
// selected session plus the pending overlay of optimistic local
// entries. Notifications and REST responses for the same logical event
// may arrive in either order; Apply is idempotent under the
// merge-by-id-or-requestId rule so the races are harmless.
type MessageStore struct {
	mu        sync.RWMutex
	log       *zap.Logger
	api       API
	sessionID string
	confirmed []MessageView
	pending   overlay
	typing    bool
}

// NewMessageStore creates an empty store with no session selected.
func NewMessageStore(api API, log *zap.Logger) *MessageStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageStore{log: log, api: api}
}

// Load selects a session and replaces the confirmed sequence with its
// full history. The pending overlay and typing indicator reset on every
// switch. An empty sessionID clears the store. On a fetch error the
// confirmed sequence is left unchanged.
func (m *MessageStore) Load(ctx context.Context, sessionID string) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.pending.clear()
	m.typing = false
	if sessionID == "" {
		m.confirmed = nil
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	history, err := m.api.Messages(ctx, sessionID)
	if err != nil {
		m.log.Warn("load messages", zap.String("session", sessionID), zap.Error(err))
		return
	}

	views := make([]MessageView, 0, len(history))
	for _, msg := range history {
		if msg.Status == "" {
			msg.Status = models.StatusDelivered
		}
		views = append(views, viewFromMessage(msg))
	}

	m.mu.Lock()
	// A competing Select may have landed while the fetch was in flight.
	if m.sessionID == sessionID {
		m.confirmed = views
	}
	m.mu.Unlock()
}

// ApplyResult reports what a notification changed so the caller can
// fan out the right UI events and session preview update.
type ApplyResult struct {
	Changed        bool
	TypingChanged  bool
	PreviewContent string
	PreviewAt      time.Time
	Preview        bool
}

// Apply merges one real-time notification into the store. It is a
// no-op unless sessionID still names the selected session.
func (m *MessageStore) Apply(update models.Message, sessionID string) ApplyResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res ApplyResult
	if m.sessionID == "" || m.sessionID != sessionID {
		return res
	}

	if update.Role == models.RoleBot && update.Status == models.StatusCompleted {
		if m.typing {
			m.typing = false
			res.TypingChanged = true
		}
	} else if update.Status == models.StatusProcessing {
		// No content to merge yet; the assistant is composing.
		if !m.typing {
			m.typing = true
			res.TypingChanged = true
		}
		return res
	}

	if update.Content == "" && update.Status != models.StatusCancelled {
		return res
	}

	view := viewFromMessage(update)
	if view.CreatedAt.IsZero() {
		view.Timestamp = formatTimestamp(time.Now())
	}

	idx := m.findConfirmed(update)
	grew := false
	if idx >= 0 {
		m.confirmed[idx] = view
	} else {
		m.confirmed = append(m.confirmed, view)
		grew = true
	}
	res.Changed = true

	// A confirmed arrival supersedes its optimistic shadow entirely;
	// remaining in-flight entries are at least known to have reached
	// the backend.
	m.pending.remove(update.RequestID)
	if grew && m.pending.len() > 0 {
		m.pending.markDelivered()
	}

	if update.Content != "" && (update.Status == models.StatusCompleted || update.Role == models.RoleUser) {
		res.Preview = true
		res.PreviewContent = update.Content
		res.PreviewAt = update.CreatedAt
	}
	return res
}

// findConfirmed locates an existing entry by id, then by requestId.
// Both sides must be non-empty to match.
func (m *MessageStore) findConfirmed(update models.Message) int {
	if update.ID != "" {
		for i := range m.confirmed {
			if m.confirmed[i].ID == update.ID {
				return i
			}
		}
	}
	if update.RequestID != "" {
		for i := range m.confirmed {
			if m.confirmed[i].RequestID != "" && m.confirmed[i].RequestID == update.RequestID {
				return i
			}
		}
	}
	return -1
}

// AddPending appends an optimistic local entry and returns it, carrying
// the freshly generated requestId for the send path.
func (m *MessageStore) AddPending(content string) MessageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.add(content)
}

// MarkError flags the pending entry whose send failed. There is no
// automatic retry; the entry stays visible with its error status.
func (m *MessageStore) MarkError(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.markError(requestID)
}

// ClearPending drops all optimistic entries, used when starting a fresh
// conversation.
func (m *MessageStore) ClearPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.clear()
}

// SessionID returns the currently selected session.
func (m *MessageStore) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Typing reports whether the assistant is composing a reply.
func (m *MessageStore) Typing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.typing
}

// Messages returns the reconciled display sequence: confirmed history
// and pending overlay merged into chronological order.
func (m *MessageStore) Messages() []MessageView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return mergeTimeline(m.confirmed, m.pending.entries)
}
