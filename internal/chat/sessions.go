package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"admitchat/internal/backend"
	"admitchat/internal/models"
)

// SessionStore holds the ordered list of known conversations,
// most-recent-first. It is fed by the REST list fetch and by real-time
// session notifications; both paths may race and each is idempotent.
type SessionStore struct {
	mu       sync.RWMutex
	log      *zap.Logger
	api      API
	userID   string
	sessions []SessionView
}

// NewSessionStore creates the store for one authenticated user.
func NewSessionStore(api API, userID string, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{log: log, api: api, userID: userID}
}

// Load fetches the user's sessions. On any error the current list is
// kept; auth failures are logged, never surfaced to the UI.
func (s *SessionStore) Load(ctx context.Context) {
	sessions, err := s.api.Sessions(ctx, s.userID)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.log.Warn("session list rejected: invalid or expired token")
		} else {
			s.log.Warn("load sessions", zap.Error(err))
		}
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:          session.ID,
			Title:       session.Title,
			CreatedAt:   session.CreatedAt,
			LastMessage: "...",
			Timestamp:   formatTimestamp(session.CreatedAt),
		})
	}

	s.mu.Lock()
	s.sessions = views
	s.mu.Unlock()
}

// Apply merges a real-time session notification. Known ids are updated
// in place preferring the update's non-empty fields; unknown ids are
// prepended as new conversations.
func (s *SessionStore) Apply(update models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID != update.ID {
			continue
		}
		if update.Title != "" {
			s.sessions[i].Title = update.Title
		}
		if !update.CreatedAt.IsZero() {
			s.sessions[i].CreatedAt = update.CreatedAt
		}
		if update.LastMessage != "" {
			s.sessions[i].LastMessage = update.LastMessage
		}
		s.sessions[i].Timestamp = formatTimestamp(s.sessions[i].CreatedAt)
		return
	}

	title := update.Title
	if title == "" {
		title = "New Conversation"
	}
	lastMessage := update.LastMessage
	if lastMessage == "" {
		lastMessage = "New conversation"
	}
	s.sessions = append([]SessionView{{
		ID:          update.ID,
		Title:       title,
		CreatedAt:   update.CreatedAt,
		LastMessage: lastMessage,
		Timestamp:   formatTimestamp(update.CreatedAt),
	}}, s.sessions...)
}

// Touch updates a session's preview after a displayed message landed.
func (s *SessionStore) Touch(sessionID, content string, createdAt time.Time) {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].LastMessage = preview(content)
			s.sessions[i].Timestamp = formatTimestamp(createdAt)
			return
		}
	}
}

// Create issues a session creation request and returns the new id, or
// an empty id with the error when the request fails. It does not send
// the first message; the caller does that after selecting the session.
func (s *SessionStore) Create(ctx context.Context, firstMessage string) (string, error) {
	created, err := s.api.CreateSession(ctx, backend.CreateSessionRequest{
		Title:        "New Conversation",
		UserID:       s.userID,
		CreatedAt:    time.Now(),
		FirstMessage: firstMessage,
	})
	if err != nil {
		s.log.Warn("create session", zap.Error(err))
		return "", err
	}
	return created.ID, nil
}

// List returns a copy of the current session sequence.
func (s *SessionStore) List() []SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionView, len(s.sessions))
	copy(out, s.sessions)
	return out
}
