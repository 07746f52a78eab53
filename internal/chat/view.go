package chat

import (
	"time"

	"admitchat/internal/models"
)

// MessageView is a display-ready message entry: the wire fields plus
// the derived flags the UI renders from.
type MessageView struct {
	ID        string
	Role      models.Role
	Content   string
	CreatedAt time.Time
	Status    models.Status
	RequestID string
	IsUser    bool
	Timestamp string
}

// SessionView is a sidebar entry for one conversation.
type SessionView struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	LastMessage string
	Timestamp   string
}

func viewFromMessage(m models.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Status:    m.Status,
		RequestID: m.RequestID,
		IsUser:    m.Role == models.RoleUser,
		Timestamp: formatTimestamp(m.CreatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

const previewLimit = 50

// preview truncates message content for the session sidebar.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
