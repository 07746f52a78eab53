package models

import "time"

// Session is a persisted conversation thread as the backend reports it.
// LastMessage only rides along on real-time session notifications; the
// list endpoint leaves it empty.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"createdAt"`
	LastMessage string    `json:"lastMessage,omitempty"`
	UserID      string    `json:"userId,omitempty"`
}
