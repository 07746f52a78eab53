package models

import "time"

// Role identifies the author of a message as the backend labels it.
type Role string

const (
	RoleUser   Role = "USER"
	RoleBot    Role = "BOT"
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleSystem Role = "SYSTEM"
)

// Status tracks a message through its delivery lifecycle. SENDING and
// ERROR only ever appear on locally originated entries; the rest come
// from the backend.
type Status string

const (
	StatusSending    Status = "SENDING"
	StatusDelivered  Status = "DELIVERED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusError      Status = "ERROR"
)

// Message is the wire shape shared by the history endpoint, the send
// path and real-time notifications. RequestID is the client-generated
// token correlating an optimistic local entry with its backend echo.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}
