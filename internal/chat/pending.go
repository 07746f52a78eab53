package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"admitchat/internal/models"
)

// overlay holds locally originated messages that the backend has not
// echoed yet. Entries exist between submit and either the confirmed
// arrival with the same requestId or a send failure.
type overlay struct {
	entries []MessageView
}

func (o *overlay) add(content string) MessageView {
	entry := MessageView{
		ID:        newLocalID(time.Now()),
		Role:      models.RoleUser,
		Content:   content,
		Status:    models.StatusSending,
		RequestID: fmt.Sprintf("req-%s", uuid.NewString()),
		IsUser:    true,
		Timestamp: "just now",
	}
	o.entries = append(o.entries, entry)
	return entry
}

// markDelivered transitions all in-flight entries once the confirmed
// sequence has grown; their echoes are expected imminently.
func (o *overlay) markDelivered() {
	for i := range o.entries {
		if o.entries[i].Status == models.StatusSending {
			o.entries[i].Status = models.StatusDelivered
		}
	}
}

func (o *overlay) markError(requestID string) bool {
	for i := range o.entries {
		if o.entries[i].RequestID == requestID {
			o.entries[i].Status = models.StatusError
			return true
		}
	}
	return false
}

// remove drops the entry superseded by a confirmed message carrying the
// same requestId, so the two never render together.
func (o *overlay) remove(requestID string) bool {
	if requestID == "" {
		return false
	}
	for i := range o.entries {
		if o.entries[i].RequestID == requestID {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (o *overlay) clear() {
	o.entries = nil
}

func (o *overlay) len() int {
	return len(o.entries)
}
