package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"admitchat/internal/models"
)

func TestLoadSessionsMapsViews(t *testing.T) {
	at := time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)
	api := &fakeAPI{sessions: []models.Session{{ID: "s1", Title: "Scholarships", CreatedAt: at}}}
	store := NewSessionStore(api, "u1", nil)

	store.Load(context.Background())

	sessions := store.List()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].LastMessage != "..." {
		t.Fatalf("list fetch must use the placeholder preview, got %q", sessions[0].LastMessage)
	}
	if sessions[0].Timestamp == "" {
		t.Fatalf("display timestamp not derived")
	}
}

func TestLoadSessionsKeepsListOnError(t *testing.T) {
	api := &fakeAPI{sessions: []models.Session{{ID: "s1", Title: "Old"}}}
	store := NewSessionStore(api, "u1", nil)
	store.Load(context.Background())

	api.mu.Lock()
	api.sessionsErr = errors.New("boom")
	api.mu.Unlock()
	store.Load(context.Background())

	if got := store.List(); len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("failed fetch must keep the previous list: %+v", got)
	}
}

func TestApplyUpdatesExistingSession(t *testing.T) {
	store := NewSessionStore(&fakeAPI{}, "u1", nil)
	store.Apply(models.Session{ID: "s1", Title: "Old", CreatedAt: time.Now()})

	store.Apply(models.Session{ID: "s1", Title: "New", LastMessage: "hi"})

	sessions := store.List()
	if sessions[0].Title != "New" || sessions[0].LastMessage != "hi" {
		t.Fatalf("update not merged: %+v", sessions[0])
	}
}

func TestApplyPrefersExistingOverEmptyFields(t *testing.T) {
	at := time.Now()
	store := NewSessionStore(&fakeAPI{}, "u1", nil)
	store.Apply(models.Session{ID: "s1", Title: "Keep me", CreatedAt: at, LastMessage: "prior"})

	store.Apply(models.Session{ID: "s1"})

	sessions := store.List()
	if sessions[0].Title != "Keep me" || sessions[0].LastMessage != "prior" {
		t.Fatalf("empty update fields must not clobber: %+v", sessions[0])
	}
}

func TestApplyPrependsUnknownSession(t *testing.T) {
	store := NewSessionStore(&fakeAPI{}, "u1", nil)
	store.Apply(models.Session{ID: "s1", Title: "First"})

	store.Apply(models.Session{ID: "s2", CreatedAt: time.Now()})

	sessions := store.List()
	if len(sessions) != 2 || sessions[0].ID != "s2" {
		t.Fatalf("unknown session must be prepended: %+v", sessions)
	}
	if sessions[0].Title != "New Conversation" || sessions[0].LastMessage != "New conversation" {
		t.Fatalf("defaults not applied: %+v", sessions[0])
	}
}

func TestTouchTruncatesPreview(t *testing.T) {
	store := NewSessionStore(&fakeAPI{}, "u1", nil)
	store.Apply(models.Session{ID: "s1", Title: "Essay help"})

	content := strings.Repeat("x", 60)
	store.Touch("s1", content, time.Now())

	sessions := store.List()
	want := strings.Repeat("x", 50) + "..."
	if sessions[0].LastMessage != want {
		t.Fatalf("expected %q, got %q", want, sessions[0].LastMessage)
	}

	store.Touch("s1", "short", time.Now())
	if got := store.List()[0].LastMessage; got != "short" {
		t.Fatalf("short content must not be truncated, got %q", got)
	}
}

func TestCreateReturnsFailureSentinel(t *testing.T) {
	store := NewSessionStore(&fakeAPI{createErr: errors.New("refused")}, "u1", nil)

	id, err := store.Create(context.Background(), "hello")
	if err == nil || id != "" {
		t.Fatalf("failed creation must return an empty id, got %q err=%v", id, err)
	}

	store = NewSessionStore(&fakeAPI{created: models.Session{ID: "s9"}}, "u1", nil)
	id, err = store.Create(context.Background(), "hello")
	if err != nil || id != "s9" {
		t.Fatalf("expected s9, got %q err=%v", id, err)
	}
}
