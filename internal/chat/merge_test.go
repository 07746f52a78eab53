package chat

import (
	"testing"
	"time"
)

func TestMergeTimelineChronological(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t1.Add(2 * time.Minute)

	confirmed := []MessageView{
		{ID: "m1", Content: "first", CreatedAt: t1},
		{ID: "m3", Content: "third", CreatedAt: t3},
	}
	pending := []MessageView{
		{ID: newLocalID(t2), Content: "second"},
	}

	merged := mergeTimeline(confirmed, pending)
	if len(merged) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(merged))
	}
	if merged[0].Content != "first" || merged[1].Content != "second" || merged[2].Content != "third" {
		t.Fatalf("wrong order: %q %q %q", merged[0].Content, merged[1].Content, merged[2].Content)
	}
}

func TestMergeTimelineStableTies(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	confirmed := []MessageView{
		{ID: "m1", Content: "a", CreatedAt: at},
		{ID: "m2", Content: "b", CreatedAt: at},
	}
	pending := []MessageView{
		{ID: newLocalID(at), Content: "c"},
	}

	merged := mergeTimeline(confirmed, pending)
	if merged[0].Content != "a" || merged[1].Content != "b" || merged[2].Content != "c" {
		t.Fatalf("ties must keep original relative order: %q %q %q",
			merged[0].Content, merged[1].Content, merged[2].Content)
	}
}

func TestLocalInstant(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	id := newLocalID(at)

	ms, ok := localInstant(id)
	if !ok {
		t.Fatalf("localInstant failed for %q", id)
	}
	if ms != at.UnixMilli() {
		t.Fatalf("expected %d, got %d", at.UnixMilli(), ms)
	}

	if _, ok := localInstant("m42"); ok {
		t.Fatalf("backend ids must not parse as local instants")
	}
}

func TestSortInstantPrefersCreatedAt(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	view := MessageView{ID: newLocalID(at.Add(time.Hour)), CreatedAt: at}
	if got := sortInstant(view); got != at.UnixMilli() {
		t.Fatalf("createdAt must win over the id suffix, got %d", got)
	}
}
