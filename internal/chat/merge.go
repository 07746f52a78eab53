package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// localIDPrefix marks optimistic entries. The numeric suffix is the
// creation instant in milliseconds and doubles as the sort key until
// the backend echo carries a real createdAt.
const localIDPrefix = "local-"

func newLocalID(now time.Time) string {
	return fmt.Sprintf("%s%d", localIDPrefix, now.UnixMilli())
}

// localInstant extracts the creation instant from a temporary id.
func localInstant(id string) (int64, bool) {
	idx := strings.LastIndexByte(id, '-')
	if idx < 0 {
		return 0, false
	}
	ms, err := strconv.ParseInt(id[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// sortInstant derives the comparable instant for one entry: createdAt
// when present, otherwise the temporary id's embedded creation time.
func sortInstant(m MessageView) int64 {
	if !m.CreatedAt.IsZero() {
		return m.CreatedAt.UnixMilli()
	}
	if ms, ok := localInstant(m.ID); ok {
		return ms
	}
	return 0
}

// mergeTimeline combines confirmed history and the pending overlay into
// one chronologically ordered sequence. The sort is stable, so entries
// with equal instants keep their original relative order (confirmed
// before pending).
func mergeTimeline(confirmed, pending []MessageView) []MessageView {
	merged := make([]MessageView, 0, len(confirmed)+len(pending))
	merged = append(merged, confirmed...)
	merged = append(merged, pending...)
	sort.SliceStable(merged, func(i, j int) bool {
		return sortInstant(merged[i]) < sortInstant(merged[j])
	})
	return merged
}
