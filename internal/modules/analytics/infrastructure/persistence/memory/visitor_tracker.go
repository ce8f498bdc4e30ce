package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VisitorTracker is the in-process counterpart of the redis tracker.
// Sets older than two days before the newest marked date are dropped.
type VisitorTracker struct {
	mu   sync.Mutex
	seen map[dayKey]map[string]struct{}
}

func NewVisitorTracker() *VisitorTracker {
	return &VisitorTracker{seen: make(map[dayKey]map[string]struct{})}
}

func (t *VisitorTracker) MarkVisit(_ context.Context, businessID uuid.UUID, date time.Time, sessionID string) (bool, error) {
	key := dayKey{businessID: businessID, date: date}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(date.AddDate(0, 0, -2))
	sessions, ok := t.seen[key]
	if !ok {
		sessions = make(map[string]struct{})
		t.seen[key] = sessions
	}
	if _, dup := sessions[sessionID]; dup {
		return false, nil
	}
	sessions[sessionID] = struct{}{}
	return true, nil
}

func (t *VisitorTracker) ReleaseVisit(_ context.Context, businessID uuid.UUID, date time.Time, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen[dayKey{businessID: businessID, date: date}], sessionID)
	return nil
}

func (t *VisitorTracker) prune(before time.Time) {
	for key := range t.seen {
		if key.date.Before(before) {
			delete(t.seen, key)
		}
	}
}
