package history

import (
	"context"
	"sync"

	"github.com/intervue-dev/intervue/internal/log"
)

// Lister holds the session list shown to the signed-in user and keeps it
// consistent with the backend across deletes.
type Lister struct {
	repo   Repository
	viewer Viewer
	events *log.Logger

	mu       sync.RWMutex
	sessions []Session
	loaded   bool
}

// NewLister creates a Lister. events may be nil.
func NewLister(repo Repository, viewer Viewer, events *log.Logger) *Lister {
	return &Lister{repo: repo, viewer: viewer, events: events}
}

// Load fetches the viewer's sessions, newest first.
func (l *Lister) Load(ctx context.Context) ([]Session, error) {
	user, err := requireUser(l.viewer)
	if err != nil {
		return nil, err
	}
	sessions, err := l.repo.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.sessions = sessions
	l.loaded = true
	l.mu.Unlock()
	return l.Sessions(), nil
}

// Sessions returns a copy of the loaded list.
func (l *Lister) Sessions() []Session {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Session, len(l.sessions))
	copy(out, l.sessions)
	return out
}

// Loaded reports whether Load has succeeded at least once.
func (l *Lister) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Stats summarizes the loaded list.
func (l *Lister) Stats() Stats {
	return Summarize(l.Sessions())
}

// Delete removes a session remotely and then from the local list. Nothing
// happens unless confirmed; a failed remote delete leaves the list as is.
func (l *Lister) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := l.repo.Delete(ctx, id); err != nil {
		return err
	}

	l.mu.Lock()
	l.sessions = Remove(l.sessions, id)
	l.mu.Unlock()

	var userID string
	if u := l.viewer.User(); u != nil {
		userID = u.ID
	}
	_ = l.events.Append(log.LogEvent{Event: log.EventSessionDeleted, UserID: userID, SessionID: id})
	return nil
}
