package echoweb

import (
	"sync"
	"time"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core/session"
)

type workspaceEntry struct {
	ws        *workspace.Workspace
	expiresAt time.Time
}

// workspaces holds the workspace of every live session, created on first use.
// Entries of expired sessions are swept on access, whether or not their cookie comes back.
type workspaces struct {
	mu    sync.Mutex
	items map[string]workspaceEntry
	newFn func() *workspace.Workspace
}

func newWorkspaces(newFn func() *workspace.Workspace) *workspaces {
	return &workspaces{items: make(map[string]workspaceEntry), newFn: newFn}
}

func (w *workspaces) get(sess session.Session) *workspace.Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sweep(session.NowFunc())

	entry, ok := w.items[sess.ID]
	if !ok {
		entry.ws = w.newFn()
	}
	entry.expiresAt = sess.ExpiresAt
	w.items[sess.ID] = entry
	return entry.ws
}

// sweep drops the workspaces of sessions expired at now; called with w.mu held.
func (w *workspaces) sweep(now time.Time) {
	for id, entry := range w.items {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(w.items, id)
		}
	}
}

func (w *workspaces) drop(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.items, sessionID)
}

func (w *workspaces) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
