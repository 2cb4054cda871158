// Package history keeps a persisted journal of processed commands.
package history

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
)

// DefaultLimit is the number of entries kept when none is configured.
const DefaultLimit = 200

// Backend persists the whole journal
type Backend interface {
	Load() ([]*Entry, error)
	Save(entries []*Entry) error
}

// Journal records outcomes and persists them after every change
type Journal struct {
	sessionID string
	store     Backend
	limit     int
	entries   []*Entry
	mu        sync.RWMutex
}

// New loads the journal from store. A limit of zero or less uses
// DefaultLimit; the oldest entries are dropped beyond it.
func New(store Backend, sessionID string, limit int) (*Journal, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Journal{
		sessionID: sessionID,
		store:     store,
		limit:     limit,
		entries:   entries,
	}, nil
}

// Open loads the JSON journal at filePath.
func Open(filePath, sessionID string, limit int) (*Journal, error) {
	return New(NewStore(filePath), sessionID, limit)
}

// Close releases the backend when it holds resources
func (j *Journal) Close() error {
	if c, ok := j.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Record appends an entry for out and saves the journal
func (j *Journal) Record(req core.Request, out core.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	next := make([]*Entry, 0, len(j.entries)+1)
	next = append(next, j.entries...)
	next = append(next, NewEntry(j.sessionID, req, out))
	if over := len(next) - j.limit; over > 0 {
		next = next[over:]
	}

	// Memory only changes once the backend has the new journal.
	if err := j.store.Save(next); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	j.entries = next
	return nil
}

// Recent returns up to n of the newest entries, oldest first
func (j *Journal) Recent(n int) []*Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	result := make([]*Entry, n)
	copy(result, j.entries[len(j.entries)-n:])
	return result
}

// BySession returns up to n of the newest entries whose session ID starts
// with prefix, oldest first. n <= 0 returns all of them.
func (j *Journal) BySession(prefix string, n int) []*Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*Entry
	for _, e := range j.entries {
		if prefix != "" && strings.HasPrefix(e.SessionID, prefix) {
			result = append(result, e)
		}
	}
	if n > 0 && len(result) > n {
		result = result[len(result)-n:]
	}
	return result
}

// Clear removes every entry and saves the empty journal
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.store.Save([]*Entry{}); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	j.entries = []*Entry{}
	return nil
}
