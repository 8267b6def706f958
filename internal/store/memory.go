// internal/store/memory.go
//
// In-memory registry of live rooms.
//
// Characteristics:
//   - Rooms keyed by id in a map, guarded by an RWMutex.
//   - Each entry carries the run metadata the HTTP layer needs (mode, date, owner).
//   - A reaper stops and drops rooms that have been idle too long.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/internal/room"
)

// ErrNotFound is returned for unknown or reaped game ids.
var ErrNotFound = errors.New("not found")

// Entry is one live game.
type Entry struct {
	Room      *room.Room
	Mode      string // "free" or "daily"
	Date      string // daily key, empty in free mode
	Seed      uint64
	OwnerID   string // user id or anonymous id
	StartedAt time.Time
}

// Store defines the registry of live games.
type Store interface {
	Put(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	// Remove stops the room and forgets it.
	Remove(ctx context.Context, id string) error
	Len() int
}

// Memory is a map-based Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore constructs an empty registry.
func NewMemoryStore() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) Put(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Room.ID()] = e
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.Room.Stop()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Reap stops every room idle for longer than maxIdle and returns how many
// were removed.
func (m *Memory) Reap(now time.Time, maxIdle time.Duration) int {
	m.mu.Lock()
	var stale []*Entry
	for id, e := range m.entries {
		if e.Room.IdleFor(now) > maxIdle {
			stale = append(stale, e)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.Room.Stop()
		log.Info().Str("gameId", e.Room.ID()).Msg("reaped idle room")
	}
	return len(stale)
}

// RunReaper calls Reap every interval until ctx is done.
func (m *Memory) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Reap(now, maxIdle)
		}
	}
}

// Close stops every room.
func (m *Memory) Close() {
	m.mu.Lock()
	all := m.entries
	m.entries = make(map[string]*Entry)
	m.mu.Unlock()
	for _, e := range all {
		e.Room.Stop()
	}
}
