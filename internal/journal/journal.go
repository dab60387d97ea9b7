// Package journal keeps an append-only audit trail of roster events. It is
// write-mostly: lobbies never restore their state from it.
package journal

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

type Entry struct {
	Lobby   string         `json:"lobby"`
	Version int            `json:"version"`
	Events  []roster.Event `json:"events"`
	At      time.Time      `json:"at"`
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Entries(ctx context.Context, lobby string) ([]Entry, error)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Entries(context.Context, string) ([]Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }

// Memory keeps entries in process; used by tests and when no database is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]Entry)}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Events = slices.Clone(e.Events)
	m.entries[e.Lobby] = append(m.entries[e.Lobby], e)
	return nil
}

func (m *Memory) Entries(_ context.Context, lobby string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries[lobby]), nil
}

func (m *Memory) Close() error { return nil }

// Events flattens entries into one event log, in version order.
func Events(entries []Entry) []roster.Event {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return a.Version - b.Version })
	var out []roster.Event
	for _, e := range sorted {
		out = append(out, e.Events...)
	}
	return out
}
