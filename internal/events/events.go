// Package events publishes league lifecycle notifications so other tools
// (Discord bots, stats pipelines) can react to roster changes without
// polling the API.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the server.
const (
	TypeLeagueCreated   = "league.created"
	TypeLeagueUpdated   = "league.updated"
	TypeLeagueDeleted   = "league.deleted"
	TypeDriverCreated   = "driver.created"
	TypeDriverUpdated   = "driver.updated"
	TypeDriverDeleted   = "driver.deleted"
	TypeImportCompleted = "import.completed"
	TypeRosterReset     = "roster.reset"
)

// Event is one league lifecycle notification.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	LeagueID   uuid.UUID      `json:"league_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers events to interested consumers. Implementations must
// tolerate best-effort delivery; the caller treats publish failures as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// stamp fills in the fields a caller usually leaves zero.
func stamp(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}

// Memory is an in-process Publisher that records everything it is given.
// Used in tests and as the default when no broker is configured.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory returns an empty in-memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stamp(e))
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByType returns published events of one type, in publish order.
func (m *Memory) ByType(eventType string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) Close() {}
