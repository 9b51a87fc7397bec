// Package events publishes ledger change notifications.
//
// Events are small JSON documents carrying IDs and the amount involved;
// consumers fetch anything else they need from the API. Publishing is best
// effort: the service logs a failed publish and carries on.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the routing key of an event.
type Type string

const (
	ExpenseCreated     Type = "expense.created"
	ExpenseUpdated     Type = "expense.updated"
	ExpenseDeleted     Type = "expense.deleted"
	SettlementRecorded Type = "settlement.recorded"
	SettlementDeleted  Type = "settlement.deleted"
)

// Event is a change to a group's ledger.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	GroupID    string    `json:"group_id"`
	EntityID   string    `json:"entity_id"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(t Type, groupID, entityID, amount string) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		GroupID:    groupID,
		EntityID:   entityID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every published event, in order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	types := make([]Type, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
