package events

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// Event types appended by the session host.
const (
	TypeAttemptStarted   = "AttemptStarted"
	TypeAttemptCompleted = "AttemptCompleted"
)

type Event struct {
	Seq       int64
	Type      string
	Key       string // natural key: session ID
	DataJSON  string
	CreatedAt int64
}

// Repo is the append-only event log backing audit and replay.
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, key, dataJSON string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, dataJSON, time.Now().Unix())
	return err
}

// MemoryRepo keeps events in memory, for tests and store-less runs.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, typ, key, dataJSON string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		Seq:       int64(len(r.events) + 1),
		Type:      typ,
		Key:       key,
		DataJSON:  dataJSON,
		CreatedAt: time.Now().Unix(),
	})
	return nil
}

func (r *MemoryRepo) All() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
