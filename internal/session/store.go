package session

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("session not found")

// Delivery status of the completed attempt's outbound report.
const (
	DeliveryPending = "pending"
	DeliveryOK      = "ok"
	DeliveryFailed  = "failed"
)

// Session is one stored attempt: the engine state plus the linkage that
// arrived with the start request. ActivityID/ModuleID are optional; when
// present they gate activity-completion signaling.
type Session struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	QuizID      string `json:"quiz_id"`
	ActivityID  string `json:"activity_id,omitempty"`
	ModuleID    string `json:"module_id,omitempty"`
	State       State  `json:"state"`
	CompletedAt int64  `json:"completed_at,omitempty"`

	DeliveryStatus string `json:"delivery_status,omitempty"`
	DeliveryError  string `json:"delivery_error,omitempty"`
}

type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)

	MarkDeliveryPending(ctx context.Context, id string) error
	MarkDeliveryOK(ctx context.Context, id string) error
	MarkDeliveryFailed(ctx context.Context, id string, cause string) error
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewInMemoryStore() Store {
	return &memoryStore{sessions: map[string]Session{}}
}

func (m *memoryStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) MarkDeliveryPending(ctx context.Context, id string) error {
	return m.setDelivery(id, DeliveryPending, "")
}

func (m *memoryStore) MarkDeliveryOK(ctx context.Context, id string) error {
	return m.setDelivery(id, DeliveryOK, "")
}

func (m *memoryStore) MarkDeliveryFailed(ctx context.Context, id string, cause string) error {
	return m.setDelivery(id, DeliveryFailed, cause)
}

func (m *memoryStore) setDelivery(id, status, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.DeliveryStatus = status
	s.DeliveryError = cause
	m.sessions[id] = s
	return nil
}
