package quiz

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("quiz not found")

// Store persists quiz definitions. Get returns the student-safe view with
// answer keys and explanations stripped; GetFull is for the session engine
// and teacher surfaces.
type Store interface {
	Put(ctx context.Context, d Definition) error
	Get(ctx context.Context, id string) (Definition, error)
	GetFull(ctx context.Context, id string) (Definition, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]Definition
}

func NewInMemoryStore() Store {
	return &memoryStore{quizzes: map[string]Definition{}}
}

func (m *memoryStore) Put(_ context.Context, d Definition) error {
	if err := Validate(d); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[d.ID] = d
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (Definition, error) {
	d, err := m.GetFull(ctx, id)
	if err != nil {
		return Definition{}, err
	}
	return StudentView(d), nil
}

func (m *memoryStore) GetFull(_ context.Context, id string) (Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.quizzes[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return d, nil
}

// StudentView copies the definition with answer keys and explanations
// removed, so a definition served before the attempt cannot leak grading
// material.
func StudentView(d Definition) Definition {
	out := d
	out.Questions = make([]Question, len(d.Questions))
	copy(out.Questions, d.Questions)
	for i := range out.Questions {
		out.Questions[i].Answer = ""
		out.Questions[i].Explanation = ""
	}
	return out
}
