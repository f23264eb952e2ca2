package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("key not found")

// KV is the injected key-value capability used by serving layers for small
// per-user bookkeeping (active session, last selected module). The session
// engine never depends on it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type memoryKV struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() KV {
	return &memoryKV{m: map[string]string{}}
}

func (s *memoryKV) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memoryKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

type sqlKV struct{ db *sql.DB }

func NewSQL(db *sql.DB) KV { return &sqlKV{db: db} }

func (s *sqlKV) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *sqlKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (k,v) VALUES ($1,$2) ON CONFLICT (k) DO UPDATE SET v=EXCLUDED.v`,
		key, value)
	return err
}
