package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/coursekit/quizflow/internal/kvstore"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Set(ctx, "active_session:u1", "sess-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := kv.Get(ctx, "active_session:u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "sess-1" {
		t.Fatalf("value = %q", v)
	}

	// Overwrite wins.
	if err := kv.Set(ctx, "active_session:u1", "sess-2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ = kv.Get(ctx, "active_session:u1")
	if v != "sess-2" {
		t.Fatalf("value after overwrite = %q", v)
	}
}
