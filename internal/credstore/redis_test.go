package credstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestSaveLoadDelete(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisStore(client, "test")
	ctx := context.Background()

	// Missing creds load as nil, not an error
	data, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil creds, got %q", data)
	}

	if err := store.Save(ctx, "sess-1", []byte("opaque-blob")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err = store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "opaque-blob" {
		t.Errorf("expected opaque-blob, got %q", data)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	data, err = store.Load(ctx, "sess-1")
	if err != nil || data != nil {
		t.Fatalf("expected nil after delete, got %q err %v", data, err)
	}

	// Deleting again is a no-op
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	a := NewRedisStore(client, "deploy-a")
	b := NewRedisStore(client, "deploy-b")

	if err := a.Save(ctx, "sess-1", []byte("a-creds")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := b.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data != nil {
		t.Errorf("prefix b should not see prefix a's creds, got %q", data)
	}
}
