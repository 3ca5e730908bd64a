package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) AccessSessionKey(accessID string) string {
	return "nexus:session:access:" + accessID
}

func newTestManager() (*Manager, *memoryStore) {
	store := newMemoryStore()
	return &Manager{store: store, keyer: prefixKeyer{}, ttl: time.Hour}, store
}

func TestManagerCreateAndCheck(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	if err := m.Create(ctx, accessID); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	ok, err := m.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session failed: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}
}

func TestManagerRevoke(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	if err := m.Create(ctx, accessID); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := m.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	ok, err := m.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session failed: %v", err)
	}
	if ok {
		t.Fatal("expected session to be revoked")
	}
}

func TestManagerHasSession_MissingIsNotError(t *testing.T) {
	m, _ := newTestManager()
	ok, err := m.HasSession(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("unknown session should not exist")
	}
}
