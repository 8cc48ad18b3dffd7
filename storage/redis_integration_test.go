package storage

import (
	"os"
	"testing"
	"time"
)

func redisStore(t *testing.T) *Redis[post] {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	s := NewRedis[post](addr, "", 0, "burrowtest:"+t.Name()+":")
	t.Cleanup(func() {
		_ = s.Clear(t.Context(), ClearAll)
		_ = s.Close()
	})
	if err := s.Ping(t.Context()); err != nil {
		t.Fatalf("cannot reach Redis at %s: %v", addr, err)
	}
	return s
}

func TestRedis_PutGet(t *testing.T) {
	s := redisStore(t)
	ctx := t.Context()

	if _, ok := s.Get(ctx, "p1"); ok {
		t.Fatal("expected miss")
	}

	want := post{ID: "p1", Title: "hello"}
	if err := s.Put(ctx, "p1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get(ctx, "p1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestRedis_GetFresh(t *testing.T) {
	s := redisStore(t)
	ctx := t.Context()

	if err := s.Put(ctx, "p1", post{ID: "p1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := s.GetFresh(ctx, "p1", time.Minute); !ok {
		t.Fatal("fresh entry must be a hit")
	}
	// Wait out a tiny TTL; the stale entry is kept for fallback reads.
	time.Sleep(2 * time.Millisecond)
	if _, ok := s.GetFresh(ctx, "p1", time.Millisecond); ok {
		t.Fatal("stale entry must be a miss")
	}
	if _, ok := s.Get(ctx, "p1"); !ok {
		t.Fatal("stale entry must survive GetFresh")
	}
}

func TestRedis_RemoveAndClear(t *testing.T) {
	s := redisStore(t)
	ctx := t.Context()

	for _, key := range []string{"a", "b"} {
		if err := s.Put(ctx, key, post{ID: key}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Get(ctx, "a"); ok {
		t.Fatal("expected miss after Remove")
	}
	if err := s.Clear(ctx, ClearAll); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Get(ctx, "b"); ok {
		t.Fatal("expected miss after Clear")
	}
}
