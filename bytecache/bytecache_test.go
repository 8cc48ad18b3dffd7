package bytecache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/burrowkit/burrow/fetch"
	"github.com/burrowkit/burrow/request"
)

func mustNewCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 1 << 20
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := mustNewCache(t, Config{})

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss")
	}
	if err := c.Put(t.Context(), "k", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	val, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(val) != "payload" {
		t.Fatalf("got %q", val)
	}
}

func TestCache_FetchCachesDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	c := mustNewCache(t, Config{Client: fetch.New(fetch.WithRetry(1, time.Millisecond, time.Millisecond))})

	for range 3 {
		val, err := c.Fetch(t.Context(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(val) != "image-bytes" {
			t.Fatalf("got %q", val)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server saw %d downloads, want 1", got)
	}
}

func TestCache_FetchFailureNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := mustNewCache(t, Config{Client: fetch.New(fetch.WithRetry(1, time.Millisecond, time.Millisecond))})

	if _, err := c.Fetch(t.Context(), srv.URL); err == nil {
		t.Fatal("expected first fetch to fail")
	}
	val, err := c.Fetch(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("retry Fetch: %v", err)
	}
	if string(val) != "ok" {
		t.Fatalf("got %q", val)
	}
}

func TestCache_Remove(t *testing.T) {
	c := mustNewCache(t, Config{})
	if err := c.Put(t.Context(), "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Remove(t.Context(), "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Remove")
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := mustNewCache(t, Config{})
	if err := c.Put(t.Context(), "k", []byte("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v1, _ := c.Get("k")
	v1[0] = 'X'
	v2, _ := c.Get("k")
	if string(v2) != "abc" {
		t.Fatalf("cached payload mutated: %q", v2)
	}
}

func TestCache_MemoryKeyMatchesURLHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("v"))
	}))
	defer srv.Close()

	c := mustNewCache(t, Config{Client: fetch.New(fetch.WithRetry(1, time.Millisecond, time.Millisecond))})
	if _, err := c.Fetch(t.Context(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, ok := c.Get(request.HashURL(srv.URL)); !ok {
		t.Fatal("fetched payload must be stored under the URL hash")
	}
}
