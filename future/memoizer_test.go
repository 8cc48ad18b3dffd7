package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoizer_ComputesOncePerKey(t *testing.T) {
	m := NewMemoizer[string, int]()
	ctx := t.Context()

	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	for range 3 {
		v, err := m.Do(ctx, "k", fn)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn called %d times, want 1", got)
	}
}

func TestMemoizer_ConcurrentCallersShareOneCall(t *testing.T) {
	m := NewMemoizer[string, string]()
	ctx := t.Context()

	var calls atomic.Int32
	start := make(chan struct{})
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-start
		return "shared", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Do(ctx, "k", fn)
			if err != nil {
				t.Errorf("Do: %v", err)
			}
			results[i] = v
		}()
	}
	// Let the racers pile up, then release the single running fn. Extra
	// callers that arrive later either wait on the same call or find the
	// memoized result.
	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fn called %d times, want 1", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("caller %d got %q, want %q", i, v, "shared")
		}
	}
}

func TestMemoizer_FailureNotCached(t *testing.T) {
	m := NewMemoizer[string, int]()
	ctx := t.Context()

	boom := errors.New("boom")
	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := m.Do(ctx, "k", fn); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed call left in map, Len = %d", m.Len())
	}

	v, err := m.Do(ctx, "k", fn)
	if err != nil {
		t.Fatalf("retry Do: %v", err)
	}
	if v != 7 {
		t.Fatalf("got %d, want 7", v)
	}
}

func TestMemoizer_ForgetAllowsRecompute(t *testing.T) {
	m := NewMemoizer[string, int]()
	ctx := t.Context()

	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v, _ := m.Do(ctx, "k", fn)
	if v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	m.Forget("k")
	v, _ = m.Do(ctx, "k", fn)
	if v != 2 {
		t.Fatalf("got %d, want 2 after Forget", v)
	}
}

func TestMemoizer_KeysAreIndependent(t *testing.T) {
	m := NewMemoizer[string, string]()
	ctx := t.Context()

	a, _ := m.Do(ctx, "a", func(context.Context) (string, error) { return "va", nil })
	b, _ := m.Do(ctx, "b", func(context.Context) (string, error) { return "vb", nil })
	if a != "va" || b != "vb" {
		t.Fatalf("got %q/%q, want va/vb", a, b)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", m.Len())
	}
}
