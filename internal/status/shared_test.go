package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type gatedFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (g *gatedFetcher) Fetch(ctx context.Context, reportID string) ([]byte, error) {
	g.calls.Add(1)
	<-g.gate
	if g.err != nil {
		return nil, g.err
	}
	return []byte(`{"report":"` + reportID + `"}`), nil
}

func TestSharedFetcherCollapsesCalls(t *testing.T) {
	inner := &gatedFetcher{gate: make(chan struct{})}
	f := NewSharedFetcher(inner)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := f.Fetch(context.Background(), "r-1")
			if err != nil {
				t.Errorf("Fetch() error = %v", err)
				return
			}
			results[i] = string(data)
		}(i)
	}

	// let every caller join the flight before releasing it
	deadline := time.Now().Add(time.Second)
	for inner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner fetches = %d, want 1", n)
	}
	for i, r := range results {
		if r != `{"report":"r-1"}` {
			t.Errorf("result %d = %q", i, r)
		}
	}
}

func TestSharedFetcherError(t *testing.T) {
	boom := errors.New("boom")
	inner := &gatedFetcher{gate: make(chan struct{}), err: boom}
	close(inner.gate)

	if _, err := NewSharedFetcher(inner).Fetch(context.Background(), "r-1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestSharedFetcherCallerCancel(t *testing.T) {
	inner := &gatedFetcher{gate: make(chan struct{})}
	defer close(inner.gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSharedFetcher(inner).Fetch(ctx, "r-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
