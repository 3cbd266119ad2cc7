package scripting

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCompileScriptCachesBySourceText(t *testing.T) {
	c := NewCache(2, zap.NewNop())
	defer c.Close()

	var arts []Artifact
	cb := func(a Artifact) { arts = append(arts, a) }

	c.CompileScript("function f() return 1 end", cb)
	c.CompileScript("function f() return 1 end", cb)

	if len(arts) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(arts))
	}
	if arts[0].Proto != arts[1].Proto {
		t.Fatalf("repeated compiles of identical source should share one artifact")
	}
}

func TestCompileScriptOnParseErrorCachesSentinel(t *testing.T) {
	c := NewCache(2, zap.NewNop())
	defer c.Close()

	var first, second Artifact
	c.CompileScript("this is not lua ((((", func(a Artifact) { first = a })
	c.CompileScript("this is not lua ((((", func(a Artifact) { second = a })

	if first.Err == nil || second.Err == nil {
		t.Fatalf("broken source should produce an error artifact on every lookup")
	}
}

func TestCompileScriptAsyncCoalescesConcurrentRequestsForSameSource(t *testing.T) {
	c := NewCache(4, zap.NewNop())
	defer c.Close()

	const n = 8
	var mu sync.Mutex
	var results []Artifact
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.CompileScriptAsync("function g() return 2 end", func(a Artifact) {
				mu.Lock()
				results = append(results, a)
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	// Drain the completion queue a few times: callbacks only fire from
	// RunQueue, on the caller's (main-loop) goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.RunQueue()
		mu.Lock()
		got := len(results)
		mu.Unlock()
		if got == n {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != n {
		t.Fatalf("got %d callbacks, want %d", len(results), n)
	}
	for _, a := range results[1:] {
		if a.Proto != results[0].Proto {
			t.Fatalf("coalesced compiles should all receive the same artifact")
		}
	}
}

func TestRunQueueIsNoOpWhenNothingPending(t *testing.T) {
	c := NewCache(1, zap.NewNop())
	defer c.Close()
	c.RunQueue() // must not panic or block
}
