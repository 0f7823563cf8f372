package memory

import (
	"context"
	"sync"
	"testing"
)

func TestSubmitGuardSerializesPerAttempt(t *testing.T) {
	guard := NewSubmitGuard()

	var (
		mu      sync.Mutex
		running int
		peak    int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := guard.Acquire(context.Background(), "attempt-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			mu.Lock()
			running--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("expected one holder at a time, saw %d", peak)
	}
}

func TestSubmitGuardIndependentAttempts(t *testing.T) {
	guard := NewSubmitGuard()

	release1, err := guard.Acquire(context.Background(), "attempt-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release1()

	// A different attempt must not block.
	release2, err := guard.Acquire(context.Background(), "attempt-2")
	if err != nil {
		t.Fatalf("acquire other attempt: %v", err)
	}
	release2()
}
