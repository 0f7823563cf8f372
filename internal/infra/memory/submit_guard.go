package memory

import (
	"context"
	"sync"
)

// SubmitGuard serializes attempt mutations in-process with one mutex per
// attempt ID. Mutexes are kept for the life of the process; attempts are
// bounded by enrollment so this does not grow unbounded.
type SubmitGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{locks: make(map[string]*sync.Mutex)}
}

func (g *SubmitGuard) Acquire(_ context.Context, attemptID string) (func(), error) {
	g.mu.Lock()
	lock, ok := g.locks[attemptID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[attemptID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock, nil
}
