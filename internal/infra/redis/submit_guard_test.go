package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"classroom-quiz-service/internal/domain"
)

func TestSubmitGuardMutualExclusion(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	guard := NewSubmitGuard(newClient(mr), time.Minute)

	release, err := guard.Acquire(context.Background(), "attempt-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("attempt:submit:attempt-1") {
		t.Fatalf("expected lock key to be set")
	}

	if _, err := guard.Acquire(context.Background(), "attempt-1"); !errors.Is(err, domain.ErrAttemptBusy) {
		t.Fatalf("expected busy conflict while held, got %v", err)
	}

	// A different attempt is independent.
	otherRelease, err := guard.Acquire(context.Background(), "attempt-2")
	if err != nil {
		t.Fatalf("acquire other: %v", err)
	}
	otherRelease()

	release()
	if mr.Exists("attempt:submit:attempt-1") {
		t.Fatalf("expected lock key removed on release")
	}

	if release2, err := guard.Acquire(context.Background(), "attempt-1"); err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	} else {
		release2()
	}
}
