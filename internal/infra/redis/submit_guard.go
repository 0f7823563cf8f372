package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"classroom-quiz-service/internal/domain"
)

// SubmitGuard serializes attempt mutations across instances with a SET NX
// lock per attempt: SET attempt:submit:{attemptID} 1 NX EX {ttl}. The TTL
// bounds how long a crashed holder can block an attempt.
type SubmitGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmitGuard(client *redis.Client, ttl time.Duration) *SubmitGuard {
	return &SubmitGuard{client: client, ttl: ttl}
}

func (g *SubmitGuard) Acquire(ctx context.Context, attemptID string) (func(), error) {
	key := g.key(attemptID)
	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAttemptBusy
	}
	release := func() {
		_ = g.client.Del(context.Background(), key).Err()
	}
	return release, nil
}

func (g *SubmitGuard) key(attemptID string) string {
	return "attempt:submit:" + attemptID
}
