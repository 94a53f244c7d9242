package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const guardKeyPrefix = "reservation:submit:"

// Guard allows one submission per user at a time
type Guard interface {
	// Acquire returns ErrSubmissionInProgress when a submission for userID is running.
	Acquire(ctx context.Context, userID int64) (release func(), err error)
}

// NewGuard returns a Redis guard, or an in-memory one when redis is not configured.
func NewGuard(client *redis.Client, ttl time.Duration) Guard {
	if client == nil {
		return NewMemoryGuard()
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a SET NX lock with a TTL so a crashed instance cannot block a user forever
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func (g *RedisGuard) Acquire(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("%s%d", guardKeyPrefix, userID)
	token := uuid.New().String()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("submit guard: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("failed to release submit guard")
		}
	}, nil
}

// MemoryGuard is a process-local Guard
type MemoryGuard struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

// NewMemoryGuard creates in-memory guard
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{active: make(map[int64]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, userID int64) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[userID]; busy {
		return nil, ErrSubmissionInProgress
	}
	g.active[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, userID)
			g.mu.Unlock()
		})
	}, nil
}
