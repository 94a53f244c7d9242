package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "selection:"

	maxUpdateRetries = 10
)

// ErrConcurrentUpdate is returned when an update keeps losing optimistic races.
var ErrConcurrentUpdate = errors.New("selection changed concurrently, try again")

// UpdateFunc mutates sel in place. Returning an error aborts the update and nothing is saved.
type UpdateFunc func(sel *Selection) error

// Store keeps one selection per user
type Store interface {
	Get(ctx context.Context, userID int64) (*Selection, error)
	Save(ctx context.Context, userID int64, sel *Selection) error
	Delete(ctx context.Context, userID int64) error
	// Update applies fn to the current selection and saves the result atomically per user. fn may
	// run more than once and must not have side effects.
	Update(ctx context.Context, userID int64, fn UpdateFunc) (*Selection, error)
}

// NewStore returns a Redis store, or an in-memory one when redis is not configured.
func NewStore(client *redis.Client, ttl time.Duration) Store {
	if client == nil {
		return NewMemoryStore(ttl)
	}
	return NewRedisStore(client, ttl)
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

// RedisStore stores selections as JSON with a sliding TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the stored selection, an empty one when nothing is stored. Reading refreshes the TTL.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Selection, error) {
	raw, err := s.client.GetEx(ctx, key(userID), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Selection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selection get: %w", err)
	}

	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return nil, fmt.Errorf("selection decode: %w", err)
	}
	return &sel, nil
}

// Save overwrites the user's selection
func (s *RedisStore) Save(ctx context.Context, userID int64, sel *Selection) error {
	raw, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("selection encode: %w", err)
	}
	if err := s.client.Set(ctx, key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("selection save: %w", err)
	}
	return nil
}

// Delete drops the user's selection
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("selection delete: %w", err)
	}
	return nil
}

// Update runs fn under WATCH and commits with MULTI/EXEC, retrying when another writer got in first.
func (s *RedisStore) Update(ctx context.Context, userID int64, fn UpdateFunc) (*Selection, error) {
	k := key(userID)
	var out *Selection

	txf := func(tx *redis.Tx) error {
		sel := &Selection{}
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("selection get: %w", err)
		default:
			if err := json.Unmarshal(raw, sel); err != nil {
				return fmt.Errorf("selection decode: %w", err)
			}
		}

		if err := fn(sel); err != nil {
			return err
		}

		encoded, err := json.Marshal(sel)
		if err != nil {
			return fmt.Errorf("selection encode: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = sel
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConcurrentUpdate
}

type memoryEntry struct {
	sel     Selection
	expires time.Time
}

// MemoryStore is a process-local Store for development and tests
type MemoryStore struct {
	mu    sync.Mutex
	items map[int64]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[userID]
	if !ok {
		return &Selection{}, nil
	}
	now := s.now()
	if s.ttl > 0 && now.After(entry.expires) {
		delete(s.items, userID)
		return &Selection{}, nil
	}
	entry.expires = now.Add(s.ttl)
	s.items[userID] = entry

	sel := entry.sel.Clone()
	return &sel, nil
}

func (s *MemoryStore) Save(_ context.Context, userID int64, sel *Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[userID] = memoryEntry{sel: sel.Clone(), expires: s.now().Add(s.ttl)}
	return nil
}

// Update holds the store lock across fn.
func (s *MemoryStore) Update(_ context.Context, userID int64, fn UpdateFunc) (*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sel := Selection{}
	if entry, ok := s.items[userID]; ok && (s.ttl <= 0 || !now.After(entry.expires)) {
		sel = entry.sel.Clone()
	}

	if err := fn(&sel); err != nil {
		return nil, err
	}

	s.items[userID] = memoryEntry{sel: sel.Clone(), expires: now.Add(s.ttl)}
	return &sel, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, userID)
	return nil
}
