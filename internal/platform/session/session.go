// Package session holds per-user session state that outlives a single
// request: the guardian's currently selected student. The selection is set
// when a guardian picks a child, read by any operation acting on "the
// current child", and cleared on logout.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNoSelection is returned when a user has no selected student.
var ErrNoSelection = errors.New("no student selected")

// SelectionStore persists the per-user selected-student pointer.
type SelectionStore interface {
	SetSelectedStudent(ctx context.Context, userID string, studentID uuid.UUID) error
	SelectedStudent(ctx context.Context, userID string) (uuid.UUID, error)
	ClearSelectedStudent(ctx context.Context, userID string) error
}

const (
	keyPrefix    = "schoolmed:selected_student:"
	selectionTTL = 12 * time.Hour
)

// RedisStore keeps selections in Redis so they survive server restarts and
// are shared across replicas.
type RedisStore struct {
	c *redis.Client
}

func NewRedisStore(c *redis.Client) *RedisStore { return &RedisStore{c: c} }

func (s *RedisStore) SetSelectedStudent(ctx context.Context, userID string, studentID uuid.UUID) error {
	return s.c.Set(ctx, keyPrefix+userID, studentID.String(), selectionTTL).Err()
}

func (s *RedisStore) SelectedStudent(ctx context.Context, userID string) (uuid.UUID, error) {
	val, err := s.c.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, ErrNoSelection
		}
		return uuid.Nil, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrNoSelection
	}
	return id, nil
}

func (s *RedisStore) ClearSelectedStudent(ctx context.Context, userID string) error {
	return s.c.Del(ctx, keyPrefix+userID).Err()
}

// MemoryStore is the in-process fallback used when no REDIS_URL is
// configured (single-instance deployments and tests).
type MemoryStore struct {
	mu         sync.RWMutex
	selections map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{selections: make(map[string]uuid.UUID)}
}

func (s *MemoryStore) SetSelectedStudent(_ context.Context, userID string, studentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[userID] = studentID
	return nil
}

func (s *MemoryStore) SelectedStudent(_ context.Context, userID string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.selections[userID]
	if !ok {
		return uuid.Nil, ErrNoSelection
	}
	return id, nil
}

func (s *MemoryStore) ClearSelectedStudent(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, userID)
	return nil
}
