package flowstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

// FlowKey is the per-user flow record key pattern
const FlowKey = "flow:user:%s" // flow:user:userID

// Store keeps at most one in-progress media flow per user in Redis. Records
// carry a TTL so abandoned conversations are reclaimed without a sweeper.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a new flow store
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Create persists a new flow record. It returns false without writing when a
// record already exists for the flow's user; the SET NX write doubles as the
// single-flow-per-user uniqueness check.
func (s *Store) Create(ctx context.Context, flow *types.MediaFlow) (bool, error) {
	key := fmt.Sprintf(FlowKey, flow.UserID)

	data, err := json.Marshal(flow)
	if err != nil {
		return false, fmt.Errorf("failed to encode flow: %w", err)
	}

	created, err := s.redis.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create flow record: %w", err)
	}

	return created, nil
}

// Get returns the user's active flow, or nil if there is none (or it expired).
func (s *Store) Get(ctx context.Context, userID string) (*types.MediaFlow, error) {
	key := fmt.Sprintf(FlowKey, userID)

	data, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flow record: %w", err)
	}

	var flow types.MediaFlow
	if err := json.Unmarshal([]byte(data), &flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow record: %w", err)
	}

	return &flow, nil
}

// Save rewrites an existing flow record, keeping its remaining TTL. The
// collection deadline is absolute from Begin; activity does not extend it.
func (s *Store) Save(ctx context.Context, flow *types.MediaFlow) error {
	key := fmt.Sprintf(FlowKey, flow.UserID)

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow: %w", err)
	}

	if err := s.redis.Set(ctx, key, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to save flow record: %w", err)
	}

	return nil
}

// Delete removes the user's flow record. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	key := fmt.Sprintf(FlowKey, userID)
	return s.redis.Del(ctx, key).Err()
}
