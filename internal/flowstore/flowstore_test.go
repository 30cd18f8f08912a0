package flowstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	// Test connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, mr, cleanup
}

func testFlow(userID string) *types.MediaFlow {
	return &types.MediaFlow{
		ID:          "flow-1",
		UserID:      userID,
		OwnerID:     "owner-1",
		ContextType: types.ContextTaskProof,
		ContextID:   "task-42",
		Config: types.FlowConfig{
			RequirePhoto: true,
			MaxPhotos:    3,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore_CreateEnforcesUniqueness(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)
	ctx := context.Background()

	created, err := store.Create(ctx, testFlow("user-1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !created {
		t.Fatal("Expected first create to succeed")
	}

	created, err = store.Create(ctx, testFlow("user-1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created {
		t.Fatal("Expected second create for the same user to be rejected")
	}

	// A different user is unaffected
	created, err = store.Create(ctx, testFlow("user-2"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !created {
		t.Fatal("Expected create for a different user to succeed")
	}
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)

	flow, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if flow != nil {
		t.Fatalf("Expected nil flow, got %+v", flow)
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)
	ctx := context.Background()

	flow := testFlow("user-1")
	if _, err := store.Create(ctx, flow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	flow.CollectedPhotos = append(flow.CollectedPhotos, "file-a", "file-b")
	flow.CollectedText = "shelves restocked"
	if err := store.Save(ctx, flow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected flow to be present")
	}
	if len(got.CollectedPhotos) != 2 {
		t.Fatalf("Expected 2 collected photos, got %d", len(got.CollectedPhotos))
	}
	if got.CollectedText != "shelves restocked" {
		t.Fatalf("Unexpected collected text: %q", got.CollectedText)
	}
}

func TestStore_SaveKeepsTTL(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)
	ctx := context.Background()

	flow := testFlow("user-1")
	if _, err := store.Create(ctx, flow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Halfway through the TTL, a save must not reset the deadline
	mr.FastForward(30 * time.Second)

	flow.CollectedPhotos = append(flow.CollectedPhotos, "file-a")
	if err := store.Save(ctx, flow); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mr.FastForward(31 * time.Second)

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("Expected flow to expire at its original deadline")
	}
}

func TestStore_ExpiredFlowIsGone(t *testing.T) {
	redisClient, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)
	ctx := context.Background()

	if _, err := store.Create(ctx, testFlow("user-1")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	flow, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if flow != nil {
		t.Fatal("Expected expired flow to be reclaimed")
	}

	// The user can begin again after expiry
	created, err := store.Create(ctx, testFlow("user-1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !created {
		t.Fatal("Expected create to succeed after expiry")
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	redisClient, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Minute)
	ctx := context.Background()

	if _, err := store.Create(ctx, testFlow("user-1")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Expected second delete to be a no-op, got %v", err)
	}

	flow, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if flow != nil {
		t.Fatal("Expected no flow after delete")
	}
}
