package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shiftmate/mediaflow-service/internal/flowstore"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

// fakePlatform serves file metadata and bytes without talking to Telegram.
type fakePlatform struct{}

func (f *fakePlatform) Describe(ctx context.Context, fileRef string) (types.StoredFile, error) {
	return types.StoredFile{
		Kind:      types.FileKindPhoto,
		Backend:   types.BackendTelegram,
		Reference: fileRef,
		Size:      1024,
		MimeType:  "image/jpeg",
	}, nil
}

func (f *fakePlatform) Download(ctx context.Context, fileRef string) (io.ReadCloser, storage.FileInfo, error) {
	info := storage.FileInfo{Size: 1024, MimeType: "image/jpeg", Kind: types.FileKindPhoto}
	return io.NopCloser(strings.NewReader("fake-bytes")), info, nil
}

// fakeObject records uploads and can fail exactly once, on the nth Put call.
type fakeObject struct {
	puts       map[string]int
	calls      int
	failOnCall int
}

func newFakeObject() *fakeObject {
	return &fakeObject{puts: make(map[string]int)}
}

func (f *fakeObject) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	f.calls++
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		f.failOnCall = 0
		return errors.New("upload timed out")
	}
	f.puts[key]++
	return nil
}

// fakeLedger implements storage.Storage for router wiring in tests.
type fakeLedger struct {
	batches int
	refs    []string
}

func (f *fakeLedger) CreateOwner(name, secretHash string) (string, error) { return "1", nil }
func (f *fakeLedger) GetOwnerByName(name string) (string, string, error) { return "1", "", nil }
func (f *fakeLedger) GetStorageMode(ownerID string, contextType types.ContextType) (types.StorageMode, error) {
	return types.StorageModeTelegram, nil
}
func (f *fakeLedger) SetStorageMode(ownerID string, contextType types.ContextType, mode types.StorageMode) error {
	return nil
}
func (f *fakeLedger) RecordStoredFiles(ownerID string, flow *types.MediaFlow, files []types.StoredFile) error {
	f.batches++
	for _, file := range files {
		f.refs = append(f.refs, file.Reference)
	}
	return nil
}
func (f *fakeLedger) IsObjectCommitted(objectKey string) (bool, error) { return false, nil }

type fakePublisher struct {
	persisted int
	cancelled int
}

func (f *fakePublisher) PublishMediaPersisted(flow *types.MediaFlow, mode types.StorageMode, files []types.StoredFile) error {
	f.persisted++
	return nil
}

func (f *fakePublisher) PublishFlowCancelled(flow *types.MediaFlow) error {
	f.cancelled++
	return nil
}

type coordinatorFixture struct {
	coordinator *Coordinator
	object      *fakeObject
	ledger      *fakeLedger
	publisher   *fakePublisher
	mr          *miniredis.Miniredis
}

func setupCoordinator(t *testing.T) (*coordinatorFixture, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	object := newFakeObject()
	ledger := &fakeLedger{}
	publisher := &fakePublisher{}

	router := storage.NewRouter(&fakePlatform{}, object, ledger)
	store := flowstore.NewStore(redisClient, 15*time.Minute)
	coordinator := NewCoordinator(store, router, publisher)

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return &coordinatorFixture{
		coordinator: coordinator,
		object:      object,
		ledger:      ledger,
		publisher:   publisher,
		mr:          mr,
	}, cleanup
}

func beginTestFlow(t *testing.T, c *Coordinator, userID string, cfg types.FlowConfig) *types.MediaFlow {
	t.Helper()

	flow, err := c.Begin(context.Background(), "owner-1", userID, types.ContextTaskProof, "task-42", cfg)
	if err != nil {
		t.Fatalf("Unexpected error from Begin: %v", err)
	}
	return flow
}

func TestBegin_SecondFlowConflicts(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 3})

	_, err := fx.coordinator.Begin(context.Background(), "owner-1", "user-1", types.ContextIncidentEvidence, "incident-7", types.FlowConfig{MaxPhotos: 1})
	if !errors.Is(err, ErrFlowConflict) {
		t.Fatalf("Expected ErrFlowConflict, got %v", err)
	}

	// Other users are unaffected
	beginTestFlow(t, fx.coordinator, "user-2", types.FlowConfig{MaxPhotos: 3})
}

func TestBegin_RejectsUnknownContextType(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()

	_, err := fx.coordinator.Begin(context.Background(), "owner-1", "user-1", "vacation_photos", "x", types.FlowConfig{MaxPhotos: 1})
	if err == nil {
		t.Fatal("Expected error for unknown context type")
	}
}

func TestAddPhoto_NoActiveFlow(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()

	_, err := fx.coordinator.AddPhoto(context.Background(), "user-1", "file-a")
	if !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("Expected ErrFlowNotFound, got %v", err)
	}
}

func TestAddPhoto_LimitNeverMutatesState(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 2})

	for i := 0; i < 2; i++ {
		if _, err := fx.coordinator.AddPhoto(ctx, "user-1", fmt.Sprintf("file-%d", i)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	_, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-over")
	if !errors.Is(err, ErrPhotoLimit) {
		t.Fatalf("Expected ErrPhotoLimit, got %v", err)
	}

	flow, err := fx.coordinator.GetFlow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(flow.CollectedPhotos) != 2 {
		t.Fatalf("Expected photo count to stay at 2, got %d", len(flow.CollectedPhotos))
	}
}

func TestAddText_LastWriteWins(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{RequireText: true, MaxPhotos: 1})

	if _, err := fx.coordinator.AddText(ctx, "user-1", "first note"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := fx.coordinator.AddText(ctx, "user-1", "second note"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow.CollectedText != "second note" {
		t.Fatalf("Expected last write to win, got %q", flow.CollectedText)
	}
}

func TestAddText_IgnoredWhenNotRequired(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{RequireText: false, MaxPhotos: 1})

	if _, err := fx.coordinator.AddText(ctx, "user-1", "ignored"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow.CollectedText != "" {
		t.Fatalf("Expected text to be ignored, got %q", flow.CollectedText)
	}
}

func TestFinish_IncompleteWithoutSkip(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{RequirePhoto: true, MaxPhotos: 3})

	_, err := fx.coordinator.Finish(ctx, "user-1", types.StorageModeTelegram)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Expected ErrIncomplete, got %v", err)
	}

	// The flow survives a rejected finish
	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow == nil {
		t.Fatal("Expected flow to survive an incomplete finish")
	}
}

func TestFinish_AllowSkipBypassesConstraints(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{RequirePhoto: true, MaxPhotos: 3, AllowSkip: true})

	files, err := fx.coordinator.Finish(ctx, "user-1", types.StorageModeTelegram)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("Expected no stored files for an empty skipped flow, got %d", len(files))
	}

	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow != nil {
		t.Fatal("Expected flow to be deleted after finish")
	}
}

func TestFinish_BothModeScenario(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 3})

	if _, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-2"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	files, err := fx.coordinator.Finish(ctx, "user-1", types.StorageModeBoth)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Two descriptors per photo: telegram and object store
	if len(files) != 4 {
		t.Fatalf("Expected 4 stored files, got %d", len(files))
	}

	telegramCount, objectCount := 0, 0
	for _, f := range files {
		switch f.Backend {
		case types.BackendTelegram:
			telegramCount++
		case types.BackendObjectStore:
			objectCount++
		}
	}
	if telegramCount != 2 || objectCount != 2 {
		t.Fatalf("Expected 2 descriptors per backend, got telegram=%d object=%d", telegramCount, objectCount)
	}

	if fx.publisher.persisted != 1 {
		t.Fatalf("Expected 1 media persisted event, got %d", fx.publisher.persisted)
	}
	if fx.ledger.batches != 1 {
		t.Fatalf("Expected 1 recorded batch, got %d", fx.ledger.batches)
	}

	// The flow is consumed; further photos are rejected
	if _, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-3"); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("Expected ErrFlowNotFound after finish, got %v", err)
	}
}

func TestFinish_StorageFailureKeepsFlowAndRetries(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 3})

	if _, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-2"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Fail the second of the two uploads
	fx.object.failOnCall = 2

	_, err := fx.coordinator.Finish(ctx, "user-1", types.StorageModeObjectStore)
	if err == nil {
		t.Fatal("Expected finish to fail as a whole")
	}
	var storageErr *storage.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected a StorageError, got %v", err)
	}

	// Nothing was committed and the flow is still retrievable
	if fx.ledger.batches != 0 {
		t.Fatalf("Expected no recorded batch after failure, got %d", fx.ledger.batches)
	}
	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow == nil {
		t.Fatal("Expected flow to survive the failed finish")
	}

	// Retry succeeds and overwrites the same keys instead of duplicating
	files, err := fx.coordinator.Finish(ctx, "user-1", types.StorageModeObjectStore)
	if err != nil {
		t.Fatalf("Unexpected error on retry: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 stored files, got %d", len(files))
	}
	if len(fx.object.puts) != 2 {
		t.Fatalf("Expected 2 distinct object keys after retry, got %d", len(fx.object.puts))
	}
	if fx.ledger.batches != 1 {
		t.Fatalf("Expected 1 recorded batch after retry, got %d", fx.ledger.batches)
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 1})

	if err := fx.coordinator.Cancel(ctx, "user-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := fx.coordinator.Cancel(ctx, "user-1"); err != nil {
		t.Fatalf("Expected second cancel to be a no-op, got %v", err)
	}

	flow, _ := fx.coordinator.GetFlow(ctx, "user-1")
	if flow != nil {
		t.Fatal("Expected no flow after cancel")
	}

	if fx.publisher.cancelled != 1 {
		t.Fatalf("Expected 1 cancellation event, got %d", fx.publisher.cancelled)
	}

	// The user can begin a fresh flow after cancelling
	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 1})
}

func TestExpiredFlowSurfacesAsNotFound(t *testing.T) {
	fx, cleanup := setupCoordinator(t)
	defer cleanup()
	ctx := context.Background()

	beginTestFlow(t, fx.coordinator, "user-1", types.FlowConfig{MaxPhotos: 1})

	fx.mr.FastForward(16 * time.Minute)

	_, err := fx.coordinator.AddPhoto(ctx, "user-1", "file-late")
	if !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("Expected ErrFlowNotFound after expiry, got %v", err)
	}
}
