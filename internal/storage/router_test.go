package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shiftmate/mediaflow-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlatform struct {
	describeErr error
	downloadErr error
}

func (s *stubPlatform) Describe(ctx context.Context, fileRef string) (types.StoredFile, error) {
	if s.describeErr != nil {
		return types.StoredFile{}, s.describeErr
	}
	return types.StoredFile{
		Kind:      types.FileKindPhoto,
		Backend:   types.BackendTelegram,
		Reference: fileRef,
		Size:      2048,
		MimeType:  "image/jpeg",
	}, nil
}

func (s *stubPlatform) Download(ctx context.Context, fileRef string) (io.ReadCloser, FileInfo, error) {
	if s.downloadErr != nil {
		return nil, FileInfo{}, s.downloadErr
	}
	info := FileInfo{Size: 2048, MimeType: "image/jpeg", Kind: types.FileKindPhoto}
	return io.NopCloser(strings.NewReader("photo-bytes")), info, nil
}

type stubObject struct {
	keys   []string
	putErr error
}

func (s *stubObject) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.keys = append(s.keys, key)
	return nil
}

type stubLedger struct {
	Storage
	recorded [][]types.StoredFile
}

func (s *stubLedger) RecordStoredFiles(ownerID string, flow *types.MediaFlow, files []types.StoredFile) error {
	s.recorded = append(s.recorded, files)
	return nil
}

func testRouterFlow(photos ...string) *types.MediaFlow {
	return &types.MediaFlow{
		ID:              "flow-1",
		UserID:          "user-1",
		OwnerID:         "owner-1",
		ContextType:     types.ContextTaskProof,
		ContextID:       "task-42",
		Config:          types.FlowConfig{MaxPhotos: len(photos)},
		CollectedPhotos: photos,
	}
}

func TestRouter_PersistTelegramMode(t *testing.T) {
	object := &stubObject{}
	ledger := &stubLedger{}
	router := NewRouter(&stubPlatform{}, object, ledger)

	files, err := router.Persist(context.Background(), testRouterFlow("f1", "f2"), types.StorageModeTelegram)
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, f := range files {
		assert.Equal(t, types.BackendTelegram, f.Backend)
	}

	// Telegram mode never touches the object store
	assert.Empty(t, object.keys)
	require.Len(t, ledger.recorded, 1)
}

func TestRouter_PersistObjectStoreMode(t *testing.T) {
	object := &stubObject{}
	ledger := &stubLedger{}
	router := NewRouter(&stubPlatform{}, object, ledger)

	flow := testRouterFlow("f1", "f2")
	files, err := router.Persist(context.Background(), flow, types.StorageModeObjectStore)
	require.NoError(t, err)
	require.Len(t, files, 2)

	for i, f := range files {
		assert.Equal(t, types.BackendObjectStore, f.Backend)
		assert.Equal(t, object.keys[i], f.Reference)
		assert.True(t, strings.HasPrefix(f.Reference, "task_proof/task-42/"))
	}
}

func TestRouter_PersistBothModeOrdering(t *testing.T) {
	object := &stubObject{}
	ledger := &stubLedger{}
	router := NewRouter(&stubPlatform{}, object, ledger)

	files, err := router.Persist(context.Background(), testRouterFlow("f1", "f2"), types.StorageModeBoth)
	require.NoError(t, err)
	require.Len(t, files, 4)

	// Per file: platform descriptor first, then the uploaded copy
	assert.Equal(t, types.BackendTelegram, files[0].Backend)
	assert.Equal(t, types.BackendObjectStore, files[1].Backend)
	assert.Equal(t, types.BackendTelegram, files[2].Backend)
	assert.Equal(t, types.BackendObjectStore, files[3].Backend)

	require.Len(t, ledger.recorded, 1)
	assert.Len(t, ledger.recorded[0], 4)
}

func TestRouter_PersistUnknownMode(t *testing.T) {
	router := NewRouter(&stubPlatform{}, &stubObject{}, &stubLedger{})

	_, err := router.Persist(context.Background(), testRouterFlow("f1"), types.StorageMode("floppy_disk"))
	require.Error(t, err)
}

func TestRouter_UploadFailureRecordsNothing(t *testing.T) {
	object := &stubObject{putErr: errors.New("connection reset")}
	ledger := &stubLedger{}
	router := NewRouter(&stubPlatform{}, object, ledger)

	_, err := router.Persist(context.Background(), testRouterFlow("f1"), types.StorageModeObjectStore)
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, types.BackendObjectStore, storageErr.Backend)
	assert.Equal(t, "f1", storageErr.FileRef)

	assert.Empty(t, ledger.recorded)
}

func TestRouter_DescribeFailureRecordsNothing(t *testing.T) {
	platform := &stubPlatform{describeErr: errors.New("file not found on platform")}
	ledger := &stubLedger{}
	router := NewRouter(platform, &stubObject{}, ledger)

	_, err := router.Persist(context.Background(), testRouterFlow("f1"), types.StorageModeTelegram)
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, types.BackendTelegram, storageErr.Backend)

	assert.Empty(t, ledger.recorded)
}

func TestRouter_EmptyFlowPersistsNothing(t *testing.T) {
	ledger := &stubLedger{}
	router := NewRouter(&stubPlatform{}, &stubObject{}, ledger)

	files, err := router.Persist(context.Background(), testRouterFlow(), types.StorageModeBoth)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, ledger.recorded)
}

func TestObjectKey_Deterministic(t *testing.T) {
	a := ObjectKey(types.ContextTaskProof, "task-42", "AgACAgIAAxkBAAIB", "image/jpeg")
	b := ObjectKey(types.ContextTaskProof, "task-42", "AgACAgIAAxkBAAIB", "image/jpeg")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "task_proof/task-42/AgACAgIAAxkBAAIB"))
}

func TestObjectKey_SanitizesFileRef(t *testing.T) {
	key := ObjectKey(types.ContextIncidentEvidence, "incident-7", "docs/photo/ref", "image/png")
	assert.Equal(t, "incident_evidence/incident-7/docs_photo_ref.png", key)
}

func TestObjectKey_UnknownContentType(t *testing.T) {
	key := ObjectKey(types.ContextCancellationProof, "shift-9", "ref-1", "application/x-mystery")
	assert.Equal(t, "cancellation_evidence/shift-9/ref-1", key)
}
