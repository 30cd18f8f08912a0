package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shiftmate/mediaflow-service/internal/types"
)

type Storage interface {
	CreateOwner(name, secretHash string) (string, error)
	GetOwnerByName(name string) (string, string, error)
	GetStorageMode(ownerID string, contextType types.ContextType) (types.StorageMode, error)
	SetStorageMode(ownerID string, contextType types.ContextType, mode types.StorageMode) error
	RecordStoredFiles(ownerID string, flow *types.MediaFlow, files []types.StoredFile) error
	IsObjectCommitted(objectKey string) (bool, error)
}

// FileInfo describes a platform-hosted file ahead of transfer.
type FileInfo struct {
	Size     int64
	MimeType string
	Kind     types.FileKind
}

// PlatformBackend is the messaging-platform side of persistence. Describe is
// metadata only; Download streams the file's bytes for re-hosting.
type PlatformBackend interface {
	Describe(ctx context.Context, fileRef string) (types.StoredFile, error)
	Download(ctx context.Context, fileRef string) (io.ReadCloser, FileInfo, error)
}

// ObjectBackend uploads bytes to an S3-compatible store under a caller-chosen
// key. Uploading to an existing key overwrites it.
type ObjectBackend interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// StorageError wraps a backend I/O failure during persistence. The caller can
// retry the whole finish; nothing was committed.
type StorageError struct {
	Backend types.BackendKind
	FileRef string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s backend failed for file %s: %v", e.Backend, e.FileRef, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
