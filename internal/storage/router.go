package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/shiftmate/mediaflow-service/internal/types"
)

// Router persists a flow's buffered files through the backend(s) selected by
// the storage mode. A batch either commits as a whole or fails as a whole:
// any backend error aborts the call and nothing is recorded in the ledger,
// leaving the flow intact for retry. Object keys are deterministic, so a
// retried batch overwrites its earlier uploads instead of duplicating them.
type Router struct {
	platform PlatformBackend
	object   ObjectBackend
	ledger   Storage
}

// NewRouter creates a new storage router
func NewRouter(platform PlatformBackend, object ObjectBackend, ledger Storage) *Router {
	return &Router{
		platform: platform,
		object:   object,
		ledger:   ledger,
	}
}

// Persist stores every buffered file of the flow under the given mode and
// returns the resulting descriptors. In "both" mode each file yields two
// descriptors, the platform one first.
func (r *Router) Persist(ctx context.Context, flow *types.MediaFlow, mode types.StorageMode) ([]types.StoredFile, error) {
	var files []types.StoredFile

	for _, fileRef := range flow.CollectedPhotos {
		switch mode {
		case types.StorageModeTelegram:
			desc, err := r.describePlatformFile(ctx, fileRef)
			if err != nil {
				return nil, err
			}
			files = append(files, desc)

		case types.StorageModeObjectStore:
			desc, err := r.uploadToObjectStore(ctx, flow, fileRef)
			if err != nil {
				return nil, err
			}
			files = append(files, desc)

		case types.StorageModeBoth:
			desc, err := r.describePlatformFile(ctx, fileRef)
			if err != nil {
				return nil, err
			}
			uploaded, err := r.uploadToObjectStore(ctx, flow, fileRef)
			if err != nil {
				return nil, err
			}
			files = append(files, desc, uploaded)

		default:
			return nil, fmt.Errorf("unknown storage mode: %s", mode)
		}
	}

	if r.ledger != nil && len(files) > 0 {
		if err := r.ledger.RecordStoredFiles(flow.OwnerID, flow, files); err != nil {
			return nil, fmt.Errorf("failed to record stored files: %w", err)
		}
	}

	return files, nil
}

func (r *Router) describePlatformFile(ctx context.Context, fileRef string) (types.StoredFile, error) {
	desc, err := r.platform.Describe(ctx, fileRef)
	if err != nil {
		return types.StoredFile{}, &StorageError{Backend: types.BackendTelegram, FileRef: fileRef, Err: err}
	}
	return desc, nil
}

func (r *Router) uploadToObjectStore(ctx context.Context, flow *types.MediaFlow, fileRef string) (types.StoredFile, error) {
	body, info, err := r.platform.Download(ctx, fileRef)
	if err != nil {
		return types.StoredFile{}, &StorageError{Backend: types.BackendTelegram, FileRef: fileRef, Err: err}
	}
	defer body.Close()

	key := ObjectKey(flow.ContextType, flow.ContextID, fileRef, info.MimeType)

	if err := r.object.Put(ctx, key, body, info.Size, info.MimeType); err != nil {
		return types.StoredFile{}, &StorageError{Backend: types.BackendObjectStore, FileRef: fileRef, Err: err}
	}

	return types.StoredFile{
		Kind:      info.Kind,
		Backend:   types.BackendObjectStore,
		Reference: key,
		Size:      info.Size,
		MimeType:  info.MimeType,
	}, nil
}

// ObjectKey builds the deterministic object key for a flow file, namespaced
// by context. The platform file reference keeps retried uploads idempotent.
func ObjectKey(contextType types.ContextType, contextID, fileRef, contentType string) string {
	// Extract file extension from content type
	extensions, err := mime.ExtensionsByType(contentType)
	var ext string
	if err == nil && len(extensions) > 0 {
		ext = extensions[0]
	} else {
		// Fallback based on content type
		switch contentType {
		case "image/jpeg":
			ext = ".jpg"
		case "image/png":
			ext = ".png"
		case "video/mp4":
			ext = ".mp4"
		default:
			ext = ""
		}
	}

	ref := strings.ReplaceAll(fileRef, "/", "_")
	return fmt.Sprintf("%s/%s/%s%s", contextType, contextID, ref, ext)
}
