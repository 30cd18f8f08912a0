package types

import "time"

// ContextType categorizes what the collected media will be attached to.
type ContextType string

const (
	ContextTaskProof         ContextType = "task_proof"
	ContextCancellationProof ContextType = "cancellation_evidence"
	ContextIncidentEvidence  ContextType = "incident_evidence"
)

// ValidContextType reports whether ct is one of the known context types.
func ValidContextType(ct ContextType) bool {
	switch ct {
	case ContextTaskProof, ContextCancellationProof, ContextIncidentEvidence:
		return true
	}
	return false
}

// StorageMode selects which backend(s) persist collected media.
type StorageMode string

const (
	StorageModeTelegram    StorageMode = "telegram"
	StorageModeObjectStore StorageMode = "object_store"
	StorageModeBoth        StorageMode = "both"
)

// ValidStorageMode reports whether m is one of the known storage modes.
func ValidStorageMode(m StorageMode) bool {
	switch m {
	case StorageModeTelegram, StorageModeObjectStore, StorageModeBoth:
		return true
	}
	return false
}

// FileKind is the media kind of a stored file.
type FileKind string

const (
	FileKindPhoto    FileKind = "photo"
	FileKindVideo    FileKind = "video"
	FileKindDocument FileKind = "document"
)

// BackendKind identifies which backend holds a stored file.
type BackendKind string

const (
	BackendTelegram    BackendKind = "telegram"
	BackendObjectStore BackendKind = "object_store"
)

// FlowConfig carries the completion constraints for a media flow.
type FlowConfig struct {
	RequireText  bool `json:"require_text"`
	RequirePhoto bool `json:"require_photo"`
	MaxPhotos    int  `json:"max_photos"`
	AllowSkip    bool `json:"allow_skip"`
}

// MediaFlow is a single in-progress, per-user media collection conversation.
// It is created by Begin, mutated by AddPhoto/AddText, and consumed by Finish
// or Cancel. Abandoned flows are reclaimed by the flow store's TTL.
type MediaFlow struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	OwnerID         string      `json:"owner_id"`
	ContextType     ContextType `json:"context_type"`
	ContextID       string      `json:"context_id"`
	Config          FlowConfig  `json:"config"`
	CollectedText   string      `json:"collected_text"`
	CollectedPhotos []string    `json:"collected_photos"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Complete reports whether the flow satisfies its completion constraints.
func (f *MediaFlow) Complete() bool {
	if f.Config.RequirePhoto && len(f.CollectedPhotos) == 0 {
		return false
	}
	if f.Config.RequireText && f.CollectedText == "" {
		return false
	}
	return true
}

// StoredFile is the immutable descriptor returned after persistence. The
// reference is either a platform-native file id or an object-store key,
// depending on the backend.
type StoredFile struct {
	Kind      FileKind    `json:"kind"`
	Backend   BackendKind `json:"backend"`
	Reference string      `json:"reference"`
	Size      int64       `json:"size"`
	MimeType  string      `json:"mime_type"`
}

type BeginFlowRequest struct {
	ContextType  ContextType `json:"context_type" validate:"required"`
	ContextID    string      `json:"context_id" validate:"required"`
	UserID       string      `json:"user_id" validate:"required"`
	RequireText  bool        `json:"require_text"`
	RequirePhoto bool        `json:"require_photo"`
	MaxPhotos    int         `json:"max_photos" validate:"required,min=1,max=10"`
	AllowSkip    bool        `json:"allow_skip"`
}

type AddPhotoRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	FileRef string `json:"file_ref" validate:"required"`
}

type AddTextRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// FinishFlowRequest completes the active flow. Mode is optional; when empty
// the owner's stored preference for the flow's context type applies.
type FinishFlowRequest struct {
	UserID string      `json:"user_id" validate:"required"`
	Mode   StorageMode `json:"mode"`
}

type SetPreferenceRequest struct {
	Mode StorageMode `json:"mode" validate:"required"`
}
