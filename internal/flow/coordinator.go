package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shiftmate/mediaflow-service/internal/flowstore"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

// DefaultMaxPhotos applies when a flow is begun without an explicit cap.
const DefaultMaxPhotos = 3

// Persister stores a flow's buffered files under a storage mode.
type Persister interface {
	Persist(ctx context.Context, flow *types.MediaFlow, mode types.StorageMode) ([]types.StoredFile, error)
}

// Publisher emits flow lifecycle events to the owning account.
type Publisher interface {
	PublishMediaPersisted(flow *types.MediaFlow, mode types.StorageMode, files []types.StoredFile) error
	PublishFlowCancelled(flow *types.MediaFlow) error
}

// Coordinator manages exactly one in-flight media collection conversation per
// user. Operations on a single flow are serialized by the calling
// conversation, so no locking happens here; cross-user flows share nothing.
type Coordinator struct {
	store     *flowstore.Store
	persister Persister
	publisher Publisher
}

// NewCoordinator creates a new flow coordinator
func NewCoordinator(store *flowstore.Store, persister Persister, publisher Publisher) *Coordinator {
	return &Coordinator{
		store:     store,
		persister: persister,
		publisher: publisher,
	}
}

// Begin starts a new flow for the user. It fails with ErrFlowConflict when a
// flow already exists; the flow store's conditional write is the uniqueness
// check.
func (c *Coordinator) Begin(ctx context.Context, ownerID, userID string, contextType types.ContextType, contextID string, cfg types.FlowConfig) (*types.MediaFlow, error) {
	if !types.ValidContextType(contextType) {
		return nil, fmt.Errorf("unknown context type: %s", contextType)
	}

	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = DefaultMaxPhotos
	}

	flow := &types.MediaFlow{
		ID:          uuid.New().String(),
		UserID:      userID,
		OwnerID:     ownerID,
		ContextType: contextType,
		ContextID:   contextID,
		Config:      cfg,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := c.store.Create(ctx, flow)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrFlowConflict
	}

	return flow, nil
}

// AddPhoto appends a platform file reference to the user's active flow.
func (c *Coordinator) AddPhoto(ctx context.Context, userID, fileRef string) (*types.MediaFlow, error) {
	flow, err := c.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, ErrFlowNotFound
	}

	if len(flow.CollectedPhotos) >= flow.Config.MaxPhotos {
		return nil, ErrPhotoLimit
	}

	flow.CollectedPhotos = append(flow.CollectedPhotos, fileRef)

	if err := c.store.Save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// AddText sets the flow's collected text, last write wins. Flows that do not
// require text ignore the write.
func (c *Coordinator) AddText(ctx context.Context, userID, text string) (*types.MediaFlow, error) {
	flow, err := c.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, ErrFlowNotFound
	}

	if !flow.Config.RequireText {
		return flow, nil
	}

	flow.CollectedText = text

	if err := c.store.Save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// GetFlow returns the user's active flow, or nil if there is none.
func (c *Coordinator) GetFlow(ctx context.Context, userID string) (*types.MediaFlow, error) {
	return c.store.Get(ctx, userID)
}

// Finish validates the flow's completion constraints, persists its buffered
// files under the given mode, and deletes the flow record. The record is
// only deleted after the whole batch persisted, so a storage failure leaves
// the flow intact and Finish can be retried.
func (c *Coordinator) Finish(ctx context.Context, userID string, mode types.StorageMode) ([]types.StoredFile, error) {
	flow, err := c.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, ErrFlowNotFound
	}

	if !flow.Complete() && !flow.Config.AllowSkip {
		return nil, ErrIncomplete
	}

	files, err := c.persister.Persist(ctx, flow, mode)
	if err != nil {
		return nil, err
	}

	if err := c.store.Delete(ctx, userID); err != nil {
		// Files are persisted but the flow record survived; a retried
		// finish overwrites the same object keys and records nothing new.
		return nil, fmt.Errorf("failed to close flow after persist: %w", err)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishMediaPersisted(flow, mode, files); err != nil {
			slog.Warn("Failed to publish media persisted event",
				slog.String("flow_id", flow.ID),
				slog.String("error", err.Error()))
		}
	}

	return files, nil
}

// Cancel drops the user's flow unconditionally. Cancelling when no flow
// exists is not an error.
func (c *Coordinator) Cancel(ctx context.Context, userID string) error {
	flow, err := c.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := c.store.Delete(ctx, userID); err != nil {
		return err
	}

	if flow != nil && c.publisher != nil {
		if err := c.publisher.PublishFlowCancelled(flow); err != nil {
			slog.Warn("Failed to publish flow cancelled event",
				slog.String("flow_id", flow.ID),
				slog.String("error", err.Error()))
		}
	}

	return nil
}
