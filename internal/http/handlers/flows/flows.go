package flows

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftmate/mediaflow-service/internal/flow"
	"github.com/shiftmate/mediaflow-service/internal/http/middleware"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/types"
	"github.com/shiftmate/mediaflow-service/internal/utils/response"
)

// Begin starts a media collection flow for a user
// @Summary Begin a media flow
// @Description Start a media collection flow for a user; fails if the user already has one in progress
// @Tags flows
// @Accept json
// @Produce json
// @Param request body types.BeginFlowRequest true "Flow configuration"
// @Success 201 {object} types.MediaFlow "Flow started"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 409 {object} response.Response "Flow already in progress"
// @Security BearerAuth
// @Router /flows [post]
func Begin(coordinator *flow.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		var req types.BeginFlowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		cfg := types.FlowConfig{
			RequireText:  req.RequireText,
			RequirePhoto: req.RequirePhoto,
			MaxPhotos:    req.MaxPhotos,
			AllowSkip:    req.AllowSkip,
		}

		created, err := coordinator.Begin(r.Context(), ownerID, req.UserID, req.ContextType, req.ContextID, cfg)
		if err != nil {
			if errors.Is(err, flow.ErrFlowConflict) {
				response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
				return
			}
			slog.Error("Failed to begin flow", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to begin flow")))
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Flow started", created))
	}
}

// AddPhoto appends a photo to the user's active flow
// @Summary Add a photo to the active flow
// @Description Append a platform file reference to the user's active flow
// @Tags flows
// @Accept json
// @Produce json
// @Param request body types.AddPhotoRequest true "Photo file reference"
// @Success 200 {object} types.MediaFlow "Photo added"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "No active flow"
// @Failure 422 {object} response.Response "Photo limit reached"
// @Security BearerAuth
// @Router /flows/photos [post]
func AddPhoto(coordinator *flow.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetOwnerIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		var req types.AddPhotoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := coordinator.AddPhoto(r.Context(), req.UserID, req.FileRef)
		if err != nil {
			switch {
			case errors.Is(err, flow.ErrFlowNotFound):
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
			case errors.Is(err, flow.ErrPhotoLimit):
				response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			default:
				slog.Error("Failed to add photo", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to add photo")))
			}
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photo added", updated))
	}
}

// AddText sets the collected text of the user's active flow
// @Summary Add text to the active flow
// @Description Set the collected text of the user's active flow; last write wins
// @Tags flows
// @Accept json
// @Produce json
// @Param request body types.AddTextRequest true "Collected text"
// @Success 200 {object} types.MediaFlow "Text recorded"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "No active flow"
// @Security BearerAuth
// @Router /flows/text [post]
func AddText(coordinator *flow.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetOwnerIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		var req types.AddTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := coordinator.AddText(r.Context(), req.UserID, req.Text)
		if err != nil {
			if errors.Is(err, flow.ErrFlowNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
				return
			}
			slog.Error("Failed to add text", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to add text")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Text recorded", updated))
	}
}

// Get returns the user's active flow state
// @Summary Get the active flow
// @Description Return the user's active flow state, or an empty payload when there is none
// @Tags flows
// @Produce json
// @Param user_id query string true "End user id"
// @Success 200 {object} types.MediaFlow "Current flow state"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /flows [get]
func Get(coordinator *flow.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetOwnerIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user_id is required")))
			return
		}

		current, err := coordinator.GetFlow(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to get flow", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get flow")))
			return
		}

		if current == nil {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No active flow", nil))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Current flow state", current))
	}
}

// Finish completes the user's active flow and persists its media
// @Summary Finish the active flow
// @Description Persist the flow's buffered media under the resolved storage mode and close the flow
// @Tags flows
// @Accept json
// @Produce json
// @Param request body types.FinishFlowRequest true "Finish options"
// @Success 200 {array} types.StoredFile "Stored file descriptors"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "No active flow"
// @Failure 422 {object} response.Response "Required inputs missing"
// @Failure 502 {object} response.Response "Storage backend failure; the flow is kept for retry"
// @Security BearerAuth
// @Router /flows/finish [post]
func Finish(coordinator *flow.Coordinator, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		var req types.FinishFlowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		mode := req.Mode
		if mode == "" {
			// Resolve the owner's preference at finish time; it is never
			// cached in the flow, so mid-conversation changes take effect.
			current, err := coordinator.GetFlow(r.Context(), req.UserID)
			if err != nil {
				slog.Error("Failed to get flow", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get flow")))
				return
			}
			if current == nil {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(flow.ErrFlowNotFound))
				return
			}

			mode, err = store.GetStorageMode(ownerID, current.ContextType)
			if err != nil {
				slog.Error("Failed to resolve storage mode", slog.String("error", err.Error()), slog.String("owner_id", ownerID))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to resolve storage mode")))
				return
			}
		}

		if !types.ValidStorageMode(mode) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown storage mode")))
			return
		}

		files, err := coordinator.Finish(r.Context(), req.UserID, mode)
		if err != nil {
			var storageErr *storage.StorageError
			switch {
			case errors.Is(err, flow.ErrFlowNotFound):
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
			case errors.Is(err, flow.ErrIncomplete):
				response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			case errors.As(err, &storageErr):
				slog.Error("Storage backend failure during finish",
					slog.String("error", err.Error()),
					slog.String("user_id", req.UserID))
				response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New("storage backend failure, retry finish")))
			default:
				slog.Error("Failed to finish flow", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to finish flow")))
			}
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Flow finished", files))
	}
}

// Cancel drops the user's active flow
// @Summary Cancel the active flow
// @Description Delete the user's flow unconditionally; cancelling twice is not an error
// @Tags flows
// @Produce json
// @Param user_id query string true "End user id"
// @Success 200 {object} response.Response "Flow cancelled"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /flows [delete]
func Cancel(coordinator *flow.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetOwnerIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user_id is required")))
			return
		}

		if err := coordinator.Cancel(r.Context(), userID); err != nil {
			slog.Error("Failed to cancel flow", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to cancel flow")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Flow cancelled", nil))
	}
}
