package prefs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftmate/mediaflow-service/internal/http/middleware"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/types"
	"github.com/shiftmate/mediaflow-service/internal/utils/response"
)

// Get returns the owner's storage mode for a context type
// @Summary Get a storage mode preference
// @Description Return the owner's storage mode for the given context type; telegram when unset
// @Tags prefs
// @Produce json
// @Param context_type path string true "Context type"
// @Success 200 {object} map[string]string "Storage mode"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /prefs/{context_type} [get]
func Get(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		contextType := types.ContextType(r.PathValue("context_type"))
		if !types.ValidContextType(contextType) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown context type")))
			return
		}

		mode, err := store.GetStorageMode(ownerID, contextType)
		if err != nil {
			slog.Error("Failed to get storage mode", slog.String("error", err.Error()), slog.String("owner_id", ownerID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get storage mode")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"context_type": string(contextType),
			"mode":         string(mode),
		})
	}
}

// Set updates the owner's storage mode for a context type
// @Summary Set a storage mode preference
// @Description Update the owner's storage mode for the given context type
// @Tags prefs
// @Accept json
// @Produce json
// @Param context_type path string true "Context type"
// @Param request body types.SetPreferenceRequest true "Storage mode"
// @Success 200 {object} response.Response "Preference updated"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /prefs/{context_type} [put]
func Set(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := middleware.GetOwnerIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("owner not authenticated")))
			return
		}

		contextType := types.ContextType(r.PathValue("context_type"))
		if !types.ValidContextType(contextType) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown context type")))
			return
		}

		var req types.SetPreferenceRequest
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

		if !types.ValidStorageMode(req.Mode) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown storage mode")))
			return
		}

		if err := store.SetStorageMode(ownerID, contextType, req.Mode); err != nil {
			slog.Error("Failed to set storage mode", slog.String("error", err.Error()), slog.String("owner_id", ownerID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to set storage mode")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Preference updated", nil))
	}
}
