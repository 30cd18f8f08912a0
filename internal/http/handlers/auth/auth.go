package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/types/owners"
	"github.com/shiftmate/mediaflow-service/internal/utils/jwt"
	"github.com/shiftmate/mediaflow-service/internal/utils/password"
	"github.com/shiftmate/mediaflow-service/internal/utils/response"
)

// Register handles owner account registration
// @Summary Register an owner account
// @Description Register an owner account for a bot integration
// @Tags auth
// @Accept json
// @Produce json
// @Param owner body owners.RegisterRequest true "Owner registration details"
// @Success 201 {object} map[string]string "Owner created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /auth/register [post]
func Register(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var registerReq owners.RegisterRequest

		err := json.NewDecoder(r.Body).Decode(&registerReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(registerReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		secretHash, err := password.HashSecret(registerReq.Secret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash secret")))
			return
		}

		ownerID, err := storage.CreateOwner(registerReq.Name, secretHash)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("Owner created", slog.String("owner_id", ownerID))

		response.WriteJSON(w, http.StatusCreated, map[string]string{
			"id": ownerID,
		})
	}
}

// Token handles owner authentication
// @Summary Issue an access token
// @Description Authenticate an owner account and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param owner body owners.TokenRequest true "Owner credentials"
// @Success 200 {object} map[string]string "Owner authenticated successfully with token"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /auth/token [post]
func Token(storage storage.Storage, JWTSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tokenReq owners.TokenRequest

		err := json.NewDecoder(r.Body).Decode(&tokenReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(tokenReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Authentication logic
		ownerID, secretHash, err := storage.GetOwnerByName(tokenReq.Name)
		if err != nil {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid name or secret")))
			return
		}

		correctSecret := password.CheckSecretHash(tokenReq.Secret, secretHash)
		if !correctSecret {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid name or secret")))
			return
		}
		token, err := jwt.CreateToken(ownerID, JWTSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"owner_id": ownerID,
			"token":    token,
		})
	}
}
