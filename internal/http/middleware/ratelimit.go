package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/shiftmate/mediaflow-service/internal/ratelimit"
	"github.com/shiftmate/mediaflow-service/internal/utils/response"
)

type RateLimitConfig struct {
	redisClient *redis.Client
	limiters    map[string]*ratelimit.TokenBucket
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		redisClient: redisClient,
		limiters:    make(map[string]*ratelimit.TokenBucket),
	}

	// Configure rate limits for different actions
	// POST /flows/photos: 30/min per owner account
	config.limiters["photos"] = ratelimit.NewTokenBucket(redisClient, 30, 30)

	// POST /flows/finish: 10/min per owner account (each finish can fan out
	// to backend uploads)
	config.limiters["finish"] = ratelimit.NewTokenBucket(redisClient, 10, 10)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get owner ID from context (assumes auth middleware ran first)
			ownerID, ok := GetOwnerIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("owner not authenticated")))
				return
			}

			// Get the appropriate rate limiter
			limiter, exists := rlc.limiters[action]
			if !exists {
				// If no rate limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			// Check if the owner is allowed to perform this action
			allowed, err := limiter.Allow(r.Context(), ownerID, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), ownerID, action)

			// Set rate limit headers
			w.Header().Set("X-RateLimit-Limit", getLimitForAction(action))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60") // 1 minute window

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			// Allow the request to proceed
			next.ServeHTTP(w, r)
		})
	}
}

// Helper function to get the limit for display in headers
func getLimitForAction(action string) string {
	switch action {
	case "photos":
		return "30"
	case "finish":
		return "10"
	default:
		return "100" // default fallback
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}
