package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mattislub/Timed-Audio-Queue/config"
	"github.com/mattislub/Timed-Audio-Queue/core/auth"
	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	recordingRepo repository.RecordingRepository
	shareRepo     repository.ShareRepository
	userRepo      repository.UserRepository
	hub           *NotifyHub
	cfg           *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	recordingRepo repository.RecordingRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	hub *NotifyHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		recordingRepo: recordingRepo,
		shareRepo:     shareRepo,
		userRepo:      userRepo,
		hub:           hub,
		cfg:           cfg,
	}
}

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// respondJSON writes the standard success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	}); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes the standard error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	}); err != nil {
		logger.Error("failed to encode error response", logger.ErrorField(err))
	}
}

// AuthMiddleware checks for a valid JWT token and puts the claims into the
// request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUsernameFromContext extracts the username from the request context.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(usernameKey).(string)
	if !ok {
		return "", fmt.Errorf("username not found in context")
	}
	return username, nil
}
