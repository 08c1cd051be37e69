package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/model"
)

// CreateShareRequest is the body for sharing a recording with an email
// address.
type CreateShareRequest struct {
	Email string `json:"email"`
}

// CreateShareHandler records a share of the caller's recording to an email
// address and returns the share with its resolve token.
// URL: POST /api/recordings/{id}/shares
func (h *APIHandler) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	recordingID := mux.Vars(r)["id"]
	rec, err := h.recordingRepo.GetRecordingByID(recordingID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up recording")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "Recording not found")
		return
	}
	if rec.UserID != userID {
		respondError(w, http.StatusForbidden, "Recording belongs to another user")
		return
	}

	share := &model.Share{
		RecordingID: recordingID,
		Email:       req.Email,
		Token:       uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.shareRepo.CreateShare(share); err != nil {
		logger.Error("failed to create share",
			logger.String("recording", recordingID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create share")
		return
	}

	logger.Info("recording shared",
		logger.String("recording", recordingID),
		logger.String("email", req.Email))
	respondJSON(w, http.StatusCreated, share)
}

// ListSharesHandler lists the share records of the caller's recording.
// URL: GET /api/recordings/{id}/shares
func (h *APIHandler) ListSharesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	recordingID := mux.Vars(r)["id"]
	rec, err := h.recordingRepo.GetRecordingByID(recordingID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up recording")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "Recording not found")
		return
	}
	if rec.UserID != userID {
		respondError(w, http.StatusForbidden, "Recording belongs to another user")
		return
	}

	shares, err := h.shareRepo.GetSharesByRecordingID(recordingID)
	if err != nil {
		logger.Error("failed to list shares",
			logger.String("recording", recordingID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list shares")
		return
	}
	respondJSON(w, http.StatusOK, shares)
}

// ResolveShareHandler resolves a share token to its recording. Public:
// the token itself is the credential. Tokens of expired or deleted
// recordings resolve to 404.
// URL: GET /api/shares/{token}
func (h *APIHandler) ResolveShareHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	share, err := h.shareRepo.GetShareByToken(token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to resolve share")
		return
	}
	if share == nil {
		respondError(w, http.StatusNotFound, "Share not found")
		return
	}

	rec, err := h.recordingRepo.GetRecordingByID(share.RecordingID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up recording")
		return
	}
	if rec == nil || time.Since(rec.CreatedAt) >= h.cfg.RecordingTTL {
		respondError(w, http.StatusNotFound, "Recording no longer available")
		return
	}
	rec.URL = audioURL(rec.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"share":     share,
		"recording": rec,
	})
}
