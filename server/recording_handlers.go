package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mattislub/Timed-Audio-Queue/cache"
	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/model"
	"github.com/mattislub/Timed-Audio-Queue/storage"
)

// maxRecordingSize bounds uploaded clip size.
const maxRecordingSize = 32 << 20 // 32MB

// audioURL is the public playback path for a recording.
func audioURL(id string) string {
	return "/audio/" + id
}

// UploadRecordingHandler stores an uploaded audio clip.
// Expected multipart form fields:
// - audioFile: the recorded audio (webm, ogg, mp3, wav)
// - name: display name (optional, defaults to the file name)
func (h *APIHandler) UploadRecordingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxRecordingSize); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("audioFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'audioFile' in form")
		return
	}
	defer file.Close()

	if header.Size > maxRecordingSize {
		respondError(w, http.StatusBadRequest, "Audio file too large")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	if name == "" {
		name = "Recording"
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".webm"
	}

	id := uuid.NewString()
	objectPath := fmt.Sprintf("recordings/%d/%s%s", userID, id, ext)

	if err := storage.UploadObject(r.Context(), objectPath, file, header.Size, contentType); err != nil {
		logger.Error("failed to store recording object",
			logger.String("object", objectPath), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to store audio file")
		return
	}

	rec := &model.Recording{
		ID:         id,
		UserID:     userID,
		Name:       name,
		ObjectPath: objectPath,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.recordingRepo.CreateRecording(rec); err != nil {
		logger.Error("failed to create recording row",
			logger.String("recording", id), logger.ErrorField(err))
		if remErr := storage.RemoveObject(r.Context(), objectPath); remErr != nil {
			logger.Warn("failed to remove orphaned object",
				logger.String("object", objectPath), logger.ErrorField(remErr))
		}
		respondError(w, http.StatusInternalServerError, "Failed to create recording")
		return
	}
	rec.URL = audioURL(rec.ID)

	if err := cache.InvalidateRecordings(r.Context(), userID); err != nil {
		logger.Warn("failed to invalidate recordings cache", logger.ErrorField(err))
	}
	h.hub.BroadcastChanged()

	logger.Info("recording uploaded",
		logger.String("recording", id),
		logger.Int64("userId", userID),
		logger.String("name", name),
		logger.Int64("size", header.Size))
	respondJSON(w, http.StatusCreated, rec)
}

// ListRecordingsHandler returns the caller's non-expired recordings,
// oldest first, together with the server's current time. Clients use the
// time sample to reconcile their local clocks.
func (h *APIHandler) ListRecordingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	recordings, hit, err := cache.GetRecordings(r.Context(), userID)
	if err != nil {
		logger.Warn("recordings cache read failed", logger.ErrorField(err))
	}
	if !hit {
		recordings, err = h.recordingRepo.GetActiveRecordingsByUserID(userID, h.cfg.RecordingTTL)
		if err != nil {
			logger.Error("failed to list recordings",
				logger.Int64("userId", userID), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to list recordings")
			return
		}
		if err := cache.SetRecordings(r.Context(), userID, recordings); err != nil {
			logger.Warn("recordings cache write failed", logger.ErrorField(err))
		}
	}

	for _, rec := range recordings {
		rec.URL = audioURL(rec.ID)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"serverTime": time.Now().UTC(),
		"recordings": recordings,
	})
}

// DeleteRecordingHandler removes a recording, its stored object, and its
// share records.
func (h *APIHandler) DeleteRecordingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := mux.Vars(r)["id"]
	rec, err := h.recordingRepo.GetRecordingByID(id)
	if err != nil {
		logger.Error("failed to look up recording", logger.String("recording", id), logger.ErrorField(err))
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

	if err := storage.RemoveObject(r.Context(), rec.ObjectPath); err != nil {
		logger.Warn("failed to remove recording object",
			logger.String("object", rec.ObjectPath), logger.ErrorField(err))
	}
	if err := h.shareRepo.DeleteSharesByRecordingID(id); err != nil {
		logger.Warn("failed to delete shares", logger.String("recording", id), logger.ErrorField(err))
	}
	if err := h.recordingRepo.DeleteRecording(id); err != nil {
		logger.Error("failed to delete recording", logger.String("recording", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete recording")
		return
	}

	if err := cache.InvalidateRecordings(r.Context(), userID); err != nil {
		logger.Warn("failed to invalidate recordings cache", logger.ErrorField(err))
	}
	h.hub.BroadcastChanged()

	logger.Info("recording deleted", logger.String("recording", id), logger.Int64("userId", userID))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Recording deleted"})
}

// StreamAudioHandler serves a recording's audio bytes from object storage.
// Recording ids are unguessable uuids; expired recordings 404 even if the
// reaper has not removed them yet.
// URL: /audio/{id}
func (h *APIHandler) StreamAudioHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.recordingRepo.GetRecordingByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up recording")
		return
	}
	if rec == nil || time.Since(rec.CreatedAt) >= h.cfg.RecordingTTL {
		respondError(w, http.StatusNotFound, "Recording not found")
		return
	}

	info, err := storage.StatObject(r.Context(), rec.ObjectPath)
	if err != nil {
		logger.Error("failed to stat recording object",
			logger.String("object", rec.ObjectPath), logger.ErrorField(err))
		respondError(w, http.StatusNotFound, "Audio not available")
		return
	}

	object, err := storage.GetObject(r.Context(), rec.ObjectPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to open audio")
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=1800")

	if _, err := io.Copy(w, object); err != nil {
		logger.Debug("audio stream interrupted", logger.String("recording", id), logger.ErrorField(err))
	}
}
