package server

import (
	"encoding/json"
	"net/http"

	"github.com/mattislub/Timed-Audio-Queue/cache"
	"github.com/mattislub/Timed-Audio-Queue/core/engine"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// GetRepeatConfigHandler returns the caller's stored repeat slot settings,
// normalized, falling back to the defaults when none were ever saved.
// URL: GET /api/repeat-config
func (h *APIHandler) GetRepeatConfigHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var settings []engine.SlotSetting
	data, hit, err := cache.GetRepeatConfig(r.Context(), userID)
	if err != nil {
		logger.Warn("repeat config read failed", logger.Int64("userId", userID), logger.ErrorField(err))
	}
	if hit {
		if err := json.Unmarshal(data, &settings); err != nil {
			logger.Warn("stored repeat config unparseable, serving defaults",
				logger.Int64("userId", userID), logger.ErrorField(err))
			settings = nil
		}
	}

	schedule := engine.NormalizeRepeatConfig(settings)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"slots":     schedule.Settings(),
		"offsetsMs": schedule.OffsetsMs,
	})
}

// UpdateRepeatConfigHandler stores the caller's repeat slot settings. The
// submitted settings are normalized before storage, so reads always see a
// full six-slot configuration.
// URL: PUT /api/repeat-config
func (h *APIHandler) UpdateRepeatConfigHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var settings []engine.SlotSetting
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	schedule := engine.NormalizeRepeatConfig(settings)
	normalized, err := json.Marshal(schedule.Settings())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode settings")
		return
	}
	if err := cache.SetRepeatConfig(r.Context(), userID, normalized); err != nil {
		logger.Error("failed to store repeat config",
			logger.Int64("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to store settings")
		return
	}

	logger.Info("repeat config updated",
		logger.Int64("userId", userID),
		logger.Int("enabledSlots", len(schedule.EnabledSlots)))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"slots":     schedule.Settings(),
		"offsetsMs": schedule.OffsetsMs,
	})
}
