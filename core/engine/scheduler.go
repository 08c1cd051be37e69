package engine

import (
	"time"

	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// Observe reconciles the engine against the current recordings list. The
// optional serverTime is the authoritative sample taken by the feed at the
// same moment; pass the zero time when the feed carried none.
//
// New recordings get one entry per enabled slot, each with a timer armed
// for its cumulative offset from trusted-now at arrival. Recordings
// already scheduled are left alone, so repeated polls never duplicate
// entries. Disappearance from the list is treated as expiry.
func (e *Engine) Observe(recordings []Recording, serverTime time.Time) {
	e.clock.Observe(serverTime, e.clk.Now())

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	present := make(map[string]bool, len(recordings))
	for _, rec := range recordings {
		present[rec.ID] = true
	}
	for id := range e.seen {
		if !present[id] {
			e.teardownRecordingLocked(id)
		}
	}

	now := e.clock.TrustedNow()
	for _, rec := range recordings {
		if _, ok := e.seen[rec.ID]; ok {
			continue
		}
		if !rec.CreatedAt.IsZero() && now.Sub(rec.CreatedAt) >= e.ttl {
			continue // arrived already expired
		}
		e.scheduleRecordingLocked(rec, now)
	}

	e.sweepExpiredLocked(now)
}

// SetRepeatConfig installs a new repeat configuration. A changed
// normalized key discards every in-flight entry, timer, and queue
// position along with the seen-set: offsets are relative, so any edit
// invalidates all pending timing. The next observation pass reschedules
// everything from scratch.
func (e *Engine) SetRepeatConfig(settings []SlotSetting) {
	schedule := NormalizeRepeatConfig(settings)
	key := schedule.Key()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || key == e.scheduleKey {
		return
	}

	e.schedule = schedule
	e.scheduleKey = key
	for id := range e.seen {
		e.teardownRecordingLocked(id)
	}
	logger.Info("repeat configuration changed, schedule reset",
		logger.Int("enabledSlots", len(schedule.EnabledSlots)))
}

// Schedule returns the current normalized repeat configuration.
func (e *Engine) Schedule() Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schedule
}

func (e *Engine) scheduleRecordingLocked(rec Recording, baseTime time.Time) {
	e.seen[rec.ID] = rec
	expiresAt := rec.CreatedAt.Add(e.ttl)

	for _, slot := range e.schedule.EnabledSlots {
		id := MakeEntryID(rec.ID, slot.SlotNumber)
		if _, ok := e.entries[id]; ok {
			continue
		}

		entry := &Entry{
			ID:            id,
			RecordingID:   rec.ID,
			RecordingName: rec.Name,
			URL:           rec.URL,
			SlotNumber:    slot.SlotNumber,
			PlayNumber:    slot.PlayNumber,
			PlaybackRate:  e.schedule.Slots[slot.SlotNumber-1].PlaybackRate,
			ScheduledAt:   baseTime.Add(time.Duration(slot.OffsetMs) * time.Millisecond),
			ExpiresAt:     expiresAt,
			Status:        StatusScheduled,
		}
		e.entries[id] = entry

		delay := entry.ScheduledAt.Sub(e.clock.TrustedNow())
		if delay < 0 {
			delay = 0
		}
		entryID := id
		e.timers[id] = e.clk.AfterFunc(delay, func() { e.onSlotTimer(entryID) })

		logger.Debug("slot scheduled",
			logger.String("entry", id),
			logger.Int("playNumber", slot.PlayNumber),
			logger.Time("scheduledAt", entry.ScheduledAt))
	}
}

// onSlotTimer fires when a slot becomes due. The entry may already be gone
// or past scheduled status; both are guarded no-ops.
func (e *Engine) onSlotTimer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	entry, ok := e.entries[id]
	if !ok || entry.Status != StatusScheduled {
		return
	}
	delete(e.timers, id)
	entry.Status = StatusReady
	e.requestPlayLocked(id, false)
}

// sweepExpiredLocked tears down every recording past its TTL.
func (e *Engine) sweepExpiredLocked(now time.Time) {
	for id, rec := range e.seen {
		if !rec.CreatedAt.IsZero() && now.Sub(rec.CreatedAt) >= e.ttl {
			e.teardownRecordingLocked(id)
		}
	}
}

// teardownRecordingLocked removes a recording's seen-set membership and
// every sibling entry, so a resurrected recording with the same id can be
// rescheduled cleanly later.
func (e *Engine) teardownRecordingLocked(recordingID string) {
	delete(e.seen, recordingID)

	interrupted := false
	for id, entry := range e.entries {
		if entry.RecordingID != recordingID {
			continue
		}
		if e.removeEntryLocked(id) {
			interrupted = true
		}
	}
	if interrupted {
		e.advanceLocked()
	}

	logger.Debug("recording torn down", logger.String("recording", recordingID))
}

// Discard removes a single entry, typically a failed one the user
// dismissed. Returns ErrEntryNotFound for unknown ids.
func (e *Engine) Discard(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.entries[id]; !ok {
		return ErrEntryNotFound
	}
	if e.removeEntryLocked(id) {
		e.advanceLocked()
	}
	return nil
}

// removeEntryLocked deletes an entry and all its bookkeeping. It reports
// whether the entry held the audio output, in which case the caller must
// advance the queue.
func (e *Engine) removeEntryLocked(id string) bool {
	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
	if t, ok := e.retryTimers[id]; ok {
		t.Stop()
		delete(e.retryTimers, id)
	}
	if h, ok := e.audio[id]; ok {
		h.Pause()
		delete(e.audio, id)
	}
	e.waiting = removeID(e.waiting, id)
	delete(e.manualWaiting, id)
	e.pendingAutoplay = removeID(e.pendingAutoplay, id)
	delete(e.entries, id)

	if e.playingID == id {
		e.playingID = ""
		return true
	}
	return false
}
