package engine

import (
	"errors"

	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// The playback queue serializes access to the single audio output. At most
// one entry is ever playing; everything else that becomes due while the
// output is held waits in FIFO arrival order. Ties between entries whose
// timers fire in the same instant resolve by whichever callback enqueued
// first, not by scheduled time.

// requestPlayLocked asks for the output on behalf of an entry. Grants
// immediately when the output is free, otherwise queues.
func (e *Engine) requestPlayLocked(id string, manual bool) {
	entry, ok := e.entries[id]
	if !ok {
		return
	}
	if e.playingID == id {
		return // already holds the output
	}
	if e.playingID != "" {
		entry.Status = StatusQueued
		if !containsID(e.waiting, id) {
			e.waiting = append(e.waiting, id)
		}
		if manual {
			// The gesture outlives the wait: the eventual grant keeps
			// manual failure semantics.
			e.manualWaiting[id] = true
		}
		return
	}
	if !e.grantLocked(entry, manual) {
		e.advanceLocked()
	}
}

// grantLocked hands the output to an entry and starts its audio. Returns
// true when playback actually started.
func (e *Engine) grantLocked(entry *Entry, manual bool) bool {
	// Defensive invariant: stop any audio element that is still marked
	// playing before starting a different one.
	for otherID, other := range e.entries {
		if otherID == entry.ID || other.Status != StatusPlaying {
			continue
		}
		other.Status = StatusQueued
		if h, ok := e.audio[otherID]; ok {
			h.Pause()
			delete(e.audio, otherID)
		}
		if !containsID(e.waiting, otherID) {
			e.waiting = append(e.waiting, otherID)
		}
	}

	// A handle belongs to one grant; discard any leftover and open fresh.
	if h, ok := e.audio[entry.ID]; ok {
		h.Pause()
		delete(e.audio, entry.ID)
	}

	entry.gen++
	gen := entry.gen
	entryID := entry.ID
	handle, err := e.player.Open(entry.URL, func(err error) {
		e.onPlaybackEnded(entryID, gen, err)
	})
	if err != nil {
		e.failLocked(entry, err.Error())
		return false
	}
	e.audio[entry.ID] = handle

	handle.SeekStart()
	handle.SetRate(entry.PlaybackRate)
	entry.Status = StatusPlaying
	e.playingID = entry.ID

	if err := handle.Play(); err != nil {
		e.playingID = ""
		if errors.Is(err, ErrPlaybackBlocked) && !manual {
			// Retryable: wait for the unlock probe and a fixed backoff.
			entry.Status = StatusReady
			entry.ErrorMessage = ""
			if !containsID(e.pendingAutoplay, entry.ID) {
				e.pendingAutoplay = append(e.pendingAutoplay, entry.ID)
			}
			e.armAutoplayRetryLocked(entry.ID)
			go e.unlock.NotifyBlocked()
			logger.Info("playback blocked, awaiting unlock", logger.String("entry", entry.ID))
		} else {
			e.failLocked(entry, err.Error())
		}
		return false
	}

	logger.Info("playback started",
		logger.String("entry", entry.ID),
		logger.Int("playNumber", entry.PlayNumber),
		logger.Float64("rate", entry.PlaybackRate))
	return true
}

// advanceLocked hands the output to the next queued entry, skipping ids
// whose entries are gone and moving past entries that fail to start.
func (e *Engine) advanceLocked() {
	for e.playingID == "" && len(e.waiting) > 0 {
		next := e.waiting[0]
		e.waiting = e.waiting[1:]
		manual := e.manualWaiting[next]
		delete(e.manualWaiting, next)
		entry, ok := e.entries[next]
		if !ok {
			continue
		}
		if e.grantLocked(entry, manual) {
			return
		}
	}
}

// onPlaybackEnded handles end of stream for one playback attempt. Stale
// callbacks from discarded handles carry an old generation and are
// ignored, as are callbacks for entries that no longer exist.
func (e *Engine) onPlaybackEnded(id string, gen int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	entry, ok := e.entries[id]
	if !ok || entry.gen != gen || entry.Status != StatusPlaying || e.playingID != id {
		return
	}

	e.playingID = ""
	if err != nil {
		e.failLocked(entry, err.Error())
	} else {
		entry.Status = StatusDone
		e.removeEntryLocked(id)
		logger.Info("playback finished", logger.String("entry", id))
	}
	e.advanceLocked()
}

// failLocked marks an entry as terminally failed. The entry itself stays
// visible for display and manual retry; all scheduling bookkeeping goes.
func (e *Engine) failLocked(entry *Entry, msg string) {
	entry.Status = StatusError
	entry.ErrorMessage = msg

	id := entry.ID
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
	if e.playingID == id {
		e.playingID = ""
	}

	logger.Warn("playback failed", logger.String("entry", id), logger.String("reason", msg))
}

// armAutoplayRetryLocked schedules the fixed-delay re-attempt for a
// blocked entry. Single-shot: each blocked attempt arms its own timer.
func (e *Engine) armAutoplayRetryLocked(id string) {
	if _, ok := e.retryTimers[id]; ok {
		return
	}
	e.retryTimers[id] = e.clk.AfterFunc(autoplayRetryDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		delete(e.retryTimers, id)
		entry, ok := e.entries[id]
		if !ok || entry.Status != StatusReady {
			return
		}
		e.pendingAutoplay = removeID(e.pendingAutoplay, id)
		e.requestPlayLocked(id, false)
	})
}

// RetryPlay re-attempts playback of an entry on behalf of a user action.
// Manual attempts are assumed to follow a gesture, so a failure here is
// terminal rather than queued for autoplay retry.
func (e *Engine) RetryPlay(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEntryNotFound
	}
	entry, ok := e.entries[id]
	if !ok {
		return ErrEntryNotFound
	}

	e.waiting = removeID(e.waiting, id)
	delete(e.manualWaiting, id)
	e.pendingAutoplay = removeID(e.pendingAutoplay, id)
	if t, ok := e.retryTimers[id]; ok {
		t.Stop()
		delete(e.retryTimers, id)
	}
	if entry.Status == StatusError {
		entry.Status = StatusReady
		entry.ErrorMessage = ""
	}

	e.requestPlayLocked(id, true)
	return nil
}

// RetryPendingAutoplay re-attempts every entry blocked on autoplay, in
// the order they were blocked. Invoked by the unlock helper after its
// probe; the attempts carry the manual flag since they follow a gesture.
func (e *Engine) RetryPendingAutoplay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	pending := e.pendingAutoplay
	e.pendingAutoplay = nil
	for _, id := range pending {
		if t, ok := e.retryTimers[id]; ok {
			t.Stop()
			delete(e.retryTimers, id)
		}
		entry, ok := e.entries[id]
		if !ok || entry.Status != StatusReady {
			continue
		}
		e.requestPlayLocked(id, true)
	}
}
