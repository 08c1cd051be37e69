package engine

import "sync"

// Unlocker works around platform policies that refuse to start audio
// without a preceding user gesture. Platforms without such restrictions
// use NoopUnlocker.
type Unlocker interface {
	// NotifyBlocked is invoked after an autoplay-blocked play attempt.
	NotifyBlocked()
	// NotifyGesture is invoked when the embedding surface reports the
	// first user interaction of the session.
	NotifyGesture()
}

// NoopUnlocker ignores all signals.
type NoopUnlocker struct{}

func (NoopUnlocker) NotifyBlocked() {}
func (NoopUnlocker) NotifyGesture() {}

// SilentClipUnlocker plays a zero-volume throwaway clip on the first
// blocked attempt or user gesture, then retries whatever is pending. The
// attempt happens at most once per session regardless of its own outcome.
type SilentClipUnlocker struct {
	player    Player
	silentURL string

	mu    sync.Mutex
	retry func()
	once  sync.Once
}

// NewSilentClipUnlocker creates an unlocker that plays silentURL through
// player. Wire the retry callback with SetRetry before use.
func NewSilentClipUnlocker(player Player, silentURL string) *SilentClipUnlocker {
	return &SilentClipUnlocker{player: player, silentURL: silentURL}
}

// SetRetry registers the callback run after the unlock attempt, typically
// Engine.RetryPendingAutoplay.
func (u *SilentClipUnlocker) SetRetry(retry func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.retry = retry
}

func (u *SilentClipUnlocker) NotifyBlocked() { u.attempt() }
func (u *SilentClipUnlocker) NotifyGesture() { u.attempt() }

func (u *SilentClipUnlocker) attempt() {
	u.once.Do(func() {
		handle, err := u.player.Open(u.silentURL, func(error) {})
		if err == nil {
			// Outcome deliberately ignored: a failed probe still means a
			// gesture happened, so retrying is worthwhile either way.
			_ = handle.Play()
		}

		u.mu.Lock()
		retry := u.retry
		u.mu.Unlock()
		if retry != nil {
			retry()
		}
	})
}
