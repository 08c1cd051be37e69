package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/logger"
)

const (
	// DefaultTTL bounds a recording's lifetime from its creation time.
	DefaultTTL = 30 * time.Minute
	// autoplayRetryDelay is the fixed backoff before a blocked entry is
	// re-attempted automatically, independent of the unlock probe.
	autoplayRetryDelay = 2 * time.Second
	// sweepInterval is the cadence of the expiry sweep.
	sweepInterval = time.Second
)

// Config configures an Engine.
type Config struct {
	Clock  Clock         // nil uses the real clock
	Player Player        // required
	Unlock Unlocker      // nil uses NoopUnlocker
	TTL    time.Duration // zero uses DefaultTTL
}

// Engine is the playback scheduling engine. It turns observed recordings
// and the current repeat configuration into timed, serialized, retryable
// playback, holding the invariant that at most one entry plays at a time.
//
// All state lives behind one mutex; timer callbacks and feed updates
// re-check entry existence and status before acting, since their ordering
// is not guaranteed.
type Engine struct {
	clk    Clock
	clock  *ClockReconciler
	player Player
	unlock Unlocker
	ttl    time.Duration

	mu          sync.Mutex
	schedule    Schedule
	scheduleKey string

	entries     map[string]*Entry
	timers      map[string]Timer      // slot timers keyed by entry id
	retryTimers map[string]Timer      // autoplay backoff timers keyed by entry id
	audio       map[string]AudioHandle
	seen        map[string]Recording // recordings already scheduled, keyed by id

	waiting         []string        // FIFO of entry ids awaiting the output
	manualWaiting   map[string]bool // queued ids whose request followed a user action
	pendingAutoplay []string        // entry ids blocked by autoplay policy, in block order
	playingID       string

	sweepTimer Timer
	closed     bool
}

// New creates an engine. Call Start to begin the expiry sweep and Close to
// tear everything down.
func New(cfg Config) *Engine {
	clk := cfg.Clock
	if clk == nil {
		clk = NewRealClock()
	}
	unlock := cfg.Unlock
	if unlock == nil {
		unlock = NoopUnlocker{}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	schedule := NormalizeRepeatConfig(nil)
	return &Engine{
		clk:         clk,
		clock:       NewClockReconciler(clk),
		player:      cfg.Player,
		unlock:      unlock,
		ttl:         ttl,
		schedule:    schedule,
		scheduleKey: schedule.Key(),
		entries:     make(map[string]*Entry),
		timers:      make(map[string]Timer),
		retryTimers: make(map[string]Timer),
		audio:         make(map[string]AudioHandle),
		seen:          make(map[string]Recording),
		manualWaiting: make(map[string]bool),
	}
}

// Start arms the repeating expiry sweep.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.sweepTimer != nil {
		return
	}
	e.armSweepLocked()
}

func (e *Engine) armSweepLocked() {
	e.sweepTimer = e.clk.AfterFunc(sweepInterval, e.onSweepTick)
}

func (e *Engine) onSweepTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.sweepExpiredLocked(e.clock.TrustedNow())
	e.armSweepLocked()
}

// Close cancels every timer and stops all audio. No timers or playing
// audio survive a Close.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true

	if e.sweepTimer != nil {
		e.sweepTimer.Stop()
		e.sweepTimer = nil
	}
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	for id, t := range e.retryTimers {
		t.Stop()
		delete(e.retryTimers, id)
	}
	for id, h := range e.audio {
		h.Pause()
		delete(e.audio, id)
	}
	e.entries = make(map[string]*Entry)
	e.seen = make(map[string]Recording)
	e.waiting = nil
	e.manualWaiting = make(map[string]bool)
	e.pendingAutoplay = nil
	e.playingID = ""

	logger.Info("playback engine closed")
}

// TrustedNow exposes the reconciled current time.
func (e *Engine) TrustedNow() time.Time {
	return e.clock.TrustedNow()
}

// UserGesture reports a user interaction to the unlock helper.
func (e *Engine) UserGesture() {
	e.unlock.NotifyGesture()
}

// Entries returns a snapshot of all live entries ordered by scheduled
// time, then id, for display and diagnostics.
func (e *Engine) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// removeID removes the first occurrence of id from ids.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// containsID reports whether ids contains id.
func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
