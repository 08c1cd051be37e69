package engine

import (
	"sync"
	"time"
)

// fakeClock drives the engine deterministically. Advance moves time
// forward and fires due timers in order without holding the clock lock,
// so callbacks may re-enter the clock or the engine.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk     *fakeClock
	when    time.Time
	f       func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		if c.now.Before(next.when) {
			c.now = next.when
		}
		next.fired = true
		f := next.f
		c.mu.Unlock()
		f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// fakePlayer records every opened handle and every successful Play in
// order. Open and Play failures are switchable mid-test.
type fakePlayer struct {
	mu      sync.Mutex
	openErr error
	playErr error
	handles []*fakeHandle
	plays   []string
}

type fakeHandle struct {
	player  *fakePlayer
	url     string
	onEnded func(err error)

	mu     sync.Mutex
	rate   float64
	paused bool
}

func (p *fakePlayer) Open(url string, onEnded func(err error)) (AudioHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return nil, p.openErr
	}
	h := &fakeHandle{player: p, url: url, onEnded: onEnded}
	p.handles = append(p.handles, h)
	return h, nil
}

func (p *fakePlayer) setPlayErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playErr = err
}

func (p *fakePlayer) setOpenErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

func (p *fakePlayer) playedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.plays))
	copy(out, p.plays)
	return out
}

func (p *fakePlayer) lastHandle() *fakeHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.handles) == 0 {
		return nil
	}
	return p.handles[len(p.handles)-1]
}

func (h *fakeHandle) SeekStart() {}

func (h *fakeHandle) SetRate(rate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rate = rate
}

func (h *fakeHandle) Play() error {
	h.player.mu.Lock()
	err := h.player.playErr
	if err == nil {
		h.player.plays = append(h.player.plays, h.url)
	}
	h.player.mu.Unlock()
	return err
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

// finish simulates end of stream for this handle.
func (h *fakeHandle) finish(err error) {
	h.onEnded(err)
}

func (h *fakeHandle) currentRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rate
}

func (h *fakeHandle) isPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func newTestEngine(ttl time.Duration) (*Engine, *fakeClock, *fakePlayer) {
	clk := newFakeClock()
	player := &fakePlayer{}
	eng := New(Config{Clock: clk, Player: player, TTL: ttl})
	return eng, clk, player
}

func boolPtr(v bool) *bool { return &v }

func singleSlotConfig(gapSeconds float64) []SlotSetting {
	settings := make([]SlotSetting, SlotCount)
	for i := range settings {
		settings[i] = SlotSetting{
			GapSeconds:   gapSeconds,
			PlaybackRate: 1.0,
			Enabled:      boolPtr(i == 0),
		}
	}
	return settings
}
