package feed

import (
	"context"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/core/engine"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// Poller drives the engine from the recordings API: every interval (or on
// an explicit nudge) it fetches the listing and server time and hands both
// to the engine for reconciliation.
type Poller struct {
	client   *Client
	engine   *engine.Engine
	interval time.Duration
	nudge    chan struct{}
}

// NewPoller creates a poller over the given client and engine.
func NewPoller(client *Client, eng *engine.Engine, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		client:   client,
		engine:   eng,
		interval: interval,
		nudge:    make(chan struct{}, 1),
	}
}

// Nudge requests an immediate poll. Safe from any goroutine; coalesces
// when a poll is already pending.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.nudge:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	page, err := p.client.ListRecordings(ctx)
	if err != nil {
		logger.Warn("recordings poll failed", logger.ErrorField(err))
		return
	}
	p.engine.Observe(page.Recordings, page.ServerTime)
	logger.Debug("recordings poll applied", logger.Int("count", len(page.Recordings)))
}
