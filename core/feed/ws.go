package feed

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mattislub/Timed-Audio-Queue/logger"
)

const wsReconnectDelay = 5 * time.Second

// ChangeListener subscribes to the server's change-notification socket and
// nudges the poller whenever the recordings set changes, so new uploads
// start their schedule without waiting for the next poll tick.
type ChangeListener struct {
	wsURL  string
	poller *Poller
}

// NewChangeListener builds a listener from the HTTP base URL.
func NewChangeListener(baseURL string, poller *Poller) *ChangeListener {
	wsURL := strings.TrimRight(baseURL, "/") + "/ws/notify"
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &ChangeListener{wsURL: wsURL, poller: poller}
}

// Run keeps a socket open until ctx is cancelled, reconnecting with a
// fixed delay on any failure. Loss of the socket is not fatal: polling
// still converges on its own.
func (l *ChangeListener) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		l.listen(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.wsURL, nil)
	if err != nil {
		logger.Debug("change socket dial failed", logger.String("url", l.wsURL), logger.ErrorField(err))
		return
	}
	defer conn.Close()
	logger.Info("change socket connected", logger.String("url", l.wsURL))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug("change socket closed", logger.ErrorField(err))
			return
		}
		l.poller.Nudge()
	}
}
