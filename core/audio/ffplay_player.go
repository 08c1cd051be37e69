package audio

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattislub/Timed-Audio-Queue/core/engine"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// FFplayPlayer implements engine.Player by shelling out to ffplay. One
// process per playback attempt; the playback rate maps to an atempo
// filter, which preserves pitch the way browser rate changes do.
type FFplayPlayer struct {
	ffplayPath string
}

// NewFFplayPlayer creates a player using the given ffplay binary.
func NewFFplayPlayer(ffplayPath string) *FFplayPlayer {
	return &FFplayPlayer{ffplayPath: ffplayPath}
}

// Open prepares a handle for one playback of url.
func (p *FFplayPlayer) Open(url string, onEnded func(err error)) (engine.AudioHandle, error) {
	if url == "" {
		return nil, fmt.Errorf("empty clip url")
	}
	return &ffplayHandle{
		path:    p.ffplayPath,
		url:     url,
		rate:    1.0,
		onEnded: onEnded,
	}, nil
}

type ffplayHandle struct {
	path    string
	url     string
	onEnded func(err error)

	mu      sync.Mutex
	rate    float64
	cmd     *exec.Cmd
	started bool
	killed  bool
}

// SeekStart is a no-op: each process plays the clip from the beginning.
func (h *ffplayHandle) SeekStart() {}

func (h *ffplayHandle) SetRate(rate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rate = rate
}

func (h *ffplayHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("audio handle already consumed")
	}

	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if h.rate != 1.0 {
		args = append(args, "-af", fmt.Sprintf("atempo=%.2f", h.rate))
	}
	args = append(args, h.url)

	cmd := exec.Command(h.path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}
	h.cmd = cmd
	h.started = true

	go func() {
		err := cmd.Wait()

		h.mu.Lock()
		killed := h.killed
		h.mu.Unlock()
		if killed {
			return // intentional stop, not an end-of-stream event
		}

		if err != nil {
			h.onEnded(fmt.Errorf("ffplay exited abnormally: %w", err))
			return
		}
		h.onEnded(nil)
	}()

	logger.Debug("ffplay started", logger.String("url", h.url), logger.Float64("rate", h.rate))
	return nil
}

func (h *ffplayHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil || h.cmd.Process == nil || h.killed {
		return
	}
	h.killed = true
	if err := h.cmd.Process.Kill(); err != nil {
		logger.Debug("failed to kill ffplay", logger.ErrorField(err))
	}
}
