package engine

import "errors"

// ErrPlaybackBlocked marks a play attempt rejected by platform autoplay
// policy. It is retryable; every other playback error is terminal.
var ErrPlaybackBlocked = errors.New("playback blocked by platform policy")

// ErrEntryNotFound is returned by operations on unknown entry ids.
var ErrEntryNotFound = errors.New("entry not found")

// AudioHandle is one playable instance of a clip. A handle belongs to a
// single playback grant; the engine discards it and opens a fresh one on
// re-grant.
type AudioHandle interface {
	// SeekStart rewinds to the beginning of the clip.
	SeekStart()
	// SetRate sets the playback rate for the next Play.
	SetRate(rate float64)
	// Play begins playback. A nil return means playback started; end of
	// stream is signaled through the onEnded callback passed to Open.
	// ErrPlaybackBlocked means the platform refused to start without a
	// user gesture; any other error is terminal.
	Play() error
	// Pause stops playback. Safe to call on a handle that is not playing.
	Pause()
}

// Player opens audio handles for clip URLs. The onEnded callback fires at
// most once per Play: with a nil error on natural end of stream, or with
// the failure when playback dies mid-stream. Implementations must not
// invoke onEnded synchronously from within Play.
type Player interface {
	Open(url string, onEnded func(err error)) (AudioHandle, error)
}
