package engine

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a scheduled slot entry.
type Status string

const (
	StatusScheduled Status = "scheduled" // timer armed, not yet due
	StatusReady     Status = "ready"     // due, waiting to acquire the output
	StatusQueued    Status = "queued"    // due while another entry holds the output
	StatusPlaying   Status = "playing"   // holds the single audio output
	StatusDone      Status = "done"      // reached end of stream
	StatusError     Status = "error"     // terminal playback failure
)

// Recording identifies a playable clip as observed from the feed.
type Recording struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// MakeEntryID derives the deterministic entry id for a recording/slot
// pair, so re-observation never duplicates entries.
func MakeEntryID(recordingID string, slotNumber int) string {
	return fmt.Sprintf("%s:%d", recordingID, slotNumber)
}

// Entry joins one recording with one enabled repeat slot.
type Entry struct {
	ID            string    `json:"id"`
	RecordingID   string    `json:"recordingId"`
	RecordingName string    `json:"recordingName"`
	URL           string    `json:"url"`
	SlotNumber    int       `json:"slotNumber"` // 1-based among all 6 positions
	PlayNumber    int       `json:"playNumber"` // 1-based among enabled positions
	PlaybackRate  float64   `json:"playbackRate"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Status        Status    `json:"status"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`

	// gen distinguishes playback attempts so end-of-stream callbacks from
	// a discarded audio handle cannot act on a newer attempt.
	gen int
}
