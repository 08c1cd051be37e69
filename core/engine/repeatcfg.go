package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SlotCount is the fixed number of repeat positions per recording.
const SlotCount = 6

const (
	// DefaultGapSeconds pads missing slot settings.
	DefaultGapSeconds = 30
	// DefaultPlaybackRate pads missing or non-positive rates.
	DefaultPlaybackRate = 1.0
	// MinPlaybackRate and MaxPlaybackRate bound the playback rate.
	MinPlaybackRate = 0.5
	MaxPlaybackRate = 3.0
)

// SlotSetting is one user-editable repeat position as submitted. Fields may
// be missing or malformed; NormalizeRepeatConfig coerces them.
type SlotSetting struct {
	GapSeconds   float64 `json:"gapSeconds"`
	PlaybackRate float64 `json:"playbackRate"`
	Enabled      *bool   `json:"enabled,omitempty"` // defaults to true when absent
}

// Slot is one fully coerced repeat position.
type Slot struct {
	GapSeconds   int     `json:"gapSeconds"`
	PlaybackRate float64 `json:"playbackRate"`
	Enabled      bool    `json:"enabled"`
}

// EnabledSlot describes one enabled position with its cumulative offset
// from a recording's base time.
type EnabledSlot struct {
	SlotNumber int   `json:"slotNumber"` // 1-based among all positions
	PlayNumber int   `json:"playNumber"` // 1-based among enabled positions only
	OffsetMs   int64 `json:"offsetMs"`
}

// Schedule is the canonical normalized form of a repeat configuration:
// exactly SlotCount slots, the parallel cumulative offsets (nil for
// disabled slots), and the ordered list of enabled positions.
type Schedule struct {
	Slots        [SlotCount]Slot
	OffsetsMs    [SlotCount]*int64
	EnabledSlots []EnabledSlot
}

// NormalizeRepeatConfig coerces a user-supplied slot list into a canonical
// Schedule. The function is pure: identical input always yields identical
// output, so Key can serve as a change-detection key.
//
// Rules: gaps become non-negative integers, rates are clamped to
// [MinPlaybackRate, MaxPlaybackRate] (non-positive or NaN values fall back
// to DefaultPlaybackRate first), enabled defaults to true, entries beyond
// SlotCount are dropped and missing ones padded with defaults. If nothing
// ends up enabled, slot 1 is force-enabled so every recording plays at
// least once.
func NormalizeRepeatConfig(settings []SlotSetting) Schedule {
	var s Schedule

	for i := 0; i < SlotCount; i++ {
		if i < len(settings) {
			s.Slots[i] = coerceSlot(settings[i])
		} else {
			s.Slots[i] = Slot{GapSeconds: DefaultGapSeconds, PlaybackRate: DefaultPlaybackRate, Enabled: true}
		}
	}

	anyEnabled := false
	for i := range s.Slots {
		if s.Slots[i].Enabled {
			anyEnabled = true
			break
		}
	}
	if !anyEnabled {
		s.Slots[0].Enabled = true
	}

	cumulative := int64(0)
	playNumber := 0
	for i := range s.Slots {
		if !s.Slots[i].Enabled {
			continue
		}
		playNumber++
		cumulative += int64(s.Slots[i].GapSeconds) * 1000
		offset := cumulative
		s.OffsetsMs[i] = &offset
		s.EnabledSlots = append(s.EnabledSlots, EnabledSlot{
			SlotNumber: i + 1,
			PlayNumber: playNumber,
			OffsetMs:   offset,
		})
	}

	return s
}

func coerceSlot(in SlotSetting) Slot {
	gap := int(in.GapSeconds)
	if math.IsNaN(in.GapSeconds) || gap < 0 {
		gap = 0
	}

	rate := in.PlaybackRate
	if math.IsNaN(rate) || rate <= 0 {
		rate = DefaultPlaybackRate
	}
	if rate < MinPlaybackRate {
		rate = MinPlaybackRate
	}
	if rate > MaxPlaybackRate {
		rate = MaxPlaybackRate
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	return Slot{GapSeconds: gap, PlaybackRate: rate, Enabled: enabled}
}

// Key returns a deterministic serialized form of the schedule. A changed
// key invalidates all in-flight entries and timers, since offsets are
// relative and any edit shifts the whole timeline.
func (s Schedule) Key() string {
	var b strings.Builder
	for i, slot := range s.Slots {
		if i > 0 {
			b.WriteByte('|')
		}
		// Rates carry full float precision so arbitrarily close values
		// never collide into the same key.
		fmt.Fprintf(&b, "%d:%s:%t", slot.GapSeconds,
			strconv.FormatFloat(slot.PlaybackRate, 'g', -1, 64), slot.Enabled)
	}
	return b.String()
}

// Settings converts the schedule back to the submission form, used when
// echoing the normalized configuration to clients.
func (s Schedule) Settings() []SlotSetting {
	out := make([]SlotSetting, SlotCount)
	for i, slot := range s.Slots {
		enabled := slot.Enabled
		out[i] = SlotSetting{
			GapSeconds:   float64(slot.GapSeconds),
			PlaybackRate: slot.PlaybackRate,
			Enabled:      &enabled,
		}
	}
	return out
}
