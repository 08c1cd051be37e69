package engine

import (
	"testing"
	"time"
)

func findEntry(eng *Engine, id string) (Entry, bool) {
	for _, e := range eng.Entries() {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func TestObserveSchedulesAllEnabledSlots(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()

	rec := Recording{ID: "rec-a", Name: "Clip A", URL: "http://x/audio/rec-a", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})

	entries := eng.Entries()
	if len(entries) != SlotCount {
		t.Fatalf("entries = %d, want %d", len(entries), SlotCount)
	}
	for i, e := range entries {
		if e.Status != StatusScheduled {
			t.Fatalf("entry %s status = %s, want scheduled", e.ID, e.Status)
		}
		wantAt := clk.Now().Add(time.Duration(i+1) * DefaultGapSeconds * time.Second)
		if !e.ScheduledAt.Equal(wantAt) {
			t.Fatalf("entry %s scheduled at %v, want %v", e.ID, e.ScheduledAt, wantAt)
		}
	}

	clk.Advance(DefaultGapSeconds * time.Second)
	if got := player.playedURLs(); len(got) != 1 || got[0] != rec.URL {
		t.Fatalf("plays after first offset = %v, want one play of %s", got, rec.URL)
	}
	first, ok := findEntry(eng, MakeEntryID(rec.ID, 1))
	if !ok || first.Status != StatusPlaying {
		t.Fatalf("first slot entry = %+v, want playing", first)
	}
}

func TestObserveIsIdempotent(t *testing.T) {
	eng, clk, _ := newTestEngine(0)
	defer eng.Close()

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(5 * time.Second)
	eng.Observe([]Recording{rec}, time.Time{})

	if got := len(eng.Entries()); got != SlotCount {
		t.Fatalf("entries after re-observation = %d, want %d", got, SlotCount)
	}
	// Scheduled times must still be anchored at the first observation.
	first, _ := findEntry(eng, MakeEntryID(rec.ID, 1))
	want := clk.Now().Add(DefaultGapSeconds*time.Second - 5*time.Second)
	if !first.ScheduledAt.Equal(want) {
		t.Fatalf("first slot rescheduled to %v, want %v", first.ScheduledAt, want)
	}
}

func TestFullLifecycleRemovesFinishedEntry(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	h := player.lastHandle()
	if h == nil {
		t.Fatal("nothing played")
	}
	h.finish(nil)

	if got := len(eng.Entries()); got != 0 {
		t.Fatalf("entries after finish = %d, want 0", got)
	}
}

func TestTwoSlotScheduleRunsToCompletion(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()

	settings := make([]SlotSetting, SlotCount)
	for i := range settings {
		settings[i] = SlotSetting{GapSeconds: 30, PlaybackRate: 1.0, Enabled: boolPtr(false)}
	}
	settings[0] = SlotSetting{GapSeconds: 0, PlaybackRate: 1.0, Enabled: boolPtr(true)}
	settings[1] = SlotSetting{GapSeconds: 30, PlaybackRate: 1.0, Enabled: boolPtr(true)}
	eng.SetRepeatConfig(settings)

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})

	first := MakeEntryID(rec.ID, 1)
	second := MakeEntryID(rec.ID, 2)

	clk.Advance(0)
	if entry, _ := findEntry(eng, first); entry.Status != StatusPlaying {
		t.Fatalf("first slot at due time = %s, want playing", entry.Status)
	}
	if entry, _ := findEntry(eng, second); entry.Status != StatusScheduled {
		t.Fatalf("second slot before its offset = %s, want scheduled", entry.Status)
	}

	player.lastHandle().finish(nil)
	if _, ok := findEntry(eng, first); ok {
		t.Fatal("first entry still present after finishing")
	}

	clk.Advance(30 * time.Second)
	if entry, _ := findEntry(eng, second); entry.Status != StatusPlaying {
		t.Fatalf("second slot at its offset = %s, want playing", entry.Status)
	}
	player.lastHandle().finish(nil)

	if entries := eng.Entries(); len(entries) != 0 {
		t.Fatalf("entries after both plays = %v, want none", entries)
	}
	if got := player.playedURLs(); len(got) != 2 {
		t.Fatalf("plays = %v, want exactly 2", got)
	}
}

func TestPlaybackRateFollowsSlot(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()

	settings := singleSlotConfig(1)
	settings[0].PlaybackRate = 2.5
	eng.SetRepeatConfig(settings)

	eng.Observe([]Recording{{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}}, time.Time{})
	clk.Advance(time.Second)

	if rate := player.lastHandle().currentRate(); rate != 2.5 {
		t.Fatalf("handle rate = %v, want 2.5", rate)
	}
}

func TestDisappearanceTearsDownRecording(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(0)
	if len(player.playedURLs()) != 1 {
		t.Fatal("recording did not start playing")
	}

	eng.Observe(nil, time.Time{})
	if got := len(eng.Entries()); got != 0 {
		t.Fatalf("entries after disappearance = %d, want 0", got)
	}
	if !player.lastHandle().isPaused() {
		t.Fatal("playing audio not stopped on teardown")
	}
}

func TestExpirySweepTearsDownRecording(t *testing.T) {
	eng, clk, player := newTestEngine(5 * time.Second)
	defer eng.Close()
	eng.Start()
	eng.SetRepeatConfig(singleSlotConfig(2))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(2 * time.Second)
	if len(player.playedURLs()) != 1 {
		t.Fatal("recording did not start playing")
	}

	clk.Advance(4 * time.Second) // past the 5s TTL, sweep runs every second
	if got := len(eng.Entries()); got != 0 {
		t.Fatalf("entries after expiry = %d, want 0", got)
	}
	if !player.lastHandle().isPaused() {
		t.Fatal("expired recording kept playing")
	}
}

func TestArrivedAlreadyExpiredIsSkipped(t *testing.T) {
	eng, clk, _ := newTestEngine(10 * time.Second)
	defer eng.Close()

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now().Add(-11 * time.Second)}
	eng.Observe([]Recording{rec}, time.Time{})

	if got := len(eng.Entries()); got != 0 {
		t.Fatalf("expired arrival produced %d entries, want 0", got)
	}
}

func TestConfigChangeDiscardsAndReschedules(t *testing.T) {
	eng, clk, _ := newTestEngine(0)
	defer eng.Close()

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	if len(eng.Entries()) != SlotCount {
		t.Fatal("initial schedule missing")
	}

	eng.SetRepeatConfig(singleSlotConfig(7))
	if got := len(eng.Entries()); got != 0 {
		t.Fatalf("entries after config change = %d, want 0", got)
	}

	// The recording is no longer considered seen, so the next observation
	// rebuilds its schedule under the new configuration.
	eng.Observe([]Recording{rec}, time.Time{})
	entries := eng.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries after rebuild = %d, want 1", len(entries))
	}
	want := clk.Now().Add(7 * time.Second)
	if !entries[0].ScheduledAt.Equal(want) {
		t.Fatalf("rebuilt entry at %v, want %v", entries[0].ScheduledAt, want)
	}
}

func TestUnchangedConfigKeepsSchedule(t *testing.T) {
	eng, clk, _ := newTestEngine(0)
	defer eng.Close()

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})

	// Re-submitting an equivalent configuration must not reset anything.
	eng.SetRepeatConfig(NormalizeRepeatConfig(nil).Settings())
	if got := len(eng.Entries()); got != SlotCount {
		t.Fatalf("entries after no-op config submit = %d, want %d", got, SlotCount)
	}
}

func TestServerTimeGovernsExpiry(t *testing.T) {
	eng, clk, _ := newTestEngine(30 * time.Second)
	defer eng.Close()

	// Device clock runs an hour fast: in local terms the recording looks
	// long expired, in server terms it is brand new.
	serverNow := clk.Now().Add(-time.Hour)
	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: serverNow}
	eng.Observe([]Recording{rec}, serverNow)

	if got := len(eng.Entries()); got != SlotCount {
		t.Fatalf("entries with skewed clock = %d, want %d", got, SlotCount)
	}
}

func TestDiscardRemovesSingleEntry(t *testing.T) {
	eng, clk, _ := newTestEngine(0)
	defer eng.Close()

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})

	id := MakeEntryID(rec.ID, 3)
	if err := eng.Discard(id); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, ok := findEntry(eng, id); ok {
		t.Fatal("discarded entry still present")
	}
	if got := len(eng.Entries()); got != SlotCount-1 {
		t.Fatalf("entries = %d, want %d", got, SlotCount-1)
	}
	if err := eng.Discard(id); err != ErrEntryNotFound {
		t.Fatalf("second discard err = %v, want ErrEntryNotFound", err)
	}
}
