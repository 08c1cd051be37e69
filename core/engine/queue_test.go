package engine

import (
	"errors"
	"testing"
	"time"
)

func TestSimultaneousEntriesPlaySerially(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	if got := player.playedURLs(); len(got) != 1 || got[0] != "url-a" {
		t.Fatalf("plays = %v, want only url-a", got)
	}
	entryB, _ := findEntry(eng, MakeEntryID(b.ID, 1))
	if entryB.Status != StatusQueued {
		t.Fatalf("second entry status = %s, want queued", entryB.Status)
	}

	player.lastHandle().finish(nil)
	if got := player.playedURLs(); len(got) != 2 || got[1] != "url-b" {
		t.Fatalf("plays after first finish = %v, want url-a then url-b", got)
	}
	entryB, _ = findEntry(eng, MakeEntryID(b.ID, 1))
	if entryB.Status != StatusPlaying {
		t.Fatalf("second entry status = %s, want playing", entryB.Status)
	}
}

func TestQueuedEntriesDrainInArrivalOrder(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	recs := []Recording{
		{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()},
		{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()},
		{ID: "rec-c", URL: "url-c", CreatedAt: clk.Now()},
		{ID: "rec-d", URL: "url-d", CreatedAt: clk.Now()},
	}
	eng.Observe(recs, time.Time{})
	clk.Advance(0)

	for _, rec := range recs[1:] {
		entry, _ := findEntry(eng, MakeEntryID(rec.ID, 1))
		if entry.Status != StatusQueued {
			t.Fatalf("entry %s status = %s, want queued", rec.ID, entry.Status)
		}
	}

	for i := 0; i < len(recs)-1; i++ {
		player.lastHandle().finish(nil)
	}

	want := []string{"url-a", "url-b", "url-c", "url-d"}
	got := player.playedURLs()
	if len(got) != len(want) {
		t.Fatalf("plays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("play %d = %q, want %q (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestAutoplayBlockedRetriesAfterBackoff(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))
	player.setPlayErr(ErrPlaybackBlocked)

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	id := MakeEntryID(rec.ID, 1)
	entry, _ := findEntry(eng, id)
	if entry.Status != StatusReady {
		t.Fatalf("blocked entry status = %s, want ready", entry.Status)
	}
	if len(player.playedURLs()) != 0 {
		t.Fatal("blocked attempt counted as a play")
	}

	player.setPlayErr(nil)
	clk.Advance(2 * time.Second) // fixed autoplay backoff
	entry, _ = findEntry(eng, id)
	if entry.Status != StatusPlaying {
		t.Fatalf("entry after backoff = %s, want playing", entry.Status)
	}
	if len(player.playedURLs()) != 1 {
		t.Fatalf("plays after backoff = %d, want 1", len(player.playedURLs()))
	}
}

func TestRetryPendingAutoplayDrainsInOrder(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))
	player.setPlayErr(ErrPlaybackBlocked)

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	player.setPlayErr(nil)
	eng.RetryPendingAutoplay()

	if got := player.playedURLs(); len(got) != 1 || got[0] != "url-a" {
		t.Fatalf("plays after unlock = %v, want url-a first", got)
	}
	entryB, _ := findEntry(eng, MakeEntryID(b.ID, 1))
	if entryB.Status != StatusQueued {
		t.Fatalf("second blocked entry status = %s, want queued behind the first", entryB.Status)
	}
}

func TestTerminalFailureKeepsEntryVisible(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))
	player.setPlayErr(errors.New("decoder crashed"))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	entry, ok := findEntry(eng, MakeEntryID(rec.ID, 1))
	if !ok {
		t.Fatal("failed entry was removed")
	}
	if entry.Status != StatusError || entry.ErrorMessage != "decoder crashed" {
		t.Fatalf("entry = %+v, want terminal error with message", entry)
	}
}

func TestFailureMidStreamAdvancesQueue(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	// First entry dies mid-stream; the second must take the output.
	player.lastHandle().finish(errors.New("stream reset"))

	entryA, ok := findEntry(eng, MakeEntryID(a.ID, 1))
	if !ok || entryA.Status != StatusError {
		t.Fatalf("failed entry = %+v, want kept with error status", entryA)
	}
	if got := player.playedURLs(); len(got) != 2 || got[1] != "url-b" {
		t.Fatalf("plays = %v, want advance to url-b", got)
	}
}

func TestOpenFailureIsTerminal(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))
	player.setOpenErr(errors.New("no such clip"))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	entry, _ := findEntry(eng, MakeEntryID(rec.ID, 1))
	if entry.Status != StatusError {
		t.Fatalf("entry after open failure = %s, want error", entry.Status)
	}
}

func TestRetryPlayRecoversFailedEntry(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))
	player.setPlayErr(errors.New("decoder crashed"))

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	player.setPlayErr(nil)
	id := MakeEntryID(rec.ID, 1)
	if err := eng.RetryPlay(id); err != nil {
		t.Fatalf("RetryPlay: %v", err)
	}

	entry, _ := findEntry(eng, id)
	if entry.Status != StatusPlaying || entry.ErrorMessage != "" {
		t.Fatalf("entry after retry = %+v, want playing with cleared error", entry)
	}
	if err := eng.RetryPlay("missing:1"); err != ErrEntryNotFound {
		t.Fatalf("retry of unknown id err = %v, want ErrEntryNotFound", err)
	}
}

func TestManualRetryBlockedIsTerminal(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(1))
	player.setPlayErr(ErrPlaybackBlocked)

	rec := Recording{ID: "rec-a", URL: "u", CreatedAt: clk.Now()}
	eng.Observe([]Recording{rec}, time.Time{})
	clk.Advance(time.Second)

	// A manual attempt follows a gesture; a block here means something else
	// is wrong, so it fails instead of waiting for another unlock.
	id := MakeEntryID(rec.ID, 1)
	if err := eng.RetryPlay(id); err != nil {
		t.Fatalf("RetryPlay: %v", err)
	}
	entry, _ := findEntry(eng, id)
	if entry.Status != StatusError {
		t.Fatalf("manually retried blocked entry = %s, want error", entry.Status)
	}
}

func TestQueuedManualRetryBlockedIsTerminal(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	// A user retry while the output is busy waits its turn but keeps
	// manual failure semantics when the grant finally happens.
	idB := MakeEntryID(b.ID, 1)
	if err := eng.RetryPlay(idB); err != nil {
		t.Fatalf("RetryPlay: %v", err)
	}

	player.setPlayErr(ErrPlaybackBlocked)
	player.lastHandle().finish(nil)

	entryB, ok := findEntry(eng, idB)
	if !ok {
		t.Fatal("retried entry was removed")
	}
	if entryB.Status != StatusError {
		t.Fatalf("blocked grant of queued manual retry = %s, want error", entryB.Status)
	}
}

func TestStaleEndedCallbackIgnored(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	h := player.lastHandle()
	h.finish(nil)
	// A duplicate end-of-stream from the finished handle must not disturb
	// the entry that now holds the output.
	h.finish(nil)

	entryB, ok := findEntry(eng, MakeEntryID(b.ID, 1))
	if !ok || entryB.Status != StatusPlaying {
		t.Fatalf("entry after stale callback = %+v, want still playing", entryB)
	}
}

func TestDiscardPlayingEntryAdvances(t *testing.T) {
	eng, clk, player := newTestEngine(0)
	defer eng.Close()
	eng.SetRepeatConfig(singleSlotConfig(0))

	a := Recording{ID: "rec-a", URL: "url-a", CreatedAt: clk.Now()}
	b := Recording{ID: "rec-b", URL: "url-b", CreatedAt: clk.Now()}
	eng.Observe([]Recording{a, b}, time.Time{})
	clk.Advance(0)

	if err := eng.Discard(MakeEntryID(a.ID, 1)); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if got := player.playedURLs(); len(got) != 2 || got[1] != "url-b" {
		t.Fatalf("plays after discard = %v, want advance to url-b", got)
	}
}
