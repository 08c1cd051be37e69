package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattislub/Timed-Audio-Queue/core/engine"
)

type stubPlayer struct{}

func (stubPlayer) Open(url string, onEnded func(err error)) (engine.AudioHandle, error) {
	return nil, engine.ErrEntryNotFound
}

func TestConfigWatcherLoadAppliesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repeat_config.json")
	content := `[{"gapSeconds": 5, "playbackRate": 2.0}, {"gapSeconds": 10, "playbackRate": 1.0, "enabled": false}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(engine.Config{Player: stubPlayer{}})
	defer eng.Close()
	before := eng.Schedule().Key()

	w := NewConfigWatcher(path, eng)
	if err := w.load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	schedule := eng.Schedule()
	if schedule.Key() == before {
		t.Fatal("schedule unchanged after load")
	}
	if schedule.Slots[0].GapSeconds != 5 || schedule.Slots[0].PlaybackRate != 2.0 {
		t.Fatalf("slot 1 = %+v, want gap 5 rate 2.0", schedule.Slots[0])
	}
	if schedule.Slots[1].Enabled {
		t.Fatal("slot 2 should be disabled")
	}
}

func TestConfigWatcherLoadRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repeat_config.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(engine.Config{Player: stubPlayer{}})
	defer eng.Close()
	before := eng.Schedule().Key()

	w := NewConfigWatcher(path, eng)
	if err := w.load(); err == nil {
		t.Fatal("expected parse error")
	}
	if eng.Schedule().Key() != before {
		t.Fatal("bad file changed the schedule")
	}

	missing := NewConfigWatcher(filepath.Join(dir, "absent.json"), eng)
	if err := missing.load(); err == nil {
		t.Fatal("expected read error for missing file")
	}
}
