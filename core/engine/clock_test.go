package engine

import (
	"testing"
	"time"
)

func TestTrustedNowWithoutSample(t *testing.T) {
	clk := newFakeClock()
	rec := NewClockReconciler(clk)

	if got := rec.TrustedNow(); !got.Equal(clk.Now()) {
		t.Fatalf("TrustedNow = %v, want local time %v", got, clk.Now())
	}
	if _, synced := rec.Offset(); synced {
		t.Fatal("reconciler reports synced before any sample")
	}
}

func TestTrustedNowAppliesServerOffset(t *testing.T) {
	clk := newFakeClock()
	rec := NewClockReconciler(clk)

	local := clk.Now()
	server := local.Add(90 * time.Minute) // device clock running 90m behind
	rec.Observe(server, local)

	offset, synced := rec.Offset()
	if !synced {
		t.Fatal("reconciler not synced after sample")
	}
	if offset != 90*time.Minute {
		t.Fatalf("offset = %v, want 90m", offset)
	}
	if got := rec.TrustedNow(); !got.Equal(server) {
		t.Fatalf("TrustedNow = %v, want %v", got, server)
	}

	// The offset keeps applying as local time moves forward.
	clk.Advance(10 * time.Second)
	want := server.Add(10 * time.Second)
	if got := rec.TrustedNow(); !got.Equal(want) {
		t.Fatalf("TrustedNow after advance = %v, want %v", got, want)
	}
}

func TestZeroServerTimeIgnored(t *testing.T) {
	clk := newFakeClock()
	rec := NewClockReconciler(clk)

	rec.Observe(clk.Now().Add(time.Hour), clk.Now())
	rec.Observe(time.Time{}, clk.Now())

	offset, synced := rec.Offset()
	if !synced || offset != time.Hour {
		t.Fatalf("zero sample overwrote offset: %v synced=%v", offset, synced)
	}
}

func TestLaterSampleReplacesOffset(t *testing.T) {
	clk := newFakeClock()
	rec := NewClockReconciler(clk)

	local := clk.Now()
	rec.Observe(local.Add(time.Hour), local)
	rec.Observe(local.Add(2*time.Minute), local)

	offset, _ := rec.Offset()
	if offset != 2*time.Minute {
		t.Fatalf("offset = %v, want latest sample to win", offset)
	}
}
