package test

import (
	"context"
	"testing"
)

func TestScenariosPass(t *testing.T) {
	opts := DefaultOptions()
	opts.Duration = 120
	for _, r := range RunAll(context.Background(), opts) {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.Name, r.Reason)
		}
	}
}

func TestOfflineCatchUpUnevenStep(t *testing.T) {
	r := OfflineCatchUp(context.Background(), Options{Seed: 4, Step: 0.7, Duration: 10})
	if !r.Passed {
		t.Fatal(r.Reason)
	}
	if r.Ticks != 15 {
		t.Errorf("expected 14 full ticks plus a remainder, got %d", r.Ticks)
	}
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := RunAll(ctx, DefaultOptions()); len(got) != 0 {
		t.Fatalf("cancelled run produced %d results", len(got))
	}
}
