package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
	"github.com/jaspy-nexus/jaspy-nexus/internal/misscache"
)

func TestTick_FirstTickIsFullRefreshRegardlessOfPhase(t *testing.T) {
	gw := inventory.NewFake()
	sw1 := gw.AddDevice("sw1", "example.com")
	gw.AddInterface(sw1, 1, "Gi0/1", "ethernet", nil)

	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)

	s.tick(context.Background())

	if _, ok := store.Device("sw1.example.com"); !ok {
		t.Fatal("expected sw1 to be refreshed on the first tick")
	}
}

func TestTick_IncrementalRefreshOnlyTouchesMissedDevices(t *testing.T) {
	gw := inventory.NewFake()
	sw1 := gw.AddDevice("sw1", "example.com")
	sw2 := gw.AddDevice("sw2", "example.com")
	gw.AddInterface(sw1, 1, "Gi0/1", "ethernet", nil)
	gw.AddInterface(sw2, 1, "Gi0/1", "ethernet", nil)

	clk := clock.NewFake(0)
	store := imds.New(clk, gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)

	s.tick(context.Background()) // first tick: full refresh, both devices known now (expiry 60)

	// Advance past the forced full-refresh phase (k becomes 1 after tick 1).
	clk.Set(5)
	misses.Insert("sw2.example.com")
	s.tick(context.Background())

	sw2Metrics, ok := store.Device("sw2.example.com")
	if !ok {
		t.Fatal("expected sw2 (in miss cache) to have been refreshed")
	}
	if sw2Metrics.Expiry != 65 {
		t.Fatalf("expected sw2 expiry extended to 65, got %v", sw2Metrics.Expiry)
	}
	sw1Metrics, ok := store.Device("sw1.example.com")
	if !ok {
		t.Fatal("expected sw1 to survive the incremental tick")
	}
	if sw1Metrics.Expiry != 60 {
		t.Fatalf("expected sw1 (not in miss cache) to keep expiry 60, got %v", sw1Metrics.Expiry)
	}
}

// S5 — miss feedback: a device inserted into the Miss-Cache is refreshed on
// the very next tick regardless of phase.
func TestTick_MissFeedbackIndependentOfPhase(t *testing.T) {
	gw := inventory.NewFake()
	late := gw.AddDevice("late", "example.com")
	gw.AddInterface(late, 1, "Gi0/1", "ethernet", nil)

	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)
	s.firstTick = false
	s.phase = 5 // mid-cycle, not a forced full-refresh tick

	if _, ok := store.Device("late.example.com"); ok {
		t.Fatal("precondition: device should not exist yet")
	}

	misses.Insert("late.example.com")
	s.tick(context.Background())

	if _, ok := store.Device("late.example.com"); !ok {
		t.Fatal("expected miss-cache entry to be refreshed this tick")
	}
}

func TestTick_NoMissesMidPhaseIsNoop(t *testing.T) {
	gw := inventory.NewFake()
	gw.AddDevice("sw1", "example.com")

	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)
	s.firstTick = false
	s.phase = 3

	s.tick(context.Background())

	if _, ok := store.Device("sw1.example.com"); ok {
		t.Fatal("expected no refresh on a mid-phase tick with an empty miss-cache")
	}
}

func TestTick_GatewayFailureRequeuesMisses(t *testing.T) {
	gw := inventory.NewFake()
	gw.AddDevice("sw1", "example.com")

	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)

	misses.Insert("sw1.example.com")
	gw.Unavailable = true
	s.tick(context.Background())

	if misses.IsEmpty() {
		t.Fatal("expected the failed tick's misses to be requeued")
	}
	if _, ok := store.Device("sw1.example.com"); ok {
		t.Fatal("expected no state mutation on a failed tick")
	}
}

func TestTick_PhaseAdvancesAndWrapsAfterTenTicks(t *testing.T) {
	gw := inventory.NewFake()
	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, time.Second)

	s.tick(context.Background()) // first tick: phase 0 -> 1, firstTick cleared
	for i := 0; i < phaseCount-1; i++ {
		s.tick(context.Background())
	}
	if s.phase != 0 {
		t.Fatalf("expected phase to wrap to 0 after %d ticks, got %d", phaseCount, s.phase)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	gw := inventory.NewFake()
	store := imds.New(clock.NewFake(0), gw, bus.Noop{}, 0)
	misses := misscache.New()
	s := New(store, gw, misses, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to return promptly after cancellation")
	}
}
