package imds

import (
	"context"
	"testing"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
)

func newTestStore(clk *clock.Fake, b bus.Bus) *Store {
	return New(clk, inventory.NewFake(), b, 0)
}

func TestRefreshDevice_CreatesUnknown(t *testing.T) {
	clk := clock.NewFake(100)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshDevice("sw1.example.com")

	device, ok := s.Device("sw1.example.com")
	if !ok {
		t.Fatal("expected device to exist after refresh")
	}
	if device.Up.Known() {
		t.Fatalf("expected Up unknown on first refresh, got %v", device.Up)
	}
	if device.Expiry != 100+DefaultTTL.Seconds() {
		t.Fatalf("unexpected expiry: %v", device.Expiry)
	}
}

// Invariant 2: refresh_device on an existing device never decreases expiry
// and never alters up or interfaces.
func TestRefreshDevice_Monotonicity(t *testing.T) {
	clk := clock.NewFake(0)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshDevice("sw1.example.com")
	s.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)

	err := s.ReportDevice(context.Background(), DeviceReport{FQDN: "sw1.example.com", Up: true})
	if err != nil {
		t.Fatalf("ReportDevice: %v", err)
	}

	before, _ := s.Device("sw1.example.com")

	clk.Set(10)
	s.RefreshDevice("sw1.example.com")

	after, _ := s.Device("sw1.example.com")
	if after.Expiry < before.Expiry {
		t.Fatalf("expiry decreased: before %v after %v", before.Expiry, after.Expiry)
	}
	if after.Up != before.Up {
		t.Fatalf("refresh_device must not alter up: before %v after %v", before.Up, after.Up)
	}
	if len(after.Interfaces) != len(before.Interfaces) {
		t.Fatalf("refresh_device must not alter interfaces: before %d after %d", len(before.Interfaces), len(after.Interfaces))
	}
}

func TestRefreshInterface_NoopWithoutDevice(t *testing.T) {
	clk := clock.NewFake(0)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshInterface("ghost.example.com", 1, "ethernet", "Gi0/1", false, nil)

	if _, ok := s.Device("ghost.example.com"); ok {
		t.Fatal("RefreshInterface must not create a device")
	}
}

// S4 — prune ladder: a device past expiry is evicted entirely, taking its
// interfaces with it regardless of their own expiry.
func TestPrune_EvictsDeviceAndInterfacesTogether(t *testing.T) {
	clk := clock.NewFake(0)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshDevice("sw1.example.com")
	s.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)

	clk.Set(70)
	s.Prune()

	if _, ok := s.Device("sw1.example.com"); ok {
		t.Fatal("expected device to be pruned at t=70 with a 60s TTL")
	}
	metrics := s.GetFastMetrics()
	if len(metrics) != 0 {
		t.Fatalf("expected empty fast metrics after prune, got %v", metrics)
	}
}

func TestPrune_EvictsOnlyExpiredInterface(t *testing.T) {
	clk := clock.NewFake(0)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshDevice("sw1.example.com")
	s.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)
	clk.Set(30)
	s.RefreshDevice("sw1.example.com")   // extends device expiry to 90
	s.RefreshInterface("sw1.example.com", 2, "ethernet", "Gi0/2", false, nil) // expiry 90

	clk.Set(65) // interface 1 (expiry 60) is stale, device (expiry 90) is not
	s.Prune()

	device, ok := s.Device("sw1.example.com")
	if !ok {
		t.Fatal("device should survive: its own expiry hasn't passed")
	}
	if _, ok := device.Interfaces[1]; ok {
		t.Fatal("interface 1 should have been pruned individually")
	}
	if _, ok := device.Interfaces[2]; !ok {
		t.Fatal("interface 2 should survive")
	}
}

func TestPrune_EvictionCoherence(t *testing.T) {
	clk := clock.NewFake(0)
	s := newTestStore(clk, bus.Noop{})

	s.RefreshDevice("sw1.example.com")
	s.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)
	clk.Set(1000)
	s.Prune()

	for _, device := range s.devices {
		if clk.Now() > device.Expiry {
			t.Fatalf("surviving device %s has expiry < now", device.FQDN)
		}
		for _, iface := range device.Interfaces {
			if clk.Now() > iface.Expiry {
				t.Fatalf("surviving interface has expiry < now")
			}
		}
	}
}
