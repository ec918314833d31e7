package imds

import (
	"sync"
	"time"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
)

// DefaultTTL is the device/interface lifetime applied by RefreshDevice and
// RefreshInterface when the Store wasn't built with an override.
const DefaultTTL = 60 * time.Second

// Store is the IMDS: a single mutex-guarded aggregate of DeviceMetrics. All
// public operations acquire the mutex for their full duration, including the
// inventory lookups and event publication performed inside report_device
// and report_interfaces — this is what makes a single ingest call's updates
// atomic with respect to every other IMDS operation.
type Store struct {
	mu      sync.Mutex
	devices map[string]*DeviceMetrics

	clock   clock.Clock
	gateway inventory.Gateway
	bus     bus.Bus
	ttl     float64
}

// New creates an empty Store. gateway is consulted only inside
// ReportDevice/ReportInterfaces to resolve neighbor/peer FQDNs for event
// construction — RefreshDevice/RefreshInterface/Prune never touch it.
func New(clk clock.Clock, gateway inventory.Gateway, messageBus bus.Bus, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		devices: make(map[string]*DeviceMetrics),
		clock:   clk,
		gateway: gateway,
		bus:     messageBus,
		ttl:     ttl.Seconds(),
	}
}

// RefreshDevice extends an existing device's expiry, or creates a fresh one
// with Up unknown and no interfaces. Never alters Up or Interfaces on an
// existing device (refresh monotonicity, invariant 2 of the spec this
// implements).
func (s *Store) RefreshDevice(fqdn string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if device, ok := s.devices[fqdn]; ok {
		device.Expiry = now + s.ttl
		return
	}
	s.devices[fqdn] = &DeviceMetrics{
		FQDN:       fqdn,
		Expiry:     now + s.ttl,
		Up:         TristateUnknown,
		Interfaces: make(map[int32]*InterfaceMetrics),
	}
}

// RefreshInterface extends an existing interface's static fields and
// expiry, or creates a fresh one with all counters unknown. A no-op if the
// parent device doesn't exist — the Scheduler always refreshes a device
// before its interfaces, so this should never happen in practice, but it is
// not an error: it simply means this tick raced a prune.
func (s *Store) RefreshInterface(fqdn string, ifIndex int32, interfaceType, name string, hasNeighbors bool, speedOverride *int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[fqdn]
	if !ok {
		return
	}

	now := s.clock.Now()
	if iface, ok := device.Interfaces[ifIndex]; ok {
		iface.Name = name
		iface.Neighbors = hasNeighbors
		iface.SpeedOverride = speedOverride
		iface.Expiry = now + s.ttl
		return
	}

	device.Interfaces[ifIndex] = &InterfaceMetrics{
		Expiry:        now + s.ttl,
		Name:          name,
		InterfaceType: interfaceType,
		Neighbors:     hasNeighbors,
		SpeedOverride: speedOverride,
		Up:            TristateUnknown,
	}
}

// Prune evicts every device whose expiry has passed, and — for devices that
// survive — every interface whose expiry has passed. A device marked for
// eviction takes all of its interfaces with it without individually
// checking their expiries (invariants 1 and 2: no orphan interfaces, no
// per-interface prune on an about-to-evict device).
func (s *Store) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for fqdn, device := range s.devices {
		if now > device.Expiry {
			delete(s.devices, fqdn)
			continue
		}
		for ifIndex, iface := range device.Interfaces {
			if now > iface.Expiry {
				delete(device.Interfaces, ifIndex)
			}
		}
	}
}

// Device returns a deep copy of the device's current state, for tests and
// diagnostics. The second return value is false if the device isn't
// tracked.
func (s *Store) Device(fqdn string) (DeviceMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[fqdn]
	if !ok {
		return DeviceMetrics{}, false
	}
	return s.snapshotDeviceLocked(device), true
}

func (s *Store) snapshotDeviceLocked(device *DeviceMetrics) DeviceMetrics {
	cp := DeviceMetrics{
		FQDN:       device.FQDN,
		Expiry:     device.Expiry,
		Up:         device.Up,
		Interfaces: make(map[int32]*InterfaceMetrics, len(device.Interfaces)),
	}
	for ifIndex, iface := range device.Interfaces {
		cp.Interfaces[ifIndex] = iface.clone()
	}
	return cp
}
