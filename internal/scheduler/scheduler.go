// Package scheduler implements the Refresh Scheduler: a single background
// loop that reconciles the IMDS against the Inventory Gateway and drains the
// Miss-Cache. It owns no state of its own beyond its phase counter, its
// first-tick flag, and the time of its last tick — all durable state lives
// in the IMDS, the Miss-Cache, and the inventory.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
	"github.com/jaspy-nexus/jaspy-nexus/internal/misscache"
)

// phaseCount is the number of ticks between forced full refreshes; on every
// tenth tick (phase 0) every device is refreshed regardless of the
// Miss-Cache's contents.
const phaseCount = 10

// DefaultPeriod is the tick interval applied when Scheduler is built with a
// zero period.
const DefaultPeriod = time.Second

// Scheduler periodically reconciles IMDS with the inventory. The zero value
// is not usable; construct with New.
type Scheduler struct {
	imds      *imds.Store
	gateway   inventory.Gateway
	misses    *misscache.Cache
	period    time.Duration
	phase     int
	firstTick bool

	lastTick atomic.Int64 // unix nanos of the last completed tick, for health checks
}

// New creates a Scheduler. period defaults to DefaultPeriod if zero or
// negative.
func New(store *imds.Store, gateway inventory.Gateway, misses *misscache.Cache, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		imds:      store,
		gateway:   gateway,
		misses:    misses,
		period:    period,
		firstTick: true,
	}
}

// Run drives the tick loop until ctx is cancelled. It is meant to be run in
// its own goroutine; callers should wait on a sync.WaitGroup (or similar)
// for it to return after cancelling ctx.
func (s *Scheduler) Run(ctx context.Context) {
	log := logging.WithComponent("scheduler")
	log.Info("scheduler starting")
	defer log.Info("scheduler stopped")

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// candidate pairs an inventory device with its interfaces, gathered in full
// before any IMDS mutation so a mid-gather inventory failure leaves IMDS
// untouched (§7: transient inventory failure abandons the tick).
type candidate struct {
	device     inventory.Device
	interfaces []inventory.Interface
}

func (s *Scheduler) tick(ctx context.Context) {
	log := logging.WithComponent("scheduler")
	defer s.lastTick.Store(time.Now().UnixNano())

	misses := s.misses.Drain()
	fullRefresh := s.firstTick || s.phase == 0
	shouldRefresh := fullRefresh || len(misses) > 0

	if !shouldRefresh {
		s.advancePhase()
		return
	}

	devices, err := s.gateway.AllDevices(ctx)
	if err != nil {
		log.WithError(err).Warn("inventory unavailable, retrying next tick")
		s.misses.InsertAll(misses)
		return
	}

	missSet := make(map[string]struct{}, len(misses))
	for _, fqdn := range misses {
		missSet[fqdn] = struct{}{}
	}

	candidates := make([]candidate, 0, len(devices))
	for _, device := range devices {
		fqdn := device.FQDN()
		if !fullRefresh {
			if _, wanted := missSet[fqdn]; !wanted {
				continue
			}
		}
		ifaces, err := s.gateway.InterfacesOf(ctx, device)
		if err != nil {
			log.WithError(err).Warn("inventory unavailable mid-gather, retrying next tick")
			s.misses.InsertAll(misses)
			return
		}
		candidates = append(candidates, candidate{device: device, interfaces: ifaces})
	}

	for _, c := range candidates {
		fqdn := c.device.FQDN()
		s.imds.RefreshDevice(fqdn)
		for _, iface := range c.interfaces {
			s.imds.RefreshInterface(fqdn, iface.Index, iface.InterfaceType, iface.Name, iface.HasConnectedPeer, iface.SpeedOverride)
		}
	}

	s.imds.Prune()
	s.firstTick = false
	s.advancePhase()
}

func (s *Scheduler) advancePhase() {
	s.phase = (s.phase + 1) % phaseCount
}

// LastTick returns the wall-clock time at which the most recent tick
// completed (successful or not — the scheduler loop itself is alive either
// way). Used by internal/health to detect a wedged or stalled loop.
func (s *Scheduler) LastTick() time.Time {
	nanos := s.lastTick.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
