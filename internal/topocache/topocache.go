// Package topocache implements the Topology Cache: a TTL-memoized join of
// the device/interface/link inventory into the nested shape the weathermap
// visualization consumes. The join is the same handful of Gateway calls on
// every rebuild; memoizing it turns an O(devices × interfaces) query burst
// per page load into one rebuild every TTL window.
package topocache

import (
	"context"
	"sync"

	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
)

// DefaultTTL is applied when Cache is built with a zero ttl.
const DefaultTTL = 10.0 // seconds

// ConnectedTo identifies the remote end of a cabled interface.
type ConnectedTo struct {
	FQDN      string `json:"fqdn"`
	Interface string `json:"interface"`
}

// Interface is one interface's entry in the topology view.
type Interface struct {
	Name        string       `json:"name"`
	IfIndex     int32        `json:"if_index"`
	ConnectedTo *ConnectedTo `json:"connected_to,omitempty"`
}

// Device is one device's entry in the topology view, keyed by FQDN in the
// parent Topology; its Interfaces are keyed by interface name.
type Device struct {
	FQDN       string               `json:"fqdn"`
	Interfaces map[string]Interface `json:"interfaces"`
}

// Topology is the full weathermap join, keyed by device FQDN.
type Topology struct {
	Devices map[string]Device `json:"devices"`
}

// Cache memoizes Topology behind an absolute-time TTL. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	clock   clock.Clock
	gateway inventory.Gateway
	ttl     float64

	cached     *Topology
	validUntil float64
}

// New creates a Cache with no entry yet cached — the first Get triggers a
// rebuild. ttl defaults to DefaultTTL when zero or negative.
func New(clk clock.Clock, gateway inventory.Gateway, ttl float64) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{clock: clk, gateway: gateway, ttl: ttl}
}

// Get returns the current topology, rebuilding it if the cached entry is
// absent or has passed its valid_until. A rebuild failure with a previously
// cached entry serves that stale entry with a nil error (valid_until is not
// extended, so the next Get tries again); a cold cache with no prior entry
// returns the error with a zero Topology.
func (c *Cache) Get(ctx context.Context) (Topology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.clock.Now() < c.validUntil {
		return cloneTopology(*c.cached), nil
	}

	fresh, err := c.rebuild(ctx)
	if err != nil {
		if c.cached != nil {
			return cloneTopology(*c.cached), nil
		}
		return Topology{}, err
	}

	c.cached = &fresh
	c.validUntil = c.clock.Now() + c.ttl
	return cloneTopology(fresh), nil
}

// Invalidate forces the next Get to rebuild regardless of valid_until.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

func (c *Cache) rebuild(ctx context.Context) (Topology, error) {
	devices, err := c.gateway.AllDevices(ctx)
	if err != nil {
		return Topology{}, err
	}

	topo := Topology{Devices: make(map[string]Device, len(devices))}
	for _, device := range devices {
		fqdn := device.FQDN()
		entry := Device{FQDN: fqdn, Interfaces: make(map[string]Interface)}

		ifaces, err := c.gateway.InterfacesOf(ctx, device)
		if err != nil {
			return Topology{}, err
		}
		for _, iface := range ifaces {
			wmIface := Interface{Name: iface.Name, IfIndex: iface.Index}

			peer, err := c.gateway.PeerInterface(ctx, iface)
			if err == nil {
				peerDevice, err := c.gateway.DeviceByID(ctx, peer.DeviceID)
				if err == nil {
					wmIface.ConnectedTo = &ConnectedTo{FQDN: peerDevice.FQDN(), Interface: peer.Name}
				}
			}
			entry.Interfaces[iface.Name] = wmIface
		}
		topo.Devices[fqdn] = entry
	}
	return topo, nil
}

func cloneTopology(t Topology) Topology {
	out := Topology{Devices: make(map[string]Device, len(t.Devices))}
	for fqdn, device := range t.Devices {
		devCopy := Device{FQDN: device.FQDN, Interfaces: make(map[string]Interface, len(device.Interfaces))}
		for name, iface := range device.Interfaces {
			ifaceCopy := iface
			if iface.ConnectedTo != nil {
				ct := *iface.ConnectedTo
				ifaceCopy.ConnectedTo = &ct
			}
			devCopy.Interfaces[name] = ifaceCopy
		}
		out.Devices[fqdn] = devCopy
	}
	return out
}
