package imds

import (
	"context"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
)

// ReportDevice applies a probe's liveness report for one device. Unknown
// FQDNs are dropped (ErrUnknownDevice) — the Scheduler decides store
// membership, not the probe. A ping-change event fires only when the
// stored Up was already known and differs from the report (unknown->known
// is not an event, per invariant 5).
func (s *Store) ReportDevice(ctx context.Context, report DeviceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[report.FQDN]
	if !ok {
		return ErrUnknownDevice
	}

	if device.Up.Known() && device.Up.Bool() != report.Up {
		if neighbors, ok := s.resolveNeighbors(ctx, report.FQDN); ok {
			s.bus.Publish(bus.PingChangeEvent(report.FQDN, neighbors, device.Up.Bool(), report.Up))
		}
	}
	device.Up = FromBool(report.Up)
	return nil
}

// resolveNeighbors walks the inventory graph to find every distinct FQDN
// cabled to device_fqdn's interfaces. A failure looking up the device or
// its interface list aborts the whole computation (ok=false); a failure (or
// simply absence) resolving one interface's peer just skips that
// interface, matching "inventory lookup failure aborts just the event,
// state update still happens" (§7).
func (s *Store) resolveNeighbors(ctx context.Context, deviceFQDN string) (neighbors []string, ok bool) {
	device, err := s.gateway.DeviceByFQDN(ctx, deviceFQDN)
	if err != nil {
		return nil, false
	}
	ifaces, err := s.gateway.InterfacesOf(ctx, device)
	if err != nil {
		return nil, false
	}

	seen := make(map[string]struct{})
	for _, iface := range ifaces {
		peer, err := s.gateway.PeerInterface(ctx, iface)
		if err != nil {
			continue
		}
		peerDevice, err := s.gateway.DeviceByID(ctx, peer.DeviceID)
		if err != nil {
			continue
		}
		seen[peerDevice.FQDN()] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for fqdn := range seen {
		out = append(out, fqdn)
	}
	return out, true
}

// ReportInterfaces applies a probe's batch counter/liveness report across
// several interfaces of one device. Unknown devices are dropped wholesale
// (ErrUnknownDevice); unknown interfaces within a known device are dropped
// one at a time, the rest of the batch still applies, and the batch as a
// whole reports ErrUnknownInterface so the caller can observe the drop.
func (s *Store) ReportInterfaces(ctx context.Context, report InterfacesReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[report.DeviceFQDN]
	if !ok {
		return ErrUnknownDevice
	}

	sawUnknown := false
	for _, ir := range report.Interfaces {
		iface, ok := device.Interfaces[ir.IfIndex]
		if !ok {
			sawUnknown = true
			continue
		}
		s.applyInterfaceReport(ctx, report.DeviceFQDN, device, iface, ir)
	}
	if sawUnknown {
		return ErrUnknownInterface
	}
	return nil
}

func (s *Store) applyInterfaceReport(ctx context.Context, deviceFQDN string, device *DeviceMetrics, iface *InterfaceMetrics, ir InterfaceReport) {
	if ir.InOctets != nil {
		iface.InOctets = ir.InOctets
	}
	if ir.OutOctets != nil {
		iface.OutOctets = ir.OutOctets
	}
	if ir.InPackets != nil {
		iface.InPackets = ir.InPackets
	}
	if ir.OutPackets != nil {
		iface.OutPackets = ir.OutPackets
	}
	if ir.InErrors != nil {
		iface.InErrors = ir.InErrors
	}
	if ir.OutErrors != nil {
		iface.OutErrors = ir.OutErrors
	}

	if ir.Up != nil {
		newUp := *ir.Up
		if iface.Up.Known() && iface.Up.Bool() != newUp {
			oldUp := iface.Up.Bool()
			snapshot := snapshotInterfaces(device)
			neighborFQDN, linkIfaces := s.resolveLinkInterfaces(ctx, deviceFQDN, ir.IfIndex)
			linkStatuses := map[string]string{}
			if neighborFQDN != nil {
				linkStatuses = buildLinkStatuses(snapshot, linkIfaces, ir.IfIndex, newUp)
			}
			s.bus.Publish(bus.InterfaceChangeEvent(deviceFQDN, iface.Name, neighborFQDN, linkStatuses, oldUp, newUp))
		}
		iface.Up = FromBool(newUp)
	}

	if ir.Speed != nil {
		iface.Speed = ir.Speed
	}
}

func snapshotInterfaces(device *DeviceMetrics) map[int32]*InterfaceMetrics {
	out := make(map[int32]*InterfaceMetrics, len(device.Interfaces))
	for ifIndex, iface := range device.Interfaces {
		out[ifIndex] = iface.clone()
	}
	return out
}

// resolveLinkInterfaces finds the remote device cabled to deviceFQDN's
// ifIndex, and every local interface that is itself the peer of one of that
// remote device's interfaces (this is what captures aggregated/bundled
// links: several remote interfaces can all point back into the local
// device). Absent peer, or a failure resolving the local device, the local
// interface, its peer, or the remote device, yields a nil neighbor and an
// empty link-interface list. Once the remote device is known, a failure
// listing its interfaces still returns the neighbor FQDN with no link
// interfaces, and a remote interface whose peer lookup fails is skipped.
func (s *Store) resolveLinkInterfaces(ctx context.Context, deviceFQDN string, ifIndex int32) (neighborFQDN *string, linkInterfaces []inventory.Interface) {
	localDevice, err := s.gateway.DeviceByFQDN(ctx, deviceFQDN)
	if err != nil {
		return nil, nil
	}
	localIface, err := s.gateway.InterfaceByIndex(ctx, localDevice, ifIndex)
	if err != nil {
		return nil, nil
	}
	remoteIface, err := s.gateway.PeerInterface(ctx, localIface)
	if err != nil {
		return nil, nil
	}
	remoteDevice, err := s.gateway.DeviceByID(ctx, remoteIface.DeviceID)
	if err != nil {
		return nil, nil
	}
	fqdn := remoteDevice.FQDN()

	remoteIfaces, err := s.gateway.InterfacesOf(ctx, remoteDevice)
	if err != nil {
		return &fqdn, nil
	}

	for _, candidate := range remoteIfaces {
		peer, err := s.gateway.PeerInterface(ctx, candidate)
		if err != nil {
			continue
		}
		if peer.DeviceID == localDevice.ID {
			linkInterfaces = append(linkInterfaces, peer)
		}
	}
	return &fqdn, linkInterfaces
}

// buildLinkStatuses maps each link interface to its up/down/unknown status
// as of the pre-transition snapshot, except the interface actually being
// updated, which is shown with its new (post-transition) value — this is
// what lets link_statuses show "both ends of the cable" immediately.
func buildLinkStatuses(snapshot map[int32]*InterfaceMetrics, linkInterfaces []inventory.Interface, transitioningIfIndex int32, newUp bool) map[string]string {
	statuses := make(map[string]string)
	for _, li := range linkInterfaces {
		snapIface, ok := snapshot[li.Index]
		if !ok {
			continue
		}
		var tri Tristate
		if li.Index == transitioningIfIndex {
			tri = FromBool(newUp)
		} else {
			tri = snapIface.Up
		}
		statuses[snapIface.Name] = tri.String()
	}
	return statuses
}
