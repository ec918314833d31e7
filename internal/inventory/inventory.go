// Package inventory is a façade over the persistent device, interface, and
// link inventory. IMDS, the Refresh Scheduler, and the Topology Cache read
// through it; the HTTP API also uses it to list devices and to read and
// upsert weathermap positions. SetWeathermapPosition is the only write it
// exposes.
package inventory

import "context"

// Device is the inventory's identity record for one managed network device.
type Device struct {
	ID        int64
	Name      string
	DNSDomain string
}

// FQDN returns the device's fully-qualified domain name, the primary
// identity used throughout IMDS.
func (d Device) FQDN() string {
	return d.Name + "." + d.DNSDomain
}

// Interface is one of a device's network interfaces.
type Interface struct {
	Index            int32
	Name             string
	InterfaceType    string
	SpeedOverride    *int32
	HasConnectedPeer bool
	DeviceID         int64
}

// WeathermapPosition is a device's layout position on the weathermap canvas.
type WeathermapPosition struct {
	X                 float64
	Y                 float64
	SuperNode         bool
	ExpandedByDefault bool
}

// Gateway is the view over inventory that the core depends on. Every method
// reads, except SetWeathermapPosition.
// Implementations may fail (pool exhaustion, network partition, query
// error); callers treat any error as "no data this tick" (see internal/imds
// and internal/scheduler) rather than propagating a fatal condition.
type Gateway interface {
	// AllDevices returns every device in the inventory.
	AllDevices(ctx context.Context) ([]Device, error)

	// DeviceByFQDN looks up a device by its FQDN. Returns ErrNotFound if
	// absent.
	DeviceByFQDN(ctx context.Context, fqdn string) (Device, error)

	// InterfacesOf returns all interfaces belonging to device.
	InterfacesOf(ctx context.Context, device Device) ([]Interface, error)

	// InterfaceByIndex looks up one interface of device by ifIndex. Returns
	// ErrNotFound if absent.
	InterfaceByIndex(ctx context.Context, device Device, index int32) (Interface, error)

	// PeerInterface returns the remote endpoint of the cabled link attached
	// to iface, if any. Returns ErrNotFound if iface has no peer.
	PeerInterface(ctx context.Context, iface Interface) (Interface, error)

	// DeviceByID looks up a device by its inventory ID (used to resolve a
	// peer interface's owning device). Returns ErrNotFound if absent.
	DeviceByID(ctx context.Context, id int64) (Device, error)

	// WeathermapPosition returns the layout position recorded for device.
	// Returns ErrNotFound if none has been set.
	WeathermapPosition(ctx context.Context, device Device) (WeathermapPosition, error)

	// SetWeathermapPosition upserts the layout position for the device
	// identified by fqdn.
	SetWeathermapPosition(ctx context.Context, fqdn string, pos WeathermapPosition) error
}
