package inventory

import "context"

// Fake is an in-memory Gateway for unit tests, following the shape of the
// teacher's internal/testutil fixtures: a small hand-built graph instead of
// a live database, with the same error semantics (ErrNotFound) as
// PostgresGateway so callers can't tell them apart.
type Fake struct {
	devices    map[int64]Device
	interfaces map[int64][]Interface // by device ID
	peers      map[peerKey]peerKey   // (deviceID, ifIndex) -> (deviceID, ifIndex)
	positions  map[int64]WeathermapPosition

	// Unavailable, if set, makes every method return ErrUnavailable —
	// used to exercise the Scheduler's transient-failure retry path.
	Unavailable bool

	nextID int64
}

type peerKey struct {
	deviceID int64
	ifIndex  int32
}

// NewFake creates an empty Fake gateway.
func NewFake() *Fake {
	return &Fake{
		devices:    make(map[int64]Device),
		interfaces: make(map[int64][]Interface),
		peers:      make(map[peerKey]peerKey),
		positions:  make(map[int64]WeathermapPosition),
		nextID:     1,
	}
}

// AddDevice registers a device with the given name/domain and returns it.
func (f *Fake) AddDevice(name, dnsDomain string) Device {
	d := Device{ID: f.nextID, Name: name, DNSDomain: dnsDomain}
	f.nextID++
	f.devices[d.ID] = d
	return d
}

// AddInterface registers an interface on device.
func (f *Fake) AddInterface(device Device, index int32, name, ifType string, speedOverride *int32) Interface {
	iface := Interface{
		Index:         index,
		Name:          name,
		InterfaceType: ifType,
		SpeedOverride: speedOverride,
		DeviceID:      device.ID,
	}
	f.interfaces[device.ID] = append(f.interfaces[device.ID], iface)
	return iface
}

// Link cables a.index on device a to b.index on device b, symmetrically,
// and marks both interfaces as having a connected peer.
func (f *Fake) Link(a Device, aIndex int32, b Device, bIndex int32) {
	f.peers[peerKey{a.ID, aIndex}] = peerKey{b.ID, bIndex}
	f.peers[peerKey{b.ID, bIndex}] = peerKey{a.ID, aIndex}
	f.setHasPeer(a.ID, aIndex)
	f.setHasPeer(b.ID, bIndex)
}

func (f *Fake) setHasPeer(deviceID int64, index int32) {
	ifaces := f.interfaces[deviceID]
	for i := range ifaces {
		if ifaces[i].Index == index {
			ifaces[i].HasConnectedPeer = true
		}
	}
}

func (f *Fake) checkAvailable() error {
	if f.Unavailable {
		return ErrUnavailable
	}
	return nil
}

// AllDevices implements Gateway.
func (f *Fake) AllDevices(ctx context.Context) ([]Device, error) {
	if err := f.checkAvailable(); err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(f.devices))
	for _, d := range f.devices {
		devices = append(devices, d)
	}
	return devices, nil
}

// DeviceByFQDN implements Gateway.
func (f *Fake) DeviceByFQDN(ctx context.Context, fqdn string) (Device, error) {
	if err := f.checkAvailable(); err != nil {
		return Device{}, err
	}
	for _, d := range f.devices {
		if d.FQDN() == fqdn {
			return d, nil
		}
	}
	return Device{}, ErrNotFound
}

// DeviceByID implements Gateway.
func (f *Fake) DeviceByID(ctx context.Context, id int64) (Device, error) {
	if err := f.checkAvailable(); err != nil {
		return Device{}, err
	}
	d, ok := f.devices[id]
	if !ok {
		return Device{}, ErrNotFound
	}
	return d, nil
}

// InterfacesOf implements Gateway.
func (f *Fake) InterfacesOf(ctx context.Context, device Device) ([]Interface, error) {
	if err := f.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]Interface, len(f.interfaces[device.ID]))
	copy(out, f.interfaces[device.ID])
	return out, nil
}

// InterfaceByIndex implements Gateway.
func (f *Fake) InterfaceByIndex(ctx context.Context, device Device, index int32) (Interface, error) {
	if err := f.checkAvailable(); err != nil {
		return Interface{}, err
	}
	for _, iface := range f.interfaces[device.ID] {
		if iface.Index == index {
			return iface, nil
		}
	}
	return Interface{}, ErrNotFound
}

// PeerInterface implements Gateway.
func (f *Fake) PeerInterface(ctx context.Context, iface Interface) (Interface, error) {
	if err := f.checkAvailable(); err != nil {
		return Interface{}, err
	}
	peer, ok := f.peers[peerKey{iface.DeviceID, iface.Index}]
	if !ok {
		return Interface{}, ErrNotFound
	}
	return f.InterfaceByIndex(ctx, Device{ID: peer.deviceID}, peer.ifIndex)
}

// WeathermapPosition implements Gateway.
func (f *Fake) WeathermapPosition(ctx context.Context, device Device) (WeathermapPosition, error) {
	if err := f.checkAvailable(); err != nil {
		return WeathermapPosition{}, err
	}
	pos, ok := f.positions[device.ID]
	if !ok {
		return WeathermapPosition{}, ErrNotFound
	}
	return pos, nil
}

// SetWeathermapPosition implements Gateway.
func (f *Fake) SetWeathermapPosition(ctx context.Context, fqdn string, pos WeathermapPosition) error {
	if err := f.checkAvailable(); err != nil {
		return err
	}
	device, err := f.DeviceByFQDN(ctx, fqdn)
	if err != nil {
		return err
	}
	f.positions[device.ID] = pos
	return nil
}
