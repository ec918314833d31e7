// Package bus is the fan-out sink for state-change events. Delivery is
// best-effort and fire-and-forget: acquisition failure drops the event
// silently, and nothing here ever blocks the caller on a retry.
package bus

// Kind tags which of the two event shapes a published Event carries.
type Kind string

const (
	KindPingChange      Kind = "ping_change"
	KindInterfaceChange Kind = "interface_change"
)

// Event is the tagged payload published to the bus. Only the fields
// relevant to Kind are populated; the rest are left at zero value.
type Event struct {
	Kind Kind `json:"kind"`

	// Common to both kinds.
	FQDN  string `json:"fqdn"`
	OldUp bool   `json:"old_up"`
	NewUp bool   `json:"new_up"`

	// PingChange only.
	Neighbors []string `json:"neighbors,omitempty"`

	// InterfaceChange only.
	InterfaceName string            `json:"interface_name,omitempty"`
	NeighborFQDN  *string           `json:"neighbor_fqdn,omitempty"`
	LinkStatuses  map[string]string `json:"link_statuses,omitempty"`
}

// PingChangeEvent builds the device-liveness event variant.
func PingChangeEvent(fqdn string, neighbors []string, oldUp, newUp bool) Event {
	return Event{
		Kind:      KindPingChange,
		FQDN:      fqdn,
		Neighbors: neighbors,
		OldUp:     oldUp,
		NewUp:     newUp,
	}
}

// InterfaceChangeEvent builds the interface-liveness event variant.
func InterfaceChangeEvent(fqdn, interfaceName string, neighborFQDN *string, linkStatuses map[string]string, oldUp, newUp bool) Event {
	return Event{
		Kind:          KindInterfaceChange,
		FQDN:          fqdn,
		InterfaceName: interfaceName,
		NeighborFQDN:  neighborFQDN,
		LinkStatuses:  linkStatuses,
		OldUp:         oldUp,
		NewUp:         newUp,
	}
}

// Bus publishes events to zero or more downstream consumers. Publish never
// returns an error to the caller: failures are logged and swallowed, per the
// fire-and-forget contract (§4.3/§5 of the spec this implements).
type Bus interface {
	Publish(event Event)
}

// Fanout fans a single Publish out to every wrapped Bus. Used when the
// service is configured with both a Redis publisher and a file recorder.
type Fanout []Bus

// Publish forwards event to every wrapped Bus in order.
func (f Fanout) Publish(event Event) {
	for _, b := range f {
		b.Publish(event)
	}
}
