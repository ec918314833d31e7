// Package imds implements the In-Memory Device Store: a concurrent,
// TTL-expiring two-level cache of per-device / per-interface metrics. It is
// kept in sync with the inventory by the Refresh Scheduler, ingests
// high-rate probe reports, derives link-level state-change events, and
// serves two read-only projections.
package imds

// Tristate represents a value that is either unknown (never observed),
// known-true, or known-false. The distinction between "never observed" and
// "observed false" is load-bearing throughout IMDS (event triggers fire only
// on known-to-known transitions) — plain bool or *bool would blur it, so
// this is a small named type instead.
type Tristate uint8

const (
	// TristateUnknown means the value has never been reported.
	TristateUnknown Tristate = iota
	// TristateUp means the last report observed the value as true/up.
	TristateUp
	// TristateDown means the last report observed the value as false/down.
	TristateDown
)

// FromBool converts a reported boolean into its known Tristate.
func FromBool(b bool) Tristate {
	if b {
		return TristateUp
	}
	return TristateDown
}

// Known reports whether the value has ever been observed.
func (t Tristate) Known() bool {
	return t != TristateUnknown
}

// Bool returns the boolean value. Only meaningful when Known() is true.
func (t Tristate) Bool() bool {
	return t == TristateUp
}

func (t Tristate) String() string {
	switch t {
	case TristateUp:
		return "up"
	case TristateDown:
		return "down"
	default:
		return "unknown"
	}
}

// DeviceMetrics is the per-device record keyed by FQDN in the store.
type DeviceMetrics struct {
	FQDN       string
	Expiry     float64
	Up         Tristate
	Interfaces map[int32]*InterfaceMetrics
}

// InterfaceMetrics is the per-interface record keyed by ifIndex within its
// parent DeviceMetrics.
type InterfaceMetrics struct {
	Expiry        float64
	Name          string
	InterfaceType string
	Neighbors     bool
	SpeedOverride *int32

	InOctets   *uint64
	OutOctets  *uint64
	InPackets  *uint64
	OutPackets *uint64
	InErrors   *uint64
	OutErrors  *uint64

	Speed *int32
	Up    Tristate
}

// clone deep-copies an InterfaceMetrics so a pre-transition snapshot isn't
// aliased to the live record (see snapshotInterfaces, called from
// Store.applyInterfaceReport).
func (m *InterfaceMetrics) clone() *InterfaceMetrics {
	cp := *m
	return &cp
}

// MetricValue is a tagged union of the two numeric types LabeledMetric
// carries: signed speeds and unsigned counters.
type MetricValue struct {
	isUint bool
	i64    int64
	u64    uint64
}

// Int64Value constructs a signed MetricValue.
func Int64Value(v int64) MetricValue {
	return MetricValue{i64: v}
}

// Uint64Value constructs an unsigned MetricValue.
func Uint64Value(v uint64) MetricValue {
	return MetricValue{isUint: true, u64: v}
}

// IsUint reports whether the value is the unsigned variant.
func (m MetricValue) IsUint() bool {
	return m.isUint
}

// Int64 returns the signed value (zero value undefined if IsUint is true).
func (m MetricValue) Int64() int64 {
	return m.i64
}

// Uint64 returns the unsigned value (zero value undefined if IsUint is false).
func (m MetricValue) Uint64() uint64 {
	return m.u64
}

// Float64 returns the value widened to float64, for consumers (e.g.
// Prometheus) that only deal in floats.
func (m MetricValue) Float64() float64 {
	if m.isUint {
		return float64(m.u64)
	}
	return float64(m.i64)
}

// LabeledMetric is one emitted sample from a projection: a metric name, a
// value, and its labels.
type LabeledMetric struct {
	Name   string
	Value  MetricValue
	Labels map[string]string
}
