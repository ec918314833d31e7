package imds

import "errors"

// Sentinel errors returned by the report_* operations. None of these are
// fatal — §7 of the spec this implements is explicit that unknown-subject
// reports are silently dropped; these are returned so tests (and the HTTP
// layer, which maps them to a no-op 2xx rather than an error response) can
// observe the drop.
var (
	// ErrUnknownDevice is returned when a report targets an FQDN not
	// currently tracked by the store — the Scheduler decides membership,
	// not the probe.
	ErrUnknownDevice = errors.New("imds: unknown device")

	// ErrUnknownInterface is returned when an interface report targets an
	// ifIndex not currently tracked on its device.
	ErrUnknownInterface = errors.New("imds: unknown interface")
)
