package imds

// GetMetrics returns the full counter projection: one LabeledMetric per
// present counter/speed field, across every interface of every device.
// Absent fields are skipped entirely rather than emitted as zero (§4.5.6,
// "projection totality" — a metric appears iff its source field is known).
func (s *Store) GetMetrics() []LabeledMetric {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LabeledMetric
	for fqdn, device := range s.devices {
		for _, iface := range device.Interfaces {
			labels := interfaceLabels(fqdn, iface)

			if speed, ok := effectiveSpeed(iface); ok {
				out = append(out, LabeledMetric{Name: "jaspy_interface_speed", Value: Int64Value(int64(speed)), Labels: labels})
			}
			if iface.InOctets != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_octets", Value: Uint64Value(*iface.InOctets), Labels: withDirection(labels, "rx")})
			}
			if iface.OutOctets != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_octets", Value: Uint64Value(*iface.OutOctets), Labels: withDirection(labels, "tx")})
			}
			if iface.InPackets != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_packets", Value: Uint64Value(*iface.InPackets), Labels: withDirection(labels, "rx")})
			}
			if iface.OutPackets != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_packets", Value: Uint64Value(*iface.OutPackets), Labels: withDirection(labels, "tx")})
			}
			if iface.InErrors != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_errors", Value: Uint64Value(*iface.InErrors), Labels: withDirection(labels, "rx")})
			}
			if iface.OutErrors != nil {
				out = append(out, LabeledMetric{Name: "jaspy_interface_errors", Value: Uint64Value(*iface.OutErrors), Labels: withDirection(labels, "tx")})
			}
		}
	}
	return out
}

// GetFastMetrics returns the liveness-only projection: jaspy_device_up and
// jaspy_interface_up, each emitted only when its source Tristate is known.
func (s *Store) GetFastMetrics() []LabeledMetric {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LabeledMetric
	for fqdn, device := range s.devices {
		if device.Up.Known() {
			out = append(out, LabeledMetric{
				Name:   "jaspy_device_up",
				Value:  Int64Value(tristateInt(device.Up)),
				Labels: map[string]string{"fqdn": fqdn},
			})
		}
		for _, iface := range device.Interfaces {
			if !iface.Up.Known() {
				continue
			}
			out = append(out, LabeledMetric{
				Name:   "jaspy_interface_up",
				Value:  Int64Value(tristateInt(iface.Up)),
				Labels: interfaceLabels(fqdn, iface),
			})
		}
	}
	return out
}

func tristateInt(t Tristate) int64 {
	if t.Bool() {
		return 1
	}
	return 0
}

func effectiveSpeed(iface *InterfaceMetrics) (int32, bool) {
	if iface.SpeedOverride != nil {
		return *iface.SpeedOverride, true
	}
	if iface.Speed != nil {
		return *iface.Speed, true
	}
	return 0, false
}

func interfaceLabels(fqdn string, iface *InterfaceMetrics) map[string]string {
	neighbors := "no"
	if iface.Neighbors {
		neighbors = "yes"
	}
	return map[string]string{
		"fqdn":           fqdn,
		"name":           iface.Name,
		"interface_type": iface.InterfaceType,
		"neighbors":      neighbors,
	}
}

func withDirection(labels map[string]string, direction string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out["direction"] = direction
	return out
}
