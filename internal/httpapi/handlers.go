package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jaspy-nexus/jaspy-nexus/internal/health"
	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := health.RunAll(r.Context(), s.checks)
	status := http.StatusOK
	if report.Overall == health.StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// weathermapState is the reshaped liveness view served from GET
// /weathermap/state: per-device up/down plus per-interface up/down, built
// by folding imds.GetFastMetrics() (§4.5.6/§9 of the spec this implements).
type weathermapState struct {
	Devices map[string]stateDevice `json:"devices"`
}

type stateDevice struct {
	State      bool                      `json:"state"`
	Interfaces map[string]stateInterface `json:"interfaces"`
}

type stateInterface struct {
	State bool `json:"state"`
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	topo, err := s.topo.Get(r.Context())
	if err != nil {
		logging.WithComponent("httpapi").WithError(err).Warn("topology rebuild failed")
		http.Error(w, "topology unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, topo)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	metrics := s.imds.GetFastMetrics()
	state := weathermapState{Devices: make(map[string]stateDevice)}

	for _, m := range metrics {
		fqdn, ok := m.Labels["fqdn"]
		if !ok {
			continue
		}
		dev, exists := state.Devices[fqdn]
		if !exists {
			dev = stateDevice{Interfaces: make(map[string]stateInterface)}
		}

		switch m.Name {
		case "jaspy_device_up":
			dev.State = m.Value.Int64() == 1
		case "jaspy_interface_up":
			if m.Labels["neighbors"] != "yes" {
				break
			}
			name := m.Labels["name"]
			if _, dup := dev.Interfaces[name]; dup {
				// §7: a duplicate interface within one aggregation pass is
				// skipped, not overwritten.
				logging.WithDevice(fqdn).Warn("duplicate interface in state aggregation, skipping")
				break
			}
			dev.Interfaces[name] = stateInterface{State: m.Value.Int64() == 1}
		}
		state.Devices[fqdn] = dev
	}

	writeJSON(w, http.StatusOK, state)
}

type weathermapPositionInfo struct {
	Devices map[string]positionInfo `json:"devices"`
}

type positionInfo struct {
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	SuperNode         bool    `json:"super_node"`
	ExpandedByDefault bool    `json:"expanded_by_default"`
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	devices, err := s.gateway.AllDevices(ctx)
	if err != nil {
		logging.WithComponent("httpapi").WithError(err).Warn("inventory unavailable")
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
		return
	}

	out := weathermapPositionInfo{Devices: make(map[string]positionInfo)}
	for _, device := range devices {
		pos, err := s.gateway.WeathermapPosition(ctx, device)
		if err != nil {
			continue
		}
		out.Devices[device.FQDN()] = positionInfo{
			X:                 pos.X,
			Y:                 pos.Y,
			SuperNode:         pos.SuperNode,
			ExpandedByDefault: pos.ExpandedByDefault,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type putPositionRequest struct {
	DeviceFQDN        string  `json:"device_fqdn"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	SuperNode         bool    `json:"super_node"`
	ExpandedByDefault bool    `json:"expanded_by_default"`
}

func (s *Server) handlePutPosition(w http.ResponseWriter, r *http.Request) {
	var body putPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pos := inventory.WeathermapPosition{
		X:                 body.X,
		Y:                 body.Y,
		SuperNode:         body.SuperNode,
		ExpandedByDefault: body.ExpandedByDefault,
	}
	if err := s.gateway.SetWeathermapPosition(r.Context(), body.DeviceFQDN, pos); err != nil {
		logging.WithDevice(body.DeviceFQDN).WithError(err).Warn("failed to persist weathermap position")
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deviceReportRequest struct {
	FQDN string `json:"fqdn"`
	Up   bool   `json:"up"`
}

func (s *Server) handleDeviceReport(w http.ResponseWriter, r *http.Request) {
	var body deviceReportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := s.imds.ReportDevice(r.Context(), imds.DeviceReport{FQDN: body.FQDN, Up: body.Up})
	switch err {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case imds.ErrUnknownDevice:
		// §7/§9: drop-on-unknown, but feed the Miss-Cache so the Scheduler
		// picks this device up on its next tick instead of staying unknown.
		s.misses.Insert(body.FQDN)
		w.WriteHeader(http.StatusAccepted)
	default:
		logging.WithDevice(body.FQDN).WithError(err).Warn("device report failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type interfaceReportEntry struct {
	IfIndex    int32   `json:"if_index"`
	InOctets   *uint64 `json:"in_octets,omitempty"`
	OutOctets  *uint64 `json:"out_octets,omitempty"`
	InPackets  *uint64 `json:"in_packets,omitempty"`
	OutPackets *uint64 `json:"out_packets,omitempty"`
	InErrors   *uint64 `json:"in_errors,omitempty"`
	OutErrors  *uint64 `json:"out_errors,omitempty"`
	Up         *bool   `json:"up,omitempty"`
	Speed      *int32  `json:"speed,omitempty"`
}

type interfaceReportRequest struct {
	DeviceFQDN string                 `json:"device_fqdn"`
	Interfaces []interfaceReportEntry `json:"interfaces"`
}

func (s *Server) handleInterfaceReport(w http.ResponseWriter, r *http.Request) {
	var body interfaceReportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report := imds.InterfacesReport{DeviceFQDN: body.DeviceFQDN}
	for _, entry := range body.Interfaces {
		report.Interfaces = append(report.Interfaces, imds.InterfaceReport{
			IfIndex:    entry.IfIndex,
			InOctets:   entry.InOctets,
			OutOctets:  entry.OutOctets,
			InPackets:  entry.InPackets,
			OutPackets: entry.OutPackets,
			InErrors:   entry.InErrors,
			OutErrors:  entry.OutErrors,
			Up:         entry.Up,
			Speed:      entry.Speed,
		})
	}

	err := s.imds.ReportInterfaces(r.Context(), report)
	switch err {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case imds.ErrUnknownDevice:
		s.misses.Insert(body.DeviceFQDN)
		w.WriteHeader(http.StatusAccepted)
	case imds.ErrUnknownInterface:
		// Known device, some ifIndex in the batch wasn't — the rest of the
		// batch already applied, so this is a no-op from the caller's view.
		w.WriteHeader(http.StatusAccepted)
	default:
		logging.WithDevice(body.DeviceFQDN).WithError(err).Warn("interface report failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
