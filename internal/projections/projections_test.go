package projections

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/jaspy-nexus/jaspy-nexus/internal/bus"
	"github.com/jaspy-nexus/jaspy-nexus/internal/clock"
	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
)

func drain(c prometheus.Collector) []dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	var out []dto.Metric
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			panic(err)
		}
		out = append(out, pb)
	}
	return out
}

func TestFastMetricsCollector_OnlyKnownLiveness(t *testing.T) {
	gw := inventory.NewFake()
	sw1 := gw.AddDevice("sw1", "example.com")
	gw.AddInterface(sw1, 1, "Gi0/1", "ethernet", nil)

	clk := clock.NewFake(0)
	store := imds.New(clk, gw, bus.Noop{}, 0)
	store.RefreshDevice("sw1.example.com")
	store.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)

	collector := NewFastMetricsCollector(store)
	if got := drain(collector); len(got) != 0 {
		t.Fatalf("expected no metrics before any report, got %d", len(got))
	}

	if err := store.ReportDevice(context.Background(), imds.DeviceReport{FQDN: "sw1.example.com", Up: true}); err != nil {
		t.Fatal(err)
	}

	got := drain(collector)
	if len(got) != 1 {
		t.Fatalf("expected exactly one metric (device_up), got %d", len(got))
	}
	if got[0].GetGauge().GetValue() != 1 {
		t.Fatalf("expected value 1, got %v", got[0].GetGauge().GetValue())
	}
}

func TestMetricsCollector_EmitsCounters(t *testing.T) {
	gw := inventory.NewFake()
	sw1 := gw.AddDevice("sw1", "example.com")
	gw.AddInterface(sw1, 1, "Gi0/1", "ethernet", nil)

	clk := clock.NewFake(0)
	store := imds.New(clk, gw, bus.Noop{}, 0)
	store.RefreshDevice("sw1.example.com")
	store.RefreshInterface("sw1.example.com", 1, "ethernet", "Gi0/1", false, nil)

	in := uint64(500)
	err := store.ReportInterfaces(context.Background(), imds.InterfacesReport{
		DeviceFQDN: "sw1.example.com",
		Interfaces: []imds.InterfaceReport{{IfIndex: 1, InOctets: &in}},
	})
	if err != nil {
		t.Fatal(err)
	}

	collector := NewMetricsCollector(store)
	got := drain(collector)
	if len(got) != 1 {
		t.Fatalf("expected exactly one counter metric, got %d", len(got))
	}
	if got[0].GetCounter().GetValue() != 500 {
		t.Fatalf("expected counter value 500, got %v", got[0].GetCounter().GetValue())
	}
}
