// Package projections adapts the IMDS projections (imds.GetMetrics and
// imds.GetFastMetrics) into prometheus.Collector implementations, so each
// can be registered on its own scrape endpoint (/metrics for the full
// counter view, /metrics/fast for the liveness-only view).
package projections

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
)

// metricSpec pairs a LabeledMetric's name with the Prometheus descriptor and
// label ordering used to emit it. label sets are fixed per metric name
// (§4.5.6), so one Desc per name is enough.
type metricSpec struct {
	desc       *prometheus.Desc
	labelOrder []string
	valueType  prometheus.ValueType
}

var specs = map[string]metricSpec{
	"jaspy_device_up": {
		desc:       prometheus.NewDesc("jaspy_device_up", "Device liveness as last reported (1=up, 0=down).", []string{"fqdn"}, nil),
		labelOrder: []string{"fqdn"},
		valueType:  prometheus.GaugeValue,
	},
	"jaspy_interface_up": {
		desc:       prometheus.NewDesc("jaspy_interface_up", "Interface liveness as last reported (1=up, 0=down).", []string{"fqdn", "name", "interface_type", "neighbors"}, nil),
		labelOrder: []string{"fqdn", "name", "interface_type", "neighbors"},
		valueType:  prometheus.GaugeValue,
	},
	"jaspy_interface_speed": {
		desc:       prometheus.NewDesc("jaspy_interface_speed", "Interface speed in bits/sec, preferring a configured override.", []string{"fqdn", "name", "interface_type", "neighbors"}, nil),
		labelOrder: []string{"fqdn", "name", "interface_type", "neighbors"},
		valueType:  prometheus.GaugeValue,
	},
	"jaspy_interface_octets": {
		desc:       prometheus.NewDesc("jaspy_interface_octets", "Cumulative interface octet counter.", []string{"fqdn", "name", "interface_type", "neighbors", "direction"}, nil),
		labelOrder: []string{"fqdn", "name", "interface_type", "neighbors", "direction"},
		valueType:  prometheus.CounterValue,
	},
	"jaspy_interface_packets": {
		desc:       prometheus.NewDesc("jaspy_interface_packets", "Cumulative interface packet counter.", []string{"fqdn", "name", "interface_type", "neighbors", "direction"}, nil),
		labelOrder: []string{"fqdn", "name", "interface_type", "neighbors", "direction"},
		valueType:  prometheus.CounterValue,
	},
	"jaspy_interface_errors": {
		desc:       prometheus.NewDesc("jaspy_interface_errors", "Cumulative interface error counter.", []string{"fqdn", "name", "interface_type", "neighbors", "direction"}, nil),
		labelOrder: []string{"fqdn", "name", "interface_type", "neighbors", "direction"},
		valueType:  prometheus.CounterValue,
	},
}

// MetricsCollector exposes imds.GetMetrics() (the full counter projection)
// as a Prometheus collector.
type MetricsCollector struct {
	store *imds.Store
}

// NewMetricsCollector wraps store's full counter projection.
func NewMetricsCollector(store *imds.Store) *MetricsCollector {
	return &MetricsCollector{store: store}
}

// counterSpecNames are the metrics GetMetrics can actually emit — Describe
// must not advertise jaspy_device_up/jaspy_interface_up, which only
// FastMetricsCollector produces.
var counterSpecNames = []string{
	"jaspy_interface_speed",
	"jaspy_interface_octets",
	"jaspy_interface_packets",
	"jaspy_interface_errors",
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range counterSpecNames {
		ch <- specs[name].desc
	}
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	emit(ch, c.store.GetMetrics())
}

// FastMetricsCollector exposes imds.GetFastMetrics() (the liveness-only
// projection) as a Prometheus collector.
type FastMetricsCollector struct {
	store *imds.Store
}

// NewFastMetricsCollector wraps store's liveness projection.
func NewFastMetricsCollector(store *imds.Store) *FastMetricsCollector {
	return &FastMetricsCollector{store: store}
}

// Describe implements prometheus.Collector.
func (c *FastMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- specs["jaspy_device_up"].desc
	ch <- specs["jaspy_interface_up"].desc
}

// Collect implements prometheus.Collector.
func (c *FastMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	emit(ch, c.store.GetFastMetrics())
}

func emit(ch chan<- prometheus.Metric, labeled []imds.LabeledMetric) {
	for _, m := range labeled {
		spec, ok := specs[m.Name]
		if !ok {
			continue
		}
		values := make([]string, len(spec.labelOrder))
		for i, key := range spec.labelOrder {
			values[i] = m.Labels[key]
		}
		ch <- prometheus.MustNewConstMetric(spec.desc, spec.valueType, m.Value.Float64(), values...)
	}
}
