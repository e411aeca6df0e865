package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fsbrowse"

var (
	descConnActive = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "connections", "active"),
		"Current number of open client sessions", nil, nil)
	descConnTotal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "connections", "total"),
		"Total number of accepted client sessions", nil, nil)
	descConnRefused = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "connections", "refused_total"),
		"Connections closed because the session limit was reached", nil, nil)
	descBytes = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "network", "bytes_total"),
		"Bytes moved over client sockets", []string{"direction"}, nil)
	descCommands = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "commands", "total"),
		"Commands dispatched, by verb", []string{"verb"}, nil)
	descCommandFailures = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "commands", "failed_total"),
		"Commands answered with an error message, by verb", []string{"verb"}, nil)
	descErrors = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "errors_total"),
		"Session I/O faults", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descConnActive
	ch <- descConnTotal
	ch <- descConnRefused
	ch <- descBytes
	ch <- descCommands
	ch <- descCommandFailures
	ch <- descErrors
}

// Collect implements prometheus.Collector by reading the atomic
// counters at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descConnActive, prometheus.GaugeValue, float64(c.ActiveConnections()))
	ch <- prometheus.MustNewConstMetric(descConnTotal, prometheus.CounterValue, float64(c.TotalConnections()))
	ch <- prometheus.MustNewConstMetric(descConnRefused, prometheus.CounterValue, float64(c.RefusedConnections()))
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(c.TotalBytesIn()), "in")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(c.TotalBytesOut()), "out")
	for _, v := range verbs {
		ch <- prometheus.MustNewConstMetric(descCommands, prometheus.CounterValue, float64(c.Commands(v)), v)
		ch <- prometheus.MustNewConstMetric(descCommandFailures, prometheus.CounterValue, float64(c.CommandFailures(v)), v)
	}
	ch <- prometheus.MustNewConstMetric(descErrors, prometheus.CounterValue, float64(c.ErrorCount()))
}

// Register adds c to reg.  A collector that is already registered is
// not an error.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil || reg == nil {
		return nil
	}
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

// Handler returns an http.Handler serving the metrics gathered by reg
// in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
