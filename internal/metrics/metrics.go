// Package metrics exports driver counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ubxgnss/internal/transport"
)

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Driver counts bus traffic and command results. It implements gnss.Recorder.
type Driver struct {
	FramesSent   prometheus.Counter
	MessagesRead *prometheus.CounterVec // labels: protocol=ubx|nmea
	ReadOutcomes *prometheus.CounterVec // labels: outcome
	Commands     *prometheus.CounterVec // labels: class, id, result
}

func NewDriver(reg prometheus.Registerer) *Driver {
	m := &Driver{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ubx_frames_sent_total",
			Help: "UBX frames written to the receiver.",
		}),
		MessagesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ubx_messages_read_total",
			Help: "Complete messages read from the receiver.",
		}, []string{"protocol"}),
		ReadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ubx_read_outcome_total",
			Help: "Transport read attempts by outcome.",
		}, []string{"outcome"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ubx_command_total",
			Help: "Commands by message and result.",
		}, []string{"class", "id", "result"}),
	}
	reg.MustRegister(m.FramesSent, m.MessagesRead, m.ReadOutcomes, m.Commands)
	return m
}

func (m *Driver) FrameSent(class, id byte) { m.FramesSent.Inc() }

func (m *Driver) MessageRead(protocol string) {
	m.MessagesRead.WithLabelValues(protocol).Inc()
}

func (m *Driver) ReadOutcome(o transport.Outcome) {
	m.ReadOutcomes.WithLabelValues(o.String()).Inc()
}

func (m *Driver) CommandResult(class, id byte, result string) {
	m.Commands.WithLabelValues(hex(class), hex(id), result).Inc()
}

func hex(b byte) string { return fmt.Sprintf("0x%02X", b) }
