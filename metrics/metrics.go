// Package metrics wires the wheel driver's counters to Prometheus,
// grounded on github.com/prometheus/client_golang, a direct dependency of
// kedacore/keda and an indirect dependency of ethereum/go-ethereum.
//
// Set is optional: callers that do not supply a prometheus.Registerer get
// a nil *Set, and every method on *Set is a safe no-op when the receiver
// is nil, so package wheel never forces this dependency on library
// consumers that only want the core algorithm.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set bundles the gauges/counters/histogram the driver updates.
type Set struct {
	tasksInFlight prometheus.Gauge
	slotsOccupied *prometheus.GaugeVec
	cascades      prometheus.Counter
	fireLatency   prometheus.Histogram
}

// New registers the wheel's metric family on reg and returns the handle
// the driver records through. A nil reg is valid and yields a nil *Set.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		return nil
	}
	s := &Set{
		tasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hwheel_tasks_in_flight",
			Help: "Number of tasks currently scheduled in the wheel.",
		}),
		slotsOccupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hwheel_slots_occupied",
			Help: "Number of non-empty slots per wheel layer.",
		}, []string{"layer"}),
		cascades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwheel_cascades_total",
			Help: "Number of times a task was re-inserted into a different layer during a flush.",
		}),
		fireLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hwheel_fire_latency_ms",
			Help:    "Milliseconds between a task's expiry and its observed fire time.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
	reg.MustRegister(s.tasksInFlight, s.slotsOccupied, s.cascades, s.fireLatency)
	return s
}

// SetTasksInFlight records the current in-flight task count.
func (s *Set) SetTasksInFlight(n int64) {
	if s == nil {
		return
	}
	s.tasksInFlight.Set(float64(n))
}

// SetSlotsOccupied records the occupied slot count for one layer.
func (s *Set) SetSlotsOccupied(layer string, n int) {
	if s == nil {
		return
	}
	s.slotsOccupied.WithLabelValues(layer).Set(float64(n))
}

// IncCascades records one task moving to a different layer on flush.
func (s *Set) IncCascades() {
	if s == nil {
		return
	}
	s.cascades.Inc()
}

// ObserveFireLatency records how late, in milliseconds, a task fired
// relative to its expiry.
func (s *Set) ObserveFireLatency(ms float64) {
	if s == nil {
		return
	}
	s.fireLatency.Observe(ms)
}
