package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"hatsgate/core/events"
)

type treasuryMetrics struct {
	events *prometheus.CounterVec
}

var (
	treasuryMetricsOnce sync.Once
	treasuryRegistry    *treasuryMetrics
)

// Treasury returns the metrics registry tracking treasury gate events.
func Treasury() *treasuryMetrics {
	treasuryMetricsOnce.Do(func() {
		treasuryRegistry = &treasuryMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hatsgate",
				Subsystem: "treasury",
				Name:      "events_total",
				Help:      "Count of treasury gate events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(treasuryRegistry.events)
	})
	return treasuryRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *treasuryMetrics) RecordEvent(eventType string) {
	if m == nil || eventType == "" {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

// Recorder is an events.Emitter that feeds the prometheus counters and then
// forwards to an optional downstream emitter.
type Recorder struct {
	next events.Emitter
}

// NewRecorder wraps the downstream emitter. A nil downstream records metrics
// only.
func NewRecorder(next events.Emitter) *Recorder {
	return &Recorder{next: next}
}

// Emit implements events.Emitter.
func (r *Recorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	Treasury().RecordEvent(evt.EventType())
	if r.next != nil {
		r.next.Emit(evt)
	}
}
