package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// IntakeMetrics observes the queue: terminal outcomes, pipeline durations,
// worker occupancy and backlog depth. It satisfies intake.Observer.
type IntakeMetrics struct {
	registry *prometheus.Registry

	itemsTotal   *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	backlogDepth prometheus.Gauge
	queueLag     prometheus.Histogram
}

func NewIntakeMetrics(service string) *IntakeMetrics {
	registry := prometheus.NewRegistry()

	itemsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "evidence",
			Subsystem:   "intake",
			Name:        "items_total",
			Help:        "Finished queue items by terminal state.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"state"},
	)
	itemDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "evidence",
			Subsystem:   "intake",
			Name:        "item_duration_seconds",
			Help:        "Pipeline duration per item by terminal state.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"state"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "evidence",
		Subsystem:   "intake",
		Name:        "items_in_flight",
		Help:        "Items currently holding a worker slot.",
		ConstLabels: prometheus.Labels{"service": service},
	})
	backlogDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "evidence",
		Subsystem:   "intake",
		Name:        "backlog_depth",
		Help:        "Items queued and not yet started.",
		ConstLabels: prometheus.Labels{"service": service},
	})
	queueLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "evidence",
		Subsystem:   "intake",
		Name:        "queue_lag_seconds",
		Help:        "Delay between submission and processing start.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		ConstLabels: prometheus.Labels{"service": service},
	})

	registry.MustRegister(itemsTotal, itemDuration, inFlight, backlogDepth, queueLag)

	return &IntakeMetrics{
		registry:     registry,
		itemsTotal:   itemsTotal,
		itemDuration: itemDuration,
		inFlight:     inFlight,
		backlogDepth: backlogDepth,
		queueLag:     queueLag,
	}
}

func (m *IntakeMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IntakeMetrics) ItemStarted(queueLag time.Duration) {
	m.inFlight.Inc()
	if queueLag >= 0 {
		m.queueLag.Observe(queueLag.Seconds())
	}
}

func (m *IntakeMetrics) ItemFinished(state domain.ItemState, duration time.Duration) {
	m.inFlight.Dec()
	m.itemsTotal.WithLabelValues(string(state)).Inc()
	m.itemDuration.WithLabelValues(string(state)).Observe(duration.Seconds())
}

func (m *IntakeMetrics) BacklogDepth(depth int) {
	m.backlogDepth.Set(float64(depth))
}
