package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the territory service.
// All recording helpers are safe on a nil registry.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	CheckInsTotal       *prometheus.CounterVec
	CheckInPoints       *prometheus.HistogramVec
	CheckInDuration     prometheus.Histogram
	SyncedCheckInsTotal prometheus.Counter
	CheckInRejections   *prometheus.CounterVec
	ChargesStarted      prometheus.Counter
	PartyEventsTotal    *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
}

// NewMetricsRegistry registers every metric on reg. Pass prometheus.DefaultRegisterer in production
// and a fresh prometheus.NewRegistry() in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "territory_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "territory_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		CheckInsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_checkins_total",
				Help: "Committed check-ins by action, mode and whether they were party contributions",
			},
			[]string{"action", "mode", "party_contribution"},
		),
		CheckInPoints: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "territory_checkin_points",
				Help:    "Points awarded to the acting player per check-in",
				Buckets: []float64{10, 20, 30, 40, 60, 80, 120, 200, 400, 800},
			},
			[]string{"action"},
		),
		CheckInDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "territory_checkin_duration_seconds",
				Help:    "Time spent inside the check-in transaction",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		SyncedCheckInsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "territory_synced_checkins_total",
				Help: "Check-ins replicated to co-located party members",
			},
		),
		CheckInRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_checkin_rejections_total",
				Help: "Rejected check-ins and charges by error code",
			},
			[]string{"code"},
		),
		ChargesStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "territory_charges_started_total",
				Help: "Charge activations",
			},
		),
		PartyEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "territory_party_events_total",
				Help: "Party lifecycle events",
			},
			[]string{"event"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "territory_job_duration_seconds",
				Help:    "Background job execution time in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"job_name"},
		),
	}
}

func (m *MetricsRegistry) ObserveCheckIn(action, mode string, contribution bool, points int, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if contribution {
		label = "true"
	}
	m.CheckInsTotal.WithLabelValues(action, mode, label).Inc()
	m.CheckInPoints.WithLabelValues(action).Observe(float64(points))
	m.CheckInDuration.Observe(seconds)
}

func (m *MetricsRegistry) ObserveSyncedCheckIns(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SyncedCheckInsTotal.Add(float64(n))
}

func (m *MetricsRegistry) ObserveRejection(code string) {
	if m == nil || code == "" {
		return
	}
	m.CheckInRejections.WithLabelValues(code).Inc()
}

func (m *MetricsRegistry) ObserveCharge() {
	if m == nil {
		return
	}
	m.ChargesStarted.Inc()
}

func (m *MetricsRegistry) ObservePartyEvent(event string) {
	if m == nil {
		return
	}
	m.PartyEventsTotal.WithLabelValues(event).Inc()
}

func (m *MetricsRegistry) ObserveCache(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) ObserveJob(name string, seconds float64) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(name).Observe(seconds)
}
