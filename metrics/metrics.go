package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "home_energy_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultPartial = "partial"
)

var (
	registerOnce sync.Once

	occupancyReports *prometheus.CounterVec
	devicesSwitched  *prometheus.CounterVec
	staleTransitions prometheus.Counter
	energySaved      prometheus.Counter

	integrationRuns    *prometheus.CounterVec
	integrationLatency *prometheus.HistogramVec
	integrationRecords *prometheus.CounterVec

	insightRequests *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Recording
// functions are no-ops until Init has run.
func Init() {
	registerOnce.Do(func() {
		occupancyReports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "occupancy_reports_total",
				Help: "Occupancy reports handled by resulting room state",
			},
			[]string{"state"},
		)
		devicesSwitched = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_transitions_total",
				Help: "Device state transitions applied by source and target state",
			},
			[]string{"source", "state"},
		)
		staleTransitions = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "stale_transitions_total",
				Help: "State changes dropped because they were older than the device's last transition",
			},
		)
		energySaved = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "energy_saved_total",
				Help: "Sum of recorded energy savings estimates",
			},
		)
		integrationRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hourly_integration_runs_total",
				Help: "Hourly integration runs by result",
			},
			[]string{"result"},
		)
		integrationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "hourly_integration_latency_seconds",
				Help:    "Hourly integration run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		integrationRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hourly_records_total",
				Help: "Hourly energy records by outcome",
			},
			[]string{"outcome"},
		)
		insightRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "insight_requests_total",
				Help: "Insight generation requests by kind and result",
			},
			[]string{"kind", "result"},
		)

		prometheus.MustRegister(
			occupancyReports,
			devicesSwitched,
			staleTransitions,
			energySaved,
			integrationRuns,
			integrationLatency,
			integrationRecords,
			insightRequests,
		)
	})
}

// ObserveOccupancy counts a handled occupancy report.
func ObserveOccupancy(occupied bool) {
	if occupancyReports == nil {
		return
	}
	state := "unoccupied"
	if occupied {
		state = "occupied"
	}
	occupancyReports.WithLabelValues(state).Inc()
}

// AddTransitions counts applied device transitions.
func AddTransitions(source string, isOn bool, count int) {
	if devicesSwitched == nil || count <= 0 {
		return
	}
	if source == "" {
		source = "unknown"
	}
	state := "off"
	if isOn {
		state = "on"
	}
	devicesSwitched.WithLabelValues(source, state).Add(float64(count))
}

// IncStaleTransition counts a state change rejected by the monotonic guard.
func IncStaleTransition() {
	if staleTransitions != nil {
		staleTransitions.Inc()
	}
}

// AddEnergySaved adds a savings estimate.
func AddEnergySaved(v float64) {
	if energySaved != nil && v > 0 {
		energySaved.Add(v)
	}
}

// ObserveIntegration records one hourly integration run.
func ObserveIntegration(result string, duration time.Duration, written, duplicates, failed int) {
	if result == "" {
		result = ResultSuccess
	}
	if integrationRuns != nil {
		integrationRuns.WithLabelValues(result).Inc()
	}
	if integrationLatency != nil {
		integrationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if integrationRecords != nil {
		integrationRecords.WithLabelValues("written").Add(float64(written))
		integrationRecords.WithLabelValues("duplicate").Add(float64(duplicates))
		integrationRecords.WithLabelValues("failed").Add(float64(failed))
	}
}

// IncInsight counts an insight request.
func IncInsight(kind, result string) {
	if insightRequests == nil {
		return
	}
	if result == "" {
		result = ResultSuccess
	}
	insightRequests.WithLabelValues(kind, result).Inc()
}
