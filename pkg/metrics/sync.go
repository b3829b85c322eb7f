package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of cart synchronization runs.
type SyncMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	pushed      prometheus.Counter
	dropped     prometheus.Counter
	propagation *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_sync_duration_seconds",
		Help:    "Duration of cart synchronization runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_success",
		Help: "Successful cart synchronization runs.",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failure",
		Help: "Failed cart synchronization runs.",
	}, []string{"trigger"})
	pushed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_items_pushed",
		Help: "Local line items pushed to the remote cart during sync.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_items_dropped",
		Help: "Local line items dropped in favor of the remote copy during sync.",
	})
	propagation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_propagation_failure",
		Help: "Failed best-effort per-mutation remote calls.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, pushed, dropped, propagation)
	return &SyncMetrics{
		duration:    duration,
		success:     success,
		failure:     failure,
		pushed:      pushed,
		dropped:     dropped,
		propagation: propagation,
	}
}

// ObserveDuration records the duration of a sync run for the named trigger.
func (s *SyncMetrics) ObserveDuration(trigger string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named trigger.
func (s *SyncMetrics) IncSuccess(trigger string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncFailure increments the failure counter for the named trigger.
func (s *SyncMetrics) IncFailure(trigger string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// AddPushed counts items pushed to the server during a merge.
func (s *SyncMetrics) AddPushed(n int) {
	if s == nil || s.pushed == nil || n <= 0 {
		return
	}
	s.pushed.Add(float64(n))
}

// AddDropped counts local items dropped in favor of the server copy.
func (s *SyncMetrics) AddDropped(n int) {
	if s == nil || s.dropped == nil || n <= 0 {
		return
	}
	s.dropped.Add(float64(n))
}

// IncPropagationFailure counts a failed fire-and-forget remote call.
func (s *SyncMetrics) IncPropagationFailure(operation string) {
	if s == nil || s.propagation == nil {
		return
	}
	s.propagation.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
