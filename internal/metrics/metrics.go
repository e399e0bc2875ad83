package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "ayra_bot"

var (
	UpdatesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "updates_dispatched_total",
		Help:      "Total number of updates routed through the dispatcher",
	}, []string{"type"})

	HandlersInvoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "handlers_invoked_total",
		Help:      "Total number of handler invocations",
	}, []string{"domain"})

	BlacklistHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "blacklist_hits_total",
		Help:      "Total number of blacklist trigger matches by executed action",
	}, []string{"action"})

	DeletedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "deleted_messages_total",
		Help:      "Total number of deleted messages",
	}, []string{"reason"})

	AdminCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "admin_cache_lookups_total",
		Help:      "Admin roster cache lookups",
	}, []string{"result"})

	PendingChallenges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "pending_anonymous_challenges",
		Help:      "Number of suspended actions awaiting an identity challenge",
	})

	UpdateProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "update_processing_duration_seconds",
		Help:      "Duration of update processing",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type", "status"})
)

func IncUpdateDispatched(updateType string) {
	UpdatesDispatched.WithLabelValues(updateType).Inc()
}

func IncHandlerInvoked(domain string) {
	HandlersInvoked.WithLabelValues(domain).Inc()
}

func IncBlacklistHit(action string) {
	BlacklistHits.WithLabelValues(action).Inc()
}

func IncDeletedMessages(reason string) {
	DeletedMessages.WithLabelValues(reason).Inc()
}

func IncAdminCacheLookup(result string) {
	AdminCacheLookups.WithLabelValues(result).Inc()
}

func SetPendingChallenges(count float64) {
	PendingChallenges.Set(count)
}

func ObserveUpdateProcessing(updateType string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	UpdateProcessingDuration.WithLabelValues(updateType, status).Observe(duration)
}
