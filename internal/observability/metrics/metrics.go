package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salon_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	duplicateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_duplicate_checks_total",
		Help: "Duplicate checks by kind and outcome",
	}, []string{"type", "result"})

	ownerRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_owner_registrations_total",
		Help: "Owner registration attempts by result",
	}, []string{"result"})

	registrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salon_owner_registration_duration_seconds",
		Help:    "Duration of owner registration workflows",
		Buckets: prometheus.DefBuckets,
	})

	sagaCompensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_saga_compensations_total",
		Help: "Compensating actions run during rollback",
	}, []string{"step", "result"})

	rollbackFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_saga_rollback_failures_total",
		Help: "Compensating actions that failed and were escalated",
	}, []string{"step"})

	compensationCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_compensation_commands_total",
		Help: "Queued compensation commands by action and result",
	}, []string{"action", "result"})

	staffInvitations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_staff_invitations_total",
		Help: "Staff invitation attempts by result",
	}, []string{"result"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_events_published_total",
		Help: "Provisioning events handed to the broker",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveDuplicateCheck records one duplicate check; result is "available",
// "taken" or "error".
func ObserveDuplicateCheck(kind, result string) {
	duplicateChecks.WithLabelValues(kind, result).Inc()
}

// ObserveOwnerRegistration records the outcome and duration of a registration.
func ObserveOwnerRegistration(result string, duration time.Duration) {
	ownerRegistrations.WithLabelValues(result).Inc()
	registrationDuration.Observe(duration.Seconds())
}

// ObserveCompensation records a compensating action run by a saga.
func ObserveCompensation(step, result string) {
	sagaCompensations.WithLabelValues(step, result).Inc()
}

// ObserveRollbackFailure counts a compensation that could not be applied.
func ObserveRollbackFailure(step string) {
	rollbackFailures.WithLabelValues(step).Inc()
}

// ObserveCompensationCommand records a queued compensation attempt.
func ObserveCompensationCommand(action, result string) {
	compensationCommands.WithLabelValues(action, result).Inc()
}

func ObserveStaffInvitation(result string) {
	staffInvitations.WithLabelValues(result).Inc()
}

func ObserveEventPublished(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
