// Package metrics defines the Prometheus metrics exposed on /metrics. It is
// the single source of truth for metric names and labels; promauto registers
// everything with the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mendo"

// RequestsCreatedTotal counts repair requests successfully created.
var RequestsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "requests_created_total",
	Help:      "Total number of repair requests created.",
})

// QuotesSubmittedTotal counts quotes successfully submitted.
var QuotesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quotes_submitted_total",
	Help:      "Total number of quotes submitted.",
})

// QuotesAcceptedTotal counts quote acceptances committed.
var QuotesAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "quotes_accepted_total",
	Help:      "Total number of quotes accepted.",
})

// NotificationsPublishedTotal counts notification events handed to the queue,
// labelled by event kind.
var NotificationsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notifications_published_total",
	Help:      "Total number of notification events published to the outbound queue.",
}, []string{"kind"})

// NotificationFailuresTotal counts notification attempts that failed both
// the queue publish and the direct-send fallback.
var NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notification_failures_total",
	Help:      "Total number of notifications lost after publish and fallback both failed.",
}, []string{"kind"})

// AdminOverridesTotal counts admin status overrides, labelled by entity
// (user or request).
var AdminOverridesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "admin_overrides_total",
	Help:      "Total number of admin status overrides.",
}, []string{"entity"})
