// Package queue defines the outbound notification queue: the event payload,
// the publisher used by the request path, and the background consumer that
// delivers the messages over SMTP.
package queue

// Name of the durable queue notification events travel through.
const NotificationQueueName = "notifications.outbound"

// Event kinds, one per domain event that triggers email.
const (
	KindWelcome        = "welcome"
	KindRequestCreated = "request.created"
	KindQuoteSubmitted = "quote.submitted"
	KindQuoteAccepted  = "quote.accepted"
	KindAdminAlert     = "admin.alert"
)

// NotificationEvent is a fully rendered email waiting for delivery. The
// notifier renders subject and body before publishing so the consumer needs
// no database access.
type NotificationEvent struct {
	Kind       string `json:"kind"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	EnqueuedAt string `json:"enqueued_at"`
}
