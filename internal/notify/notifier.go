// Package notify turns domain events into outbound email. Every method
// renders the message, hands it to the notification queue and falls back to
// a direct SMTP send when the broker is unreachable. Failures are logged and
// counted, never returned: by the time a notification fires the triggering
// write has already committed, so nothing here may fail the request.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/metrics"
	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/queue"
)

// Publisher enqueues a rendered notification. Satisfied by queue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev queue.NotificationEvent) error
}

// Notifier renders and dispatches the per-event emails.
type Notifier struct {
	pub        Publisher
	sender     queue.Sender
	adminEmail string
	log        zerolog.Logger
}

// New returns a Notifier. sender is the direct-send fallback used when
// publishing fails.
func New(pub Publisher, sender queue.Sender, adminEmail string, log zerolog.Logger) *Notifier {
	return &Notifier{pub: pub, sender: sender, adminEmail: adminEmail, log: log}
}

// Welcome greets a freshly registered user and alerts the admin recipient.
// verifyURL is the signed email-verification link embedded in the message.
func (n *Notifier) Welcome(ctx context.Context, u model.User, verifyURL string) {
	var body string
	if u.Role == model.RoleRepairer {
		body = fmt.Sprintf(`Hello %s,

Welcome to Mendo, the marketplace that brings broken things back to life!

Your repairer account has been created. You can now:
- Browse open repair requests
- Send quotes to clients
- Manage your jobs

Please confirm your email address to activate your account:
%s

Your account will be reviewed within 24 hours to keep service quality high.

The Mendo team`, u.Username, verifyURL)
	} else {
		body = fmt.Sprintf(`Hello %s,

Welcome to Mendo, the marketplace that brings broken things back to life!

Your client account has been created. You can now:
- Post repair requests
- Receive quotes from vetted repairers
- Follow your repairs from start to finish

Please confirm your email address:
%s

The Mendo team`, u.Username, verifyURL)
	}
	n.dispatch(ctx, queue.NotificationEvent{
		Kind: queue.KindWelcome, To: u.Email,
		Subject: "Welcome to Mendo!",
		Body:    body,
	})

	adminBody := fmt.Sprintf(`New registration on Mendo:

Username: %s
Email: %s
Role: %s
City: %s`, u.Username, u.Email, u.Role, u.City)
	if u.Role == model.RoleRepairer {
		adminBody += "\n\nRepairer account pending verification."
	}
	n.AdminAlert(ctx, fmt.Sprintf("New registration - %s", u.Role), adminBody)
}

// RequestCreated fans a new request out to every active repairer and alerts
// the admin recipient.
func (n *Notifier) RequestCreated(ctx context.Context, req model.RepairRequest, client model.User, repairers []model.User) {
	budget := "not specified"
	if req.BudgetMin != nil && req.BudgetMax != nil {
		budget = fmt.Sprintf("%d-%d EUR", *req.BudgetMin, *req.BudgetMax)
	}
	subject := fmt.Sprintf("New repair request - %s", req.Category)
	for _, rep := range repairers {
		body := fmt.Sprintf(`Hello %s,

A new repair request matches your trade:

Title: %s
Category: %s
City: %s
Budget: %s

Description:
%s

Log in to see the full request and send your quote.

The Mendo team`, rep.Username, req.Title, req.Category, req.City, budget, req.Description)
		n.dispatch(ctx, queue.NotificationEvent{
			Kind: queue.KindRequestCreated, To: rep.Email,
			Subject: subject, Body: body,
		})
	}
	n.AdminAlert(ctx, "New repair request",
		fmt.Sprintf("New request posted by %s: %s", client.Username, req.Title))
}

// QuoteSubmitted tells the request's owner a new quote arrived and sends the
// admin a copy.
func (n *Notifier) QuoteSubmitted(ctx context.Context, q model.Quote, req model.RepairRequest, client, repairer model.User) {
	body := fmt.Sprintf(`Hello %s,

You received a new quote for your request "%s":

Repairer: %s
Price: %.2f EUR
Estimated duration: %s
Location: %s

Conditions:
%s

Log in to review the quote and accept it if it suits you.

The Mendo team`, client.Username, req.Title, repairer.Username, q.Price(), q.EstimatedDuration,
		locationLabel(q.LocationType), q.Conditions)
	n.dispatch(ctx, queue.NotificationEvent{
		Kind: queue.KindQuoteSubmitted, To: client.Email,
		Subject: "New quote received on Mendo",
		Body:    body,
	})

	n.AdminAlert(ctx, "New quote submitted", fmt.Sprintf(`New quote:

Request: %s
Client: %s
Repairer: %s
Price: %.2f EUR`, req.Title, client.Username, repairer.Username, q.Price()))
}

// QuoteAccepted notifies both parties that the deal is on.
func (n *Notifier) QuoteAccepted(ctx context.Context, q model.Quote, req model.RepairRequest, client, repairer model.User) {
	n.dispatch(ctx, queue.NotificationEvent{
		Kind: queue.KindQuoteAccepted, To: repairer.Email,
		Subject: "Your quote was accepted!",
		Body: fmt.Sprintf(`Hello %s,

Good news: %s accepted your quote for "%s" (%.2f EUR).

Get in touch to schedule the repair:
Email: %s
Phone: %s

The Mendo team`, repairer.Username, client.Username, req.Title, q.Price(), client.Email, client.Phone),
	})
	n.dispatch(ctx, queue.NotificationEvent{
		Kind: queue.KindQuoteAccepted, To: client.Email,
		Subject: "Quote accepted - next steps",
		Body: fmt.Sprintf(`Hello %s,

You accepted %s's quote for "%s" (%.2f EUR).

The repairer will contact you shortly to schedule the work:
Email: %s
Phone: %s

The Mendo team`, client.Username, repairer.Username, req.Title, q.Price(), repairer.Email, repairer.Phone),
	})
}

// AdminAlert sends an operational notice to the platform admin recipient.
func (n *Notifier) AdminAlert(ctx context.Context, subject, body string) {
	n.dispatch(ctx, queue.NotificationEvent{
		Kind: queue.KindAdminAlert, To: n.adminEmail,
		Subject: subject, Body: body,
	})
}

// dispatch publishes the event, falling back to a direct send. Both paths
// failing loses the notification; that is by contract, the triggering write
// must never be affected.
func (n *Notifier) dispatch(ctx context.Context, ev queue.NotificationEvent) {
	err := n.pub.Publish(ctx, ev)
	if err == nil {
		metrics.NotificationsPublishedTotal.WithLabelValues(ev.Kind).Inc()
		return
	}
	n.log.Warn().Err(err).Str("kind", ev.Kind).Msg("notification publish failed, sending directly")
	if err := n.sender.Send(ev.To, ev.Subject, ev.Body); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(ev.Kind).Inc()
		n.log.Error().Err(err).Str("kind", ev.Kind).Str("to", ev.To).Msg("notification lost")
		return
	}
	metrics.NotificationsPublishedTotal.WithLabelValues(ev.Kind).Inc()
}

func locationLabel(t string) string {
	if t == model.LocationAtelier {
		return "in the workshop"
	}
	return "at your home"
}
