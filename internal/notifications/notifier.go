package notifications

import (
	"context"
	"fmt"

	"sessly/pkg/events"
	"sessly/pkg/logger"
	"sessly/pkg/model"

	"github.com/resend/resend-go/v2"
)

// Notifier delivers a booking status change to its owner. Mocked in tests.
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, event *events.BookingStatusChanged) error
}

type resendNotifier struct {
	client *resend.Client
	from   string
	log    *logger.Logger
}

func NewResendNotifier(apiKey, from string, log *logger.Logger) Notifier {
	return &resendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log,
	}
}

func (n *resendNotifier) NotifyStatusChanged(ctx context.Context, event *events.BookingStatusChanged) error {
	if event.OwnerEmail == "" {
		return fmt.Errorf("event %s has no owner email", event.EventID)
	}

	subject, html := composeStatusEmail(event)

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{event.OwnerEmail},
		Subject: subject,
		Html:    html,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send status email: %w", err)
	}

	n.log.Info("Status notification sent",
		"message_id", sent.Id,
		"booking_id", event.BookingID,
		"status", event.Status,
	)
	return nil
}

func composeStatusEmail(event *events.BookingStatusChanged) (string, string) {
	switch event.Status {
	case model.StatusApproved:
		subject := "Your booking has been approved"
		html := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your booking <strong>%s</strong> has been approved."+
				" The total amount is %.2f.</p>",
			event.OwnerName, event.BookingID, event.TotalAmount,
		)
		if event.PremiumPlan != "" && event.PremiumPlan != model.PremiumNone {
			html += fmt.Sprintf("<p>Your %s plan benefits have been extended.</p>", event.PremiumPlan)
		}
		html += "<p>See you soon!</p>"
		return subject, html
	case model.StatusCancelled:
		subject := "Your booking has been cancelled"
		html := fmt.Sprintf(
			"<p>Hi %s,</p><p>Unfortunately your booking <strong>%s</strong> has been cancelled."+
				" If you believe this is a mistake, please contact support.</p>",
			event.OwnerName, event.BookingID,
		)
		return subject, html
	default:
		subject := "Your booking status has changed"
		html := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your booking <strong>%s</strong> is now <strong>%s</strong>.</p>",
			event.OwnerName, event.BookingID, event.Status,
		)
		return subject, html
	}
}
