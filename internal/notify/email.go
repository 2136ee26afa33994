package notify

import (
	"fmt"
	"html"

	"traveler/internal/config"
	"traveler/internal/events"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailSender delivers a prepared message. *sendgrid.Client satisfies it.
type MailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier sends the booking confirmation and status updates to the
// booking's contact address.
type EmailNotifier struct {
	client MailSender
	from   *mail.Email
	logger *zerolog.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger *zerolog.Logger) *EmailNotifier {
	return NewEmailNotifierWithSender(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg, logger)
}

func NewEmailNotifierWithSender(client MailSender, cfg config.EmailConfig, logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		client: client,
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

func (n *EmailNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	bus.Subscribe(events.EventBookingStatusChanged, n.handleStatusChanged)
}

func (n *EmailNotifier) handleBookingCreated(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	subject := fmt.Sprintf("Booking #%d received: %s", p.BookingID, p.Destination)
	plain := fmt.Sprintf(
		"Hello %s,\n\nYour booking to %s from %s to %s for %d guest(s) has been received and is %s.\n"+
			"We will confirm it shortly.\n",
		p.ContactName, p.Destination, p.CheckInDate, p.CheckOutDate, p.NumberOfGuests, p.Status,
	)
	htmlContent := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your booking to <strong>%s</strong> from %s to %s for %d guest(s) "+
			"has been received and is <strong>%s</strong>.</p><p>We will confirm it shortly.</p>",
		html.EscapeString(p.ContactName), html.EscapeString(p.Destination),
		html.EscapeString(p.CheckInDate), html.EscapeString(p.CheckOutDate),
		p.NumberOfGuests, html.EscapeString(p.Status),
	)
	return n.send(p, subject, plain, htmlContent)
}

func (n *EmailNotifier) handleStatusChanged(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	subject := fmt.Sprintf("Booking #%d is now %s", p.BookingID, p.Status)
	plain := fmt.Sprintf("Hello %s,\n\nYour booking to %s (%s - %s) is now %s.\n",
		p.ContactName, p.Destination, p.CheckInDate, p.CheckOutDate, p.Status)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your booking to <strong>%s</strong> (%s - %s) is now <strong>%s</strong>.</p>",
		html.EscapeString(p.ContactName), html.EscapeString(p.Destination),
		html.EscapeString(p.CheckInDate), html.EscapeString(p.CheckOutDate), html.EscapeString(p.Status))
	return n.send(p, subject, plain, htmlContent)
}

func (n *EmailNotifier) send(p events.BookingEventPayload, subject, plain, htmlContent string) error {
	if p.ContactEmail == "" {
		return nil
	}

	to := mail.NewEmail(p.ContactName, p.ContactEmail)
	message := mail.NewSingleEmail(n.from, subject, to, plain, htmlContent)

	resp, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send email: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}

	n.logger.Info().Int64("booking_id", p.BookingID).Str("to", p.ContactEmail).Msg("Booking email sent")
	return nil
}
