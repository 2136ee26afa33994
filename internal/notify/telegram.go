// Package notify turns booking events into messages for managers and guests.
// Notifications never fail the operation that triggered them.
package notify

import (
	"fmt"
	"strings"

	"traveler/internal/config"
	"traveler/internal/domain"
	"traveler/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NewBotAPI connects to the Bot API with the configured token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// TelegramNotifier posts booking activity to the manager chat.
type TelegramNotifier struct {
	bot    domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return n.bot.Send(msg)
}

// Subscribe registers the notifier for booking events on bus.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingUpdated,
		events.EventBookingStatusChanged,
		events.EventBookingDeleted,
	} {
		bus.Subscribe(eventType, n.handleBookingEvent)
	}
}

func (n *TelegramNotifier) handleBookingEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	if _, err := n.SendMessage(n.chatID, managerMessage(event.Type, payload)); err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	n.logger.Debug().Str("event", event.Type).Int64("booking_id", payload.BookingID).Msg("Manager notified")
	return nil
}

func managerMessage(eventType string, p events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "New booking"
	case events.EventBookingUpdated:
		title = "Booking updated"
	case events.EventBookingStatusChanged:
		title = fmt.Sprintf("Booking status: %s → %s", p.PreviousStatus, p.Status)
	case events.EventBookingDeleted:
		title = "Booking deleted"
	default:
		title = eventType
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d\n", title, p.BookingID)
	fmt.Fprintf(&sb, "User: %s\n", p.Username)
	fmt.Fprintf(&sb, "Trip: %s → %s\n", p.DepartureLocation, p.Destination)
	fmt.Fprintf(&sb, "Dates: %s - %s\n", p.CheckInDate, p.CheckOutDate)
	fmt.Fprintf(&sb, "Guests: %d, %s / %s\n", p.NumberOfGuests, p.AccommodationType, p.RoomType)
	fmt.Fprintf(&sb, "Contact: %s, %s, %s", p.ContactName, p.ContactEmail, p.ContactPhone)
	return sb.String()
}
