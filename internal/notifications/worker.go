package notifications

import (
	"context"
	"fmt"

	"sessly/pkg/events"
	"sessly/pkg/kafka"
	"sessly/pkg/logger"
)

// Worker turns booking events from the broker into notifications. It is the
// message handler for the consumer group; the consumer owns the fetch loop.
type Worker struct {
	notifier Notifier
	log      *logger.Logger
}

func NewWorker(notifier Notifier, log *logger.Logger) *Worker {
	return &Worker{
		notifier: notifier,
		log:      log,
	}
}

// Handle processes one broker message. Unknown event types are skipped, not
// failed, so new event types can roll out before the worker learns them.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()
	if eventType != events.TypeBookingStatusChanged {
		w.log.Debug("Skipping unknown event type", "event_type", eventType)
		return nil
	}

	var event events.BookingStatusChanged
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode status change event: %w", err)
	}

	if err := w.notifier.NotifyStatusChanged(ctx, &event); err != nil {
		w.log.Error("Failed to deliver notification",
			"event_id", event.EventID,
			"booking_id", event.BookingID,
			"error", err,
		)
		return err
	}

	return nil
}
