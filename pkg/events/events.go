package events

import "time"

const (
	TypeBookingStatusChanged = "booking.status_changed"
)

// BookingStatusChanged is published after a status transition commits. The
// owner contact fields are denormalized so the notifier never needs a
// database connection.
type BookingStatusChanged struct {
	EventID     string    `json:"event_id"`
	BookingID   string    `json:"booking_id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	OwnerEmail  string    `json:"owner_email"`
	Status      string    `json:"status"`
	PremiumPlan string    `json:"premium_plan"`
	TotalAmount float64   `json:"total_amount"`
	OccurredAt  time.Time `json:"occurred_at"`
}
