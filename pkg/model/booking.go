package model

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
)

const (
	PaymentCard = "card"
	PaymentBank = "bank"
)

// Booking is a purchased set of sessions with a lifecycle status. The total
// amount is computed server-side at creation and never recomputed, even if
// plan prices change later.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID        string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	Name          string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Age           int       `json:"age" bson:"age" validate:"required,min=18,max=120"`
	Sessions      int       `json:"sessions" bson:"sessions" validate:"required,min=1,max=10"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method" validate:"required,oneof=card bank"`
	PremiumPlan   string    `json:"premium_plan" bson:"premium_plan" validate:"required,oneof=none gold platinum"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending approved cancelled"`
	TotalAmount   float64   `json:"total_amount" bson:"total_amount" validate:"min=0"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingUpdate carries the only owner-mutable fields. Everything else is
// fixed at creation or reserved for admin status transitions.
type BookingUpdate struct {
	Sessions      *int   `json:"sessions,omitempty" validate:"omitnil,min=1,max=10"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,oneof=card bank"`
}

// Owner is the joined projection of the booking owner used on admin
// listings and receipts.
type Owner struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

type BookingWithOwner struct {
	Booking `bson:",inline"`
	Owner   Owner `json:"owner" bson:"owner"`
}

// IsTerminal reports whether the status admits no further transitions.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusApproved || b.Status == StatusCancelled
}
