package model

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	PremiumNone     = "none"
	PremiumGold     = "gold"
	PremiumPlatinum = "platinum"
)

// User is an authenticated identity, created on first successful Google
// login. Users are never hard-deleted.
type User struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string     `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Email         string     `json:"email" bson:"email" validate:"required,email"`
	GoogleID      string     `json:"-" bson:"google_id" validate:"required"`
	Role          string     `json:"role" bson:"role" validate:"required,oneof=customer admin"`
	PremiumPlan   string     `json:"premium_plan" bson:"premium_plan" validate:"required,oneof=none gold platinum"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty" bson:"premium_expiry,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}

// Profile is the projection returned to the caller; it never exposes the
// Google subject id.
type Profile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	PremiumPlan   string     `json:"premium_plan"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty"`
}

func (u *User) ToProfile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		PremiumPlan:   u.PremiumPlan,
		PremiumExpiry: u.PremiumExpiry,
	}
}
