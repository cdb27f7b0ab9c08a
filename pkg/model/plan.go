package model

import "time"

// PlanSession is the plain per-session plan; its Price field is the price of
// a single session. Gold and platinum are the premium surcharge bundles.
const PlanSession = "session"

// Plan is an admin-configured pricing/feature bundle, looked up by name.
type Plan struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required,oneof=session gold platinum"`
	Price     float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Sessions  int       `json:"sessions" bson:"sessions" validate:"min=0"`
	Features  []string  `json:"features" bson:"features"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
