package pricing

import "errors"

// Pure price computation for bookings. No I/O: callers supply the current
// plan price table and translate the sentinel errors into their own taxonomy.

const (
	MinSessions = 1
	MaxSessions = 10
)

var (
	ErrSessionCount    = errors.New("session count must be between 1 and 10")
	ErrPricePerSession = errors.New("price per session must be positive")
	ErrUnknownPlan     = errors.New("unknown premium plan")
	ErrPlanPrice       = errors.New("premium plan price must be positive")
)

// PlanPrices maps premium plan names (gold, platinum) to their surcharge.
type PlanPrices map[string]float64

// Total computes sessions x perSession plus the premium plan surcharge
// (zero for plan "none"). Out-of-range inputs are rejected, never clamped.
func Total(sessions int, perSession float64, premiumPlan string, prices PlanPrices) (float64, error) {
	if sessions < MinSessions || sessions > MaxSessions {
		return 0, ErrSessionCount
	}
	if perSession <= 0 {
		return 0, ErrPricePerSession
	}

	surcharge := 0.0
	if premiumPlan != "" && premiumPlan != "none" {
		price, ok := prices[premiumPlan]
		if !ok {
			return 0, ErrUnknownPlan
		}
		if price <= 0 {
			return 0, ErrPlanPrice
		}
		surcharge = price
	}

	return float64(sessions)*perSession + surcharge, nil
}
