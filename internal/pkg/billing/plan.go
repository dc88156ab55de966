package billing

import (
	"fmt"
	"strings"

	"github.com/meishibox/meishibox/internal/pkg/env"
)

// Plan identifiers. Rank order matters: moving to a lower rank is a
// downgrade and is deferred to the end of the paid period.
const (
	PlanFree      = "free"
	PlanPro       = "pro"
	PlanUnlimited = "unlimited"
)

func normalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case PlanPro:
		return PlanPro
	case PlanUnlimited:
		return PlanUnlimited
	default:
		return PlanFree
	}
}

// ParsePlan validates a requested plan tier. User input must name one of the
// known tiers exactly; a typo must never coerce to free, a downgrade to free
// cancels the subscription.
func ParsePlan(plan string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case PlanFree:
		return PlanFree, nil
	case PlanPro:
		return PlanPro, nil
	case PlanUnlimited:
		return PlanUnlimited, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}
}

func planRank(plan string) int {
	switch normalizePlan(plan) {
	case PlanUnlimited:
		return 2
	case PlanPro:
		return 1
	default:
		return 0
	}
}

// IsPaidPlan reports whether the plan requires a Stripe subscription.
func IsPaidPlan(plan string) bool {
	return planRank(plan) > 0
}

// IsDowngrade reports whether moving from one plan to another lowers the rank.
func IsDowngrade(from, to string) bool {
	return planRank(to) < planRank(from)
}

// PriceIDForPlan resolves a paid plan to its configured Stripe price id.
func PriceIDForPlan(plan string) string {
	switch normalizePlan(plan) {
	case PlanPro:
		return env.GetEnv("STRIPE_PRO_PRICE_ID", "")
	case PlanUnlimited:
		return env.GetEnv("STRIPE_UNLIMITED_PRICE_ID", "")
	default:
		return ""
	}
}

// PlanFromProductID resolves a Stripe product id back to a plan. Unknown
// products map to free so a misconfigured price never grants entitlements.
func PlanFromProductID(productID string) string {
	switch productID {
	case env.GetEnv("STRIPE_PRO_PRODUCT_ID", ""):
		if productID != "" {
			return PlanPro
		}
	case env.GetEnv("STRIPE_UNLIMITED_PRODUCT_ID", ""):
		if productID != "" {
			return PlanUnlimited
		}
	}
	return PlanFree
}

// PlanFromPriceID resolves a Stripe price id back to a plan.
func PlanFromPriceID(priceID string) string {
	switch {
	case priceID != "" && priceID == env.GetEnv("STRIPE_PRO_PRICE_ID", ""):
		return PlanPro
	case priceID != "" && priceID == env.GetEnv("STRIPE_UNLIMITED_PRICE_ID", ""):
		return PlanUnlimited
	default:
		return PlanFree
	}
}
