package stripe

import (
	"github.com/roofline-ai/roofline-backend/pkg/config"
)

// PlanTypeForPriceID maps a configured Stripe price ID to the plan type stored
// on subscription rows. Unknown price IDs return "".
func PlanTypeForPriceID(cfg config.StripeConfig, priceID string) string {
	switch priceID {
	case "":
		return ""
	case cfg.PremiumMonthlyPriceID:
		return "premium_monthly"
	case cfg.PremiumAnnualPriceID:
		return "premium_annual"
	case cfg.BusinessMonthlyPriceID:
		return "business_monthly"
	case cfg.BusinessAnnualPriceID:
		return "business_annual"
	case cfg.AIEmployeeMonthlyPriceID:
		return "ai_employee_monthly"
	default:
		return ""
	}
}
