package subscriptions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	pkgstripe "github.com/roofline-ai/roofline-backend/pkg/stripe"
)

// BuildSubscriptionFromStripe maps a Stripe subscription into the canonical model.
func BuildSubscriptionFromStripe(stripeSub *stripe.Subscription, userID string, cfg config.StripeConfig) (*models.Subscription, error) {
	if stripeSub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	sub := &models.Subscription{
		ID:                   uuid.NewString(),
		UserID:               userID,
		StripeSubscriptionID: stripeSub.ID,
	}
	applyStripeFields(sub, stripeSub, cfg)
	return sub, nil
}

// UpdateSubscriptionFromStripe mutates the stored subscription with new Stripe data.
func UpdateSubscriptionFromStripe(target *models.Subscription, stripeSub *stripe.Subscription, cfg config.StripeConfig) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}
	target.StripeSubscriptionID = stripeSub.ID
	applyStripeFields(target, stripeSub, cfg)
	return nil
}

// UserIDFromMetadata extracts the user ID attached when checkout created the
// subscription.
func UserIDFromMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "subscription metadata is required")
	}
	userID := strings.TrimSpace(metadata["user_id"])
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user_id missing from metadata")
	}
	return userID, nil
}

func applyStripeFields(target *models.Subscription, stripeSub *stripe.Subscription, cfg config.StripeConfig) {
	if stripeSub.Customer != nil {
		target.StripeCustomerID = stripeSub.Customer.ID
	}

	target.Status = mapStripeStatus(stripeSub.Status)
	target.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	target.CanceledAt = toTimePtr(stripeSub.CanceledAt)

	priceID := determinePriceID(stripeSub)
	if priceID != "" {
		target.PriceID = &priceID
		if plan := pkgstripe.PlanTypeForPriceID(cfg, priceID); plan != "" {
			target.PlanType = plan
			target.Tier = string(enums.NormalizeTier(plan))
		}
	}

	startTS, endTS := periodFromSubscription(stripeSub)
	target.CurrentPeriodStart = toTimePtr(startTS)
	target.CurrentPeriodEnd = toTimePtr(endTS)

	if scheduled := strings.TrimSpace(stripeSub.Metadata["scheduled_plan_type"]); scheduled != "" {
		target.ScheduledPlanType = &scheduled
	} else {
		target.ScheduledPlanType = nil
	}
}

func mapStripeStatus(status stripe.SubscriptionStatus) enums.SubscriptionStatus {
	mapped := enums.SubscriptionStatus(status)
	if mapped.IsValid() {
		return mapped
	}
	// unknown statuses never grant access
	return enums.SubscriptionStatusCanceled
}

func determinePriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

func periodFromSubscription(sub *stripe.Subscription) (int64, int64) {
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		return item.CurrentPeriodStart, item.CurrentPeriodEnd
	}
	return 0, 0
}

func toTimePtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
