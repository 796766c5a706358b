package models

import (
	"time"

	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

// Subscription persists Stripe subscription state per user. Rows are written
// only by the billing webhook collaborator and read by the tier resolver;
// they are never hard-deleted so billing history survives downgrades.
type Subscription struct {
	ID                   string                   `gorm:"column:id;primaryKey"`
	UserID               string                   `gorm:"column:user_id;not null;uniqueIndex"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;index"`
	Tier                 string                   `gorm:"column:tier;not null;default:'free'"`
	PlanType             string                   `gorm:"column:plan_type"`
	ScheduledPlanType    *string                  `gorm:"column:scheduled_plan_type"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	PriceID              *string                  `gorm:"column:price_id"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name regardless of gorm pluralization settings.
func (Subscription) TableName() string {
	return "subscriptions"
}
