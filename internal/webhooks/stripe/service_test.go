package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

type gormTxRunner struct {
	conn *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) InvalidateUser(ctx context.Context, userID string) {
	r.users = append(r.users, userID)
}

func stripeTestConfig() config.StripeConfig {
	return config.StripeConfig{
		PremiumMonthlyPriceID:  "price_prem_m",
		BusinessMonthlyPriceID: "price_biz_m",
	}
}

func newWebhookFixture(t *testing.T) (*Service, *gorm.DB, *recordingInvalidator) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("extract sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	invalidator := &recordingInvalidator{}
	svc, err := NewService(ServiceParams{
		SubsRepo:          subscriptions.NewRepository(conn),
		StripeConfig:      stripeTestConfig(),
		TransactionRunner: &gormTxRunner{conn: conn},
		Invalidator:       invalidator,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn, invalidator
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, sub map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCreatesSubscription(t *testing.T) {
	svc, conn, invalidator := newWebhookFixture(t)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, map[string]any{
		"id":       "sub_stripe_1",
		"status":   "active",
		"customer": map[string]any{"id": "cus_1"},
		"metadata": map[string]string{"user_id": "user_1"},
		"items": map[string]any{
			"data": []map[string]any{
				{
					"price":                map[string]any{"id": "price_prem_m"},
					"current_period_start": time.Now().Unix(),
					"current_period_end":   periodEnd,
				},
			},
		},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	var stored models.Subscription
	if err := conn.Where("user_id = ?", "user_1").First(&stored).Error; err != nil {
		t.Fatalf("load stored subscription: %v", err)
	}
	if stored.StripeSubscriptionID != "sub_stripe_1" {
		t.Fatalf("unexpected stripe id %s", stored.StripeSubscriptionID)
	}
	if stored.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected status %s", stored.Status)
	}
	if stored.PlanType != "premium_monthly" || stored.Tier != "premium" {
		t.Fatalf("plan mapping failed: %+v", stored)
	}
	if stored.CurrentPeriodEnd == nil {
		t.Fatal("expected period end")
	}

	if len(invalidator.users) != 1 || invalidator.users[0] != "user_1" {
		t.Fatalf("tier cache not invalidated: %v", invalidator.users)
	}
}

func TestHandleEventUpdatesExistingRow(t *testing.T) {
	svc, conn, invalidator := newWebhookFixture(t)

	seed := models.Subscription{
		ID:                   "row_1",
		UserID:               "user_1",
		StripeSubscriptionID: "sub_stripe_1",
		PlanType:             "premium_monthly",
		Tier:                 "premium",
		Status:               enums.SubscriptionStatusActive,
	}
	if err := conn.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// metadata intentionally missing: replay falls back to the stored row
	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, map[string]any{
		"id":     "sub_stripe_1",
		"status": "past_due",
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "price_prem_m"}},
			},
		},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	var stored models.Subscription
	if err := conn.Where("user_id = ?", "user_1").First(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due, got %s", stored.Status)
	}
	if stored.ID != "row_1" {
		t.Fatalf("row replaced instead of updated: %s", stored.ID)
	}

	if len(invalidator.users) != 1 || invalidator.users[0] != "user_1" {
		t.Fatalf("tier cache not invalidated: %v", invalidator.users)
	}
}

func TestHandleEventMissingMetadataOnNewSubscription(t *testing.T) {
	svc, _, _ := newWebhookFixture(t)

	event := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, map[string]any{
		"id":     "sub_unknown",
		"status": "active",
	})

	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected error when metadata has no user_id and no stored row")
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	svc, _, invalidator := newWebhookFixture(t)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: "charge.succeeded",
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(invalidator.users) != 0 {
		t.Fatal("unrelated event must not touch the cache")
	}
}

type fakeIdemStore struct {
	keys map[string]bool
}

func (f *fakeIdemStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdemStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.keys, k)
	}
	return nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return "rl:idempotency:" + scope + ":" + id
}

func TestIdempotencyGuard(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeIdemStore{}, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not be marked seen")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark replay: %v", err)
	}
	if !seen {
		t.Fatal("replay must be marked seen")
	}

	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seen, _ = guard.CheckAndMark(context.Background(), "evt_1")
	if seen {
		t.Fatal("deleted guard entry must allow retry")
	}
}
