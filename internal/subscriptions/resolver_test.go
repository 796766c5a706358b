package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

type stubRepo struct {
	sub *models.Subscription
	err error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.sub, s.err
}

func (s *stubRepo) FindByStripeSubscriptionID(ctx context.Context, id string) (*models.Subscription, error) {
	return s.sub, s.err
}

func (s *stubRepo) Upsert(ctx context.Context, sub *models.Subscription) error { return nil }

var testNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver(repo Repository) *Resolver {
	return NewResolver(ResolverParams{
		Repo:   repo,
		Config: config.EntitlementsConfig{TierCacheTTL: time.Minute},
		Now:    func() time.Time { return testNow },
	})
}

func TestEffectiveTier(t *testing.T) {
	end := testNow.Add(10 * 24 * time.Hour)
	pastEnd := testNow.Add(-time.Hour)

	cases := []struct {
		name string
		sub  *models.Subscription
		want enums.Tier
	}{
		{
			name: "no subscription",
			sub:  nil,
			want: enums.TierFree,
		},
		{
			name: "active premium monthly",
			sub:  &models.Subscription{PlanType: "premium_monthly", Status: enums.SubscriptionStatusActive},
			want: enums.TierPremium,
		},
		{
			name: "trialing business",
			sub:  &models.Subscription{PlanType: "business_annual", Status: enums.SubscriptionStatusTrialing},
			want: enums.TierBusiness,
		},
		{
			name: "active ai employee hyphenated plan",
			sub:  &models.Subscription{PlanType: "ai-employee-monthly", Status: enums.SubscriptionStatusActive},
			want: enums.TierAIEmployee,
		},
		{
			name: "unknown plan fails closed",
			sub:  &models.Subscription{PlanType: "legacy_gold", Status: enums.SubscriptionStatusActive},
			want: enums.TierFree,
		},
		{
			name: "past_due inside grace window",
			sub: &models.Subscription{
				PlanType:  "premium_monthly",
				Status:    enums.SubscriptionStatusPastDue,
				UpdatedAt: testNow.Add(-6*24*time.Hour - 23*time.Hour),
			},
			want: enums.TierPremium,
		},
		{
			name: "past_due past grace window",
			sub: &models.Subscription{
				PlanType:  "premium_monthly",
				Status:    enums.SubscriptionStatusPastDue,
				UpdatedAt: testNow.Add(-7*24*time.Hour - time.Hour),
			},
			want: enums.TierFree,
		},
		{
			name: "cancel at period end keeps tier until period end",
			sub: &models.Subscription{
				PlanType:          "business_monthly",
				Status:            enums.SubscriptionStatusActive,
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  &end,
			},
			want: enums.TierBusiness,
		},
		{
			name: "cancel at period end after period end",
			sub: &models.Subscription{
				PlanType:          "business_monthly",
				Status:            enums.SubscriptionStatusActive,
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  &pastEnd,
			},
			want: enums.TierFree,
		},
		{
			name: "canceled status with future period end is still free",
			sub: &models.Subscription{
				PlanType:          "premium_monthly",
				Status:            enums.SubscriptionStatusCanceled,
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  &end,
			},
			want: enums.TierFree,
		},
		{
			name: "unpaid status with future period end is still free",
			sub: &models.Subscription{
				PlanType:          "premium_monthly",
				Status:            enums.SubscriptionStatusUnpaid,
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  &end,
			},
			want: enums.TierFree,
		},
		{
			name: "incomplete_expired with future period end is still free",
			sub: &models.Subscription{
				PlanType:          "premium_monthly",
				Status:            enums.SubscriptionStatusIncompleteExpired,
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  &end,
			},
			want: enums.TierFree,
		},
		{
			name: "canceled status without window",
			sub:  &models.Subscription{PlanType: "premium_monthly", Status: enums.SubscriptionStatusCanceled},
			want: enums.TierFree,
		},
		{
			name: "unpaid status",
			sub:  &models.Subscription{PlanType: "premium_monthly", Status: enums.SubscriptionStatusUnpaid},
			want: enums.TierFree,
		},
		{
			name: "tier field wins over plan type",
			sub: &models.Subscription{
				Tier:     "business",
				PlanType: "premium_monthly",
				Status:   enums.SubscriptionStatusActive,
			},
			want: enums.TierBusiness,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveTier(tc.sub, testNow); got != tc.want {
				t.Fatalf("EffectiveTier = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolveTierFailsClosedOnStorageError(t *testing.T) {
	resolver := newTestResolver(&stubRepo{err: errors.New("connection refused")})

	if got := resolver.ResolveTier(context.Background(), "user_1"); got != enums.TierFree {
		t.Fatalf("expected free on storage error, got %s", got)
	}
}

func TestResolveTierEmptyUser(t *testing.T) {
	resolver := newTestResolver(&stubRepo{})

	if got := resolver.ResolveTier(context.Background(), ""); got != enums.TierFree {
		t.Fatalf("expected free for empty user id")
	}
}

func TestGracePeriodReporting(t *testing.T) {
	sub := &models.Subscription{
		PlanType:  "premium_monthly",
		Status:    enums.SubscriptionStatusPastDue,
		UpdatedAt: testNow.Add(-3 * 24 * time.Hour),
	}
	resolver := newTestResolver(&stubRepo{sub: sub})

	info, err := resolver.GracePeriod(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GracePeriod: %v", err)
	}
	if !info.InGracePeriod {
		t.Fatal("expected in grace period")
	}
	if info.DaysRemaining != 4 {
		t.Fatalf("expected 4 days remaining, got %d", info.DaysRemaining)
	}
	if info.Tier != enums.TierPremium {
		t.Fatalf("expected premium during grace, got %s", info.Tier)
	}
	if info.ExpiresAt == nil {
		t.Fatal("expected expiry timestamp")
	}
}

func TestGracePeriodExpired(t *testing.T) {
	sub := &models.Subscription{
		PlanType:  "premium_monthly",
		Status:    enums.SubscriptionStatusPastDue,
		UpdatedAt: testNow.Add(-10 * 24 * time.Hour),
	}
	resolver := newTestResolver(&stubRepo{sub: sub})

	info, err := resolver.GracePeriod(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GracePeriod: %v", err)
	}
	if info.InGracePeriod {
		t.Fatal("expected grace period over")
	}
	if info.Tier != enums.TierFree {
		t.Fatalf("expected free after grace, got %s", info.Tier)
	}
}

func TestCancellationReporting(t *testing.T) {
	end := testNow.Add(5 * 24 * time.Hour)
	sub := &models.Subscription{
		PlanType:          "business_monthly",
		Status:            enums.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CurrentPeriodEnd:  &end,
	}
	resolver := newTestResolver(&stubRepo{sub: sub})

	info, err := resolver.Cancellation(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("Cancellation: %v", err)
	}
	if !info.CancelAtPeriodEnd {
		t.Fatal("expected pending cancellation")
	}
	if info.AccessUntil == nil || !info.AccessUntil.Equal(end) {
		t.Fatalf("unexpected access window %v", info.AccessUntil)
	}
	if info.Tier != enums.TierBusiness {
		t.Fatalf("expected business until period end, got %s", info.Tier)
	}
}

func TestScheduledDowngradeReporting(t *testing.T) {
	end := testNow.Add(5 * 24 * time.Hour)
	target := "premium_monthly"
	sub := &models.Subscription{
		PlanType:          "business_monthly",
		ScheduledPlanType: &target,
		Status:            enums.SubscriptionStatusActive,
		CurrentPeriodEnd:  &end,
	}
	resolver := newTestResolver(&stubRepo{sub: sub})

	info, err := resolver.ScheduledDowngrade(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ScheduledDowngrade: %v", err)
	}
	if !info.Scheduled {
		t.Fatal("expected scheduled downgrade")
	}
	if info.TargetTier != enums.TierPremium {
		t.Fatalf("expected premium target, got %s", info.TargetTier)
	}
	if info.EffectiveAt == nil || !info.EffectiveAt.Equal(end) {
		t.Fatalf("unexpected effective date %v", info.EffectiveAt)
	}
}

func TestScheduledDowngradeAbsent(t *testing.T) {
	resolver := newTestResolver(&stubRepo{sub: &models.Subscription{PlanType: "premium_monthly", Status: enums.SubscriptionStatusActive}})

	info, err := resolver.ScheduledDowngrade(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ScheduledDowngrade: %v", err)
	}
	if info.Scheduled {
		t.Fatal("expected no scheduled downgrade")
	}
}
