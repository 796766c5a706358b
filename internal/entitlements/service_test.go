package entitlements

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

var statsNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
	if err := conn.AutoMigrate(&models.Subscription{}, &models.UsagePeriod{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	resolver := subscriptions.NewResolver(subscriptions.ResolverParams{
		Repo:   subscriptions.NewRepository(conn),
		Config: config.EntitlementsConfig{TierCacheTTL: time.Minute},
		Now:    func() time.Time { return statsNow },
	})

	svc, err := NewService(ServiceParams{
		Resolver:  resolver,
		UsageRepo: usage.NewRepository(conn),
		Now:       func() time.Time { return statsNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func seedSubscription(t *testing.T, conn *gorm.DB, userID, planType string, status enums.SubscriptionStatus) {
	t.Helper()
	sub := models.Subscription{
		ID:       "sub_" + userID,
		UserID:   userID,
		PlanType: planType,
		Tier:     planType,
		Status:   status,
	}
	if err := conn.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestCheckChatCreatesUsagePeriod(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	tier, check, err := svc.CheckChat(ctx, "user_free")
	if err != nil {
		t.Fatalf("CheckChat: %v", err)
	}
	if tier != enums.TierFree {
		t.Fatalf("expected free tier, got %s", tier)
	}
	if !check.Allowed || check.Remaining != 5 {
		t.Fatalf("unexpected check %+v", check)
	}

	var count int64
	if err := conn.Model(&models.UsagePeriod{}).Where("user_id = ?", "user_free").Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected usage row created, got %d", count)
	}
}

func TestCheckChatPremiumSubscriber(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seedSubscription(t, conn, "user_prem", "premium_monthly", enums.SubscriptionStatusActive)

	tier, check, err := svc.CheckChat(ctx, "user_prem")
	if err != nil {
		t.Fatalf("CheckChat: %v", err)
	}
	if tier != enums.TierPremium {
		t.Fatalf("expected premium, got %s", tier)
	}
	if check.Model != enums.PremiumModelID || check.Remaining != 1000 {
		t.Fatalf("unexpected check %+v", check)
	}
}

func TestStatsRollsOverStaleDailyCount(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	stale := "2026-01-10"
	row := models.UsagePeriod{
		ID:             "up_1",
		UserID:         "user_free",
		Month:          "2026-01",
		DailyChatCount: 5,
		LastChatDate:   &stale,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	stats, err := svc.Stats(ctx, "user_free")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Tier != enums.TierFree {
		t.Fatalf("expected free, got %s", stats.Tier)
	}
	if stats.Usage.DailyChatCount != 0 {
		t.Fatalf("stale daily count must read as zero, got %d", stats.Usage.DailyChatCount)
	}
	if !stats.Chat.Allowed {
		t.Fatal("fresh day should allow chat")
	}
	if stats.Checks["webSearches"].Allowed {
		t.Fatal("free tier web search must stay gated")
	}
}

func TestStatsWithoutUsageRow(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Stats(context.Background(), "user_new")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Usage != (UsageCounters{}) {
		t.Fatalf("expected zero counters, got %+v", stats.Usage)
	}
	if stats.Limits.Reports != 1 {
		t.Fatalf("expected free limits, got %+v", stats.Limits)
	}
}

func TestAgentAccess(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	if svc.AgentAccess(ctx, "user_free") {
		t.Fatal("free user should not have agent access")
	}

	seedSubscription(t, conn, "user_biz", "business_monthly", enums.SubscriptionStatusActive)
	if !svc.AgentAccess(ctx, "user_biz") {
		t.Fatal("business user should have agent access")
	}
}
