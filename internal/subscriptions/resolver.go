package subscriptions

import (
	"context"
	"time"

	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/redis"
)

// gracePeriodDays is how long a past_due subscription keeps its paid tier
// while Stripe retries payment.
const gracePeriodDays = 7

// GracePeriodInfo describes where a past_due user stands in the dunning window.
type GracePeriodInfo struct {
	InGracePeriod bool       `json:"inGracePeriod"`
	DaysRemaining int        `json:"daysRemaining"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Tier          enums.Tier `json:"tier"`
}

// CancellationInfo describes a pending end-of-period cancellation.
type CancellationInfo struct {
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	AccessUntil       *time.Time `json:"accessUntil,omitempty"`
	Tier              enums.Tier `json:"tier"`
}

// ScheduledDowngradeInfo describes a plan change queued for the next period.
type ScheduledDowngradeInfo struct {
	Scheduled   bool       `json:"scheduled"`
	TargetPlan  string     `json:"targetPlan,omitempty"`
	TargetTier  enums.Tier `json:"targetTier,omitempty"`
	EffectiveAt *time.Time `json:"effectiveAt,omitempty"`
}

// ResolverParams carries the resolver's dependencies.
type ResolverParams struct {
	Repo   Repository
	Cache  *redis.Client
	Config config.EntitlementsConfig
	Logger *logger.Logger
	Now    func() time.Time
}

// Resolver maps a user to their effective tier. Lookups are cached in Redis
// for a short TTL; webhook ingestion invalidates on every subscription write.
// Any storage failure resolves to free so billing outages never grant access.
type Resolver struct {
	repo  Repository
	cache *redis.Client
	ttl   time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

// NewResolver builds a Resolver. Repo is required; cache is optional.
func NewResolver(params ResolverParams) *Resolver {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	ttl := params.Config.TierCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{
		repo:  params.Repo,
		cache: params.Cache,
		ttl:   ttl,
		logg:  params.Logger,
		now:   now,
	}
}

// ResolveTier returns the user's effective tier right now.
func (r *Resolver) ResolveTier(ctx context.Context, userID string) enums.Tier {
	if userID == "" {
		return enums.TierFree
	}

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, r.cache.TierCacheKey(userID)); err == nil {
			if tier := enums.Tier(cached); tier.IsValid() {
				return tier
			}
		}
	}

	sub, err := r.repo.FindByUserID(ctx, userID)
	if err != nil {
		if r.logg != nil {
			lctx := r.logg.WithUserID(ctx, userID)
			r.logg.Error(lctx, "tier lookup failed, resolving to free", err)
		}
		return enums.TierFree
	}

	tier := EffectiveTier(sub, r.now())

	if r.cache != nil {
		if err := r.cache.Set(ctx, r.cache.TierCacheKey(userID), string(tier), r.ttl); err != nil && r.logg != nil {
			r.logg.Warn(r.logg.WithUserID(ctx, userID), "tier cache write failed")
		}
	}

	return tier
}

// InvalidateUser drops the cached tier so the next resolve hits storage.
func (r *Resolver) InvalidateUser(ctx context.Context, userID string) {
	if r.cache == nil || userID == "" {
		return
	}
	if err := r.cache.Del(ctx, r.cache.TierCacheKey(userID)); err != nil && r.logg != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, userID), "tier cache invalidation failed")
	}
}

// GracePeriod reports the dunning window state for the user.
func (r *Resolver) GracePeriod(ctx context.Context, userID string) (GracePeriodInfo, error) {
	sub, err := r.repo.FindByUserID(ctx, userID)
	if err != nil {
		return GracePeriodInfo{Tier: enums.TierFree}, err
	}
	now := r.now()
	info := GracePeriodInfo{Tier: EffectiveTier(sub, now)}
	if sub == nil || sub.Status != enums.SubscriptionStatusPastDue {
		return info, nil
	}

	elapsed := daysSince(sub.UpdatedAt, now)
	if elapsed >= gracePeriodDays {
		return info, nil
	}

	expires := sub.UpdatedAt.AddDate(0, 0, gracePeriodDays)
	info.InGracePeriod = true
	info.DaysRemaining = gracePeriodDays - elapsed
	info.ExpiresAt = &expires
	return info, nil
}

// Cancellation reports whether the user keeps paid access until period end.
func (r *Resolver) Cancellation(ctx context.Context, userID string) (CancellationInfo, error) {
	sub, err := r.repo.FindByUserID(ctx, userID)
	if err != nil {
		return CancellationInfo{Tier: enums.TierFree}, err
	}
	now := r.now()
	info := CancellationInfo{Tier: EffectiveTier(sub, now)}
	if sub == nil || !sub.CancelAtPeriodEnd {
		return info, nil
	}
	info.CancelAtPeriodEnd = true
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(now) {
		info.AccessUntil = sub.CurrentPeriodEnd
	}
	return info, nil
}

// ScheduledDowngrade reports a plan change queued for the next billing period.
func (r *Resolver) ScheduledDowngrade(ctx context.Context, userID string) (ScheduledDowngradeInfo, error) {
	sub, err := r.repo.FindByUserID(ctx, userID)
	if err != nil {
		return ScheduledDowngradeInfo{}, err
	}
	if sub == nil || sub.ScheduledPlanType == nil || *sub.ScheduledPlanType == "" {
		return ScheduledDowngradeInfo{}, nil
	}
	return ScheduledDowngradeInfo{
		Scheduled:   true,
		TargetPlan:  *sub.ScheduledPlanType,
		TargetTier:  enums.NormalizeTier(*sub.ScheduledPlanType),
		EffectiveAt: sub.CurrentPeriodEnd,
	}, nil
}

// EffectiveTier applies the status rules to a subscription row.
//
// active and trialing grant the plan tier; a pending end-of-period
// cancellation keeps it only until current_period_end. past_due keeps the
// tier through a 7 day grace window measured from the row's last update.
// Everything else, including a missing row, is free: once a subscription is
// canceled or unpaid, cancel_at_period_end no longer extends access.
func EffectiveTier(sub *models.Subscription, now time.Time) enums.Tier {
	if sub == nil {
		return enums.TierFree
	}

	plan := sub.Tier
	if plan == "" {
		plan = sub.PlanType
	}
	tier := enums.NormalizeTier(plan)
	if tier == enums.TierFree {
		return enums.TierFree
	}

	switch {
	case sub.Status.GrantsAccess():
		if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(now) {
			return enums.TierFree
		}
		return tier
	case sub.Status == enums.SubscriptionStatusPastDue:
		if daysSince(sub.UpdatedAt, now) >= gracePeriodDays {
			return enums.TierFree
		}
		return tier
	default:
		return enums.TierFree
	}
}

func daysSince(from, now time.Time) int {
	if now.Before(from) {
		return 0
	}
	return int(now.Sub(from).Hours() / 24)
}
