package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

// ServiceParams carries the engine's dependencies.
type ServiceParams struct {
	Resolver  *subscriptions.Resolver
	UsageRepo usage.Repository
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service is the entitlement engine: it resolves the caller's tier, loads the
// current usage period, and applies the pure limit checks.
type Service struct {
	resolver *subscriptions.Resolver
	usage    usage.Repository
	logg     *logger.Logger
	now      func() time.Time
}

// UsageStats is the full usage report for one user.
type UsageStats struct {
	Tier   enums.Tier            `json:"tier"`
	Usage  UsageCounters         `json:"usage"`
	Limits TierLimits            `json:"limits"`
	Chat   ChatLimitCheck        `json:"chat"`
	Checks map[string]LimitCheck `json:"checks"`
}

// UsageCounters mirrors the persisted usage period with the daily counter
// already rolled over.
type UsageCounters struct {
	ReportsGenerated    int `json:"reportsGenerated"`
	ChatMessagesPremium int `json:"chatMessagesPremium"`
	ChatMessagesFree    int `json:"chatMessagesFree"`
	WebSearches         int `json:"webSearches"`
	DailyChatCount      int `json:"dailyChatCount"`
	VoiceMinutesUsed    int `json:"voiceMinutesUsed"`
	SMSMessagesSent     int `json:"smsMessagesSent"`
}

// NewService builds the engine. Resolver and UsageRepo are required.
func NewService(params ServiceParams) (*Service, error) {
	if params.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if params.UsageRepo == nil {
		return nil, fmt.Errorf("usage repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		resolver: params.Resolver,
		usage:    params.UsageRepo,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// CheckReport decides whether the user may generate another report.
func (s *Service) CheckReport(ctx context.Context, userID string) (enums.Tier, LimitCheck, error) {
	tier, period, err := s.load(ctx, userID)
	if err != nil {
		return enums.TierFree, LimitCheck{}, err
	}
	return tier, CheckReportLimit(tier, period), nil
}

// CheckChat decides whether the user may send a chat message and which model
// serves it.
func (s *Service) CheckChat(ctx context.Context, userID string) (enums.Tier, ChatLimitCheck, error) {
	tier, period, err := s.load(ctx, userID)
	if err != nil {
		return enums.TierFree, ChatLimitCheck{Model: enums.FreeModelID}, err
	}
	return tier, CheckChatLimit(tier, period, usage.DayKey(s.now())), nil
}

// CheckWebSearch decides whether the user may run another web search.
func (s *Service) CheckWebSearch(ctx context.Context, userID string) (enums.Tier, LimitCheck, error) {
	tier, period, err := s.load(ctx, userID)
	if err != nil {
		return enums.TierFree, LimitCheck{}, err
	}
	return tier, CheckWebSearchLimit(tier, period), nil
}

// AgentAccess reports whether the user's tier includes agents.
func (s *Service) AgentAccess(ctx context.Context, userID string) bool {
	tier := s.resolver.ResolveTier(ctx, userID)
	return CheckAgentAccess(tier)
}

// Stats assembles the usage dashboard payload for the user.
func (s *Service) Stats(ctx context.Context, userID string) (UsageStats, error) {
	now := s.now()
	tier := s.resolver.ResolveTier(ctx, userID)

	period, err := s.usage.Find(ctx, userID, usage.MonthKey(now))
	if err != nil {
		return UsageStats{}, fmt.Errorf("load usage period: %w", err)
	}

	today := usage.DayKey(now)
	counters := UsageCounters{}
	if period != nil {
		counters = UsageCounters{
			ReportsGenerated:    period.ReportsGenerated,
			ChatMessagesPremium: period.ChatMessagesPremium,
			ChatMessagesFree:    period.ChatMessagesFree,
			WebSearches:         period.WebSearches,
			VoiceMinutesUsed:    period.VoiceMinutesUsed,
			SMSMessagesSent:     period.SMSMessagesSent,
		}
		if period.LastChatDate != nil && *period.LastChatDate == today {
			counters.DailyChatCount = period.DailyChatCount
		}
	}

	return UsageStats{
		Tier:   tier,
		Usage:  counters,
		Limits: LimitsFor(tier),
		Chat:   CheckChatLimit(tier, period, today),
		Checks: map[string]LimitCheck{
			"reports":      CheckReportLimit(tier, period),
			"webSearches":  CheckWebSearchLimit(tier, period),
			"voiceMinutes": CheckVoiceMinutesLimit(tier, period),
			"smsMessages":  CheckSMSLimit(tier, period),
		},
	}, nil
}

func (s *Service) load(ctx context.Context, userID string) (enums.Tier, *models.UsagePeriod, error) {
	tier := s.resolver.ResolveTier(ctx, userID)

	period, err := s.usage.GetOrCreate(ctx, userID, usage.MonthKey(s.now()))
	if err != nil {
		return tier, nil, fmt.Errorf("load usage period: %w", err)
	}
	return tier, period, nil
}
