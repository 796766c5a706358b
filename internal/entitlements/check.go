package entitlements

import (
	"github.com/roofline-ai/roofline-backend/pkg/db/models"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

// LimitCheck is the outcome of a single counter check.
type LimitCheck struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// ChatLimitCheck adds model selection to a chat check. Paid tiers are never
// hard-blocked on chat: exhausting the premium budget degrades to the free
// model instead.
type ChatLimitCheck struct {
	LimitCheck
	Model               string `json:"model"`
	SwitchedToFreeModel bool   `json:"switchedToFreeModel,omitempty"`
}

// CheckReportLimit decides whether another report may be generated this month.
func CheckReportLimit(tier enums.Tier, usage *models.UsagePeriod) LimitCheck {
	limits := LimitsFor(tier)
	used := 0
	if usage != nil {
		used = usage.ReportsGenerated
	}
	return checkCounter(used, limits.Reports)
}

// CheckChatLimit decides whether a chat message may be sent and which model
// serves it.
//
// Free tier: a hard daily cap on the free model, counted only while the
// stored last chat date matches today. Premium and business: a monthly
// premium-model budget, then unlimited free-model messages. AI employee:
// unlimited premium-model messages.
func CheckChatLimit(tier enums.Tier, usage *models.UsagePeriod, today string) ChatLimitCheck {
	limits := LimitsFor(tier)

	switch tier {
	case enums.TierFree:
		daily := 0
		if usage != nil && usage.LastChatDate != nil && *usage.LastChatDate == today {
			daily = usage.DailyChatCount
		}
		check := checkCounter(daily, limits.ChatMessagesDaily)
		return ChatLimitCheck{LimitCheck: check, Model: enums.FreeModelID}

	case enums.TierPremium, enums.TierBusiness:
		used := 0
		if usage != nil {
			used = usage.ChatMessagesPremium
		}
		limit := limits.ChatMessagesMonthly
		if used < limit {
			return ChatLimitCheck{
				LimitCheck: LimitCheck{Allowed: true, Remaining: limit - used, Limit: limit},
				Model:      enums.PremiumModelID,
			}
		}
		return ChatLimitCheck{
			LimitCheck:          LimitCheck{Allowed: true, Remaining: 0, Limit: limit},
			Model:               enums.FreeModelID,
			SwitchedToFreeModel: true,
		}

	case enums.TierAIEmployee:
		return ChatLimitCheck{
			LimitCheck: LimitCheck{Allowed: true, Remaining: Unlimited, Limit: Unlimited},
			Model:      enums.PremiumModelID,
		}
	}

	// unknown tier fails closed
	return ChatLimitCheck{Model: enums.FreeModelID}
}

// CheckWebSearchLimit decides whether a web search may run this month.
// Web search is gated off entirely for the free tier.
func CheckWebSearchLimit(tier enums.Tier, usage *models.UsagePeriod) LimitCheck {
	limits := LimitsFor(tier)
	if tier == enums.TierFree || limits.WebSearches == 0 {
		return LimitCheck{Allowed: false, Remaining: 0, Limit: 0}
	}
	used := 0
	if usage != nil {
		used = usage.WebSearches
	}
	return checkCounter(used, limits.WebSearches)
}

// CheckAgentAccess reports whether the tier may use agents at all.
func CheckAgentAccess(tier enums.Tier) bool {
	return LimitsFor(tier).Agents
}

// CheckVoiceMinutesLimit decides whether another voice minute may be consumed.
func CheckVoiceMinutesLimit(tier enums.Tier, usage *models.UsagePeriod) LimitCheck {
	limits := LimitsFor(tier)
	if limits.VoiceMinutes == 0 {
		return LimitCheck{Allowed: false, Remaining: 0, Limit: 0}
	}
	used := 0
	if usage != nil {
		used = usage.VoiceMinutesUsed
	}
	return checkCounter(used, limits.VoiceMinutes)
}

// CheckSMSLimit decides whether another SMS may be sent.
func CheckSMSLimit(tier enums.Tier, usage *models.UsagePeriod) LimitCheck {
	limits := LimitsFor(tier)
	if limits.SMSMessages == 0 {
		return LimitCheck{Allowed: false, Remaining: 0, Limit: 0}
	}
	used := 0
	if usage != nil {
		used = usage.SMSMessagesSent
	}
	return checkCounter(used, limits.SMSMessages)
}

// CheckFeatureLimit checks a counted AI employee feature against its cap.
func CheckFeatureLimit(limit, used int) LimitCheck {
	if limit == 0 {
		return LimitCheck{Allowed: false, Remaining: 0, Limit: 0}
	}
	return checkCounter(used, limit)
}

func checkCounter(used, limit int) LimitCheck {
	if limit == Unlimited {
		return LimitCheck{Allowed: true, Remaining: Unlimited, Limit: Unlimited}
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return LimitCheck{Allowed: used < limit, Remaining: remaining, Limit: limit}
}
