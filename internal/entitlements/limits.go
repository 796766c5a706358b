package entitlements

import (
	"github.com/roofline-ai/roofline-backend/pkg/enums"
)

// Unlimited marks a counter with no cap. A zero limit means the feature is
// gated off for the tier entirely.
const Unlimited = -1

// TierLimits is the full entitlement table for one tier.
type TierLimits struct {
	Reports             int  `json:"reports"`
	ChatMessagesDaily   int  `json:"chatMessagesDaily"`
	ChatMessagesMonthly int  `json:"chatMessagesMonthly"`
	WebSearches         int  `json:"webSearches"`
	Agents              bool `json:"agents"`

	VoiceMinutes        int  `json:"voiceMinutes"`
	SMSMessages         int  `json:"smsMessages"`
	FollowUpSequences   int  `json:"followUpSequences"`
	CRMContacts         int  `json:"crmContacts"`
	ActiveJobs          int  `json:"activeJobs"`
	CrewManagement      bool `json:"crewManagement"`
	InvoicePayments     bool `json:"invoicePayments"`
	ReviewManagement    bool `json:"reviewManagement"`
	TwoWayConversations bool `json:"twoWayConversations"`
	SpeedToLead         bool `json:"speedToLead"`
	KnowledgeBaseItems  int  `json:"knowledgeBaseItems"`
}

var tierLimits = map[enums.Tier]TierLimits{
	enums.TierFree: {
		Reports:             1,
		ChatMessagesDaily:   5,
		ChatMessagesMonthly: Unlimited,
		WebSearches:         0,
		Agents:              false,
	},
	enums.TierPremium: {
		Reports:             20,
		ChatMessagesDaily:   Unlimited,
		ChatMessagesMonthly: 1000,
		WebSearches:         50,
		Agents:              true,
		FollowUpSequences:   1,
		CRMContacts:         100,
		ActiveJobs:          20,
		KnowledgeBaseItems:  50,
	},
	enums.TierBusiness: {
		Reports:             100,
		ChatMessagesDaily:   Unlimited,
		ChatMessagesMonthly: 5000,
		WebSearches:         250,
		Agents:              true,
		FollowUpSequences:   1,
		CRMContacts:         100,
		ActiveJobs:          20,
		KnowledgeBaseItems:  50,
	},
	enums.TierAIEmployee: {
		Reports:             Unlimited,
		ChatMessagesDaily:   Unlimited,
		ChatMessagesMonthly: Unlimited,
		WebSearches:         Unlimited,
		Agents:              true,
		VoiceMinutes:        500,
		SMSMessages:         1000,
		FollowUpSequences:   Unlimited,
		CRMContacts:         Unlimited,
		ActiveJobs:          Unlimited,
		CrewManagement:      true,
		InvoicePayments:     true,
		ReviewManagement:    true,
		TwoWayConversations: true,
		SpeedToLead:         true,
		KnowledgeBaseItems:  Unlimited,
	},
}

// LimitsFor returns the entitlement table for a tier. Unknown tiers get the
// free tier's table so nothing new is granted by accident.
func LimitsFor(tier enums.Tier) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[enums.TierFree]
}
