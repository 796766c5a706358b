package enums

import (
	"fmt"
	"strings"
)

// Tier is a named subscription level governing feature limits.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierBusiness   Tier = "business"
	TierAIEmployee Tier = "ai_employee"
)

var validTiers = []Tier{
	TierFree,
	TierPremium,
	TierBusiness,
	TierAIEmployee,
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t Tier) IsValid() bool {
	for _, candidate := range validTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsPaid reports whether the tier is a paid plan.
func (t Tier) IsPaid() bool {
	return t.IsValid() && t != TierFree
}

// ParseTier converts raw input into a Tier.
func ParseTier(value string) (Tier, error) {
	for _, candidate := range validTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier %q", value)
}

// NormalizeTier maps billing plan-type spellings onto their base tier.
// Plan types carry interval suffixes ("premium_monthly", "business_annual")
// and the AI employee plan appears with both underscore and hyphen spellings.
// Unrecognized input normalizes to free.
func NormalizeTier(raw string) Tier {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return TierFree
	}

	switch {
	case strings.HasPrefix(normalized, "ai_employee"), strings.HasPrefix(normalized, "ai-employee"):
		return TierAIEmployee
	case strings.HasPrefix(normalized, "business"):
		return TierBusiness
	case strings.HasPrefix(normalized, "premium"):
		return TierPremium
	}

	if tier, err := ParseTier(normalized); err == nil {
		return tier
	}
	return TierFree
}
