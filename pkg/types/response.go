package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// QuotaDenial is the payload attached to quota errors so clients can render
// upgrade prompts with the exact numbers that triggered the block.
type QuotaDenial struct {
	Limit           int64  `json:"limit"`
	CurrentUsage    int64  `json:"currentUsage"`
	Remaining       int64  `json:"remaining"`
	UpgradeRequired bool   `json:"upgradeRequired"`
	Tier            string `json:"tier,omitempty"`
}
