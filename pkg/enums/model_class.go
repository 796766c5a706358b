package enums

import "fmt"

// ModelClass is the cost/quality category a chat request is routed to,
// independent of the specific provider.
type ModelClass string

const (
	ModelClassPremium ModelClass = "premium"
	ModelClassFree    ModelClass = "free"
)

// Concrete model IDs backing each class.
const (
	PremiumModelID = "gpt-5-mini"
	FreeModelID    = "gpt-4o"
)

// String implements fmt.Stringer.
func (m ModelClass) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m ModelClass) IsValid() bool {
	return m == ModelClassPremium || m == ModelClassFree
}

// ModelID returns the concrete model identifier for the class.
func (m ModelClass) ModelID() string {
	if m == ModelClassPremium {
		return PremiumModelID
	}
	return FreeModelID
}

// ParseModelClass converts raw input into a ModelClass.
func ParseModelClass(value string) (ModelClass, error) {
	switch ModelClass(value) {
	case ModelClassPremium:
		return ModelClassPremium, nil
	case ModelClassFree:
		return ModelClassFree, nil
	}
	return "", fmt.Errorf("invalid model class %q", value)
}
