package enums

import "fmt"

// Provider identifies a supported LLM backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAzure      Provider = "azure"
	ProviderGoogle     Provider = "google"
	ProviderGroq       Provider = "groq"
	ProviderMistral    Provider = "mistral"
	ProviderOpenRouter Provider = "openrouter"
	ProviderPerplexity Provider = "perplexity"
	ProviderXAI        Provider = "xai"
)

var validProviders = []Provider{
	ProviderOpenAI,
	ProviderAzure,
	ProviderGoogle,
	ProviderGroq,
	ProviderMistral,
	ProviderOpenRouter,
	ProviderPerplexity,
	ProviderXAI,
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p Provider) IsValid() bool {
	for _, candidate := range validProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProvider converts raw input into a Provider.
func ParseProvider(value string) (Provider, error) {
	for _, candidate := range validProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provider %q", value)
}

// Providers returns all supported providers.
func Providers() []Provider {
	out := make([]Provider, len(validProviders))
	copy(out, validProviders)
	return out
}
