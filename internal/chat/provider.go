package chat

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
)

// OpenAI-compatible base URLs for the non-OpenAI providers.
const (
	googleBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	groqBaseURL       = "https://api.groq.com/openai/v1"
	mistralBaseURL    = "https://api.mistral.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	perplexityBaseURL = "https://api.perplexity.ai"
	xaiBaseURL        = "https://api.x.ai/v1"
)

// Stream is the subset of the completion stream the gateway consumes.
type Stream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// StreamOpener opens a streaming completion against a provider.
type StreamOpener interface {
	OpenStream(ctx context.Context, provider enums.Provider, req openai.ChatCompletionRequest) (Stream, error)
}

// Registry builds one OpenAI-compatible client per configured provider.
// Every provider here speaks the OpenAI wire protocol, so a single SDK
// covers all of them with per-provider base URLs.
type Registry struct {
	cfg config.ProvidersConfig

	mu      sync.Mutex
	clients map[enums.Provider]*openai.Client
}

// NewRegistry builds a provider registry from configuration. Clients are
// created lazily so unconfigured providers only fail when requested.
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	return &Registry{
		cfg:     cfg,
		clients: make(map[enums.Provider]*openai.Client),
	}
}

// ClientFor returns the SDK client for the provider, building it on first use.
func (r *Registry) ClientFor(provider enums.Provider) (*openai.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[provider]; ok {
		return client, nil
	}

	clientCfg, err := r.configFor(provider)
	if err != nil {
		return nil, err
	}

	client := openai.NewClientWithConfig(clientCfg)
	r.clients[provider] = client
	return client, nil
}

// OpenStream implements StreamOpener against the real provider APIs.
func (r *Registry) OpenStream(ctx context.Context, provider enums.Provider, req openai.ChatCompletionRequest) (Stream, error) {
	client, err := r.ClientFor(provider)
	if err != nil {
		return nil, err
	}
	return client.CreateChatCompletionStream(ctx, req)
}

func (r *Registry) configFor(provider enums.Provider) (openai.ClientConfig, error) {
	switch provider {
	case enums.ProviderOpenAI:
		if r.cfg.OpenAIAPIKey == "" {
			return openai.ClientConfig{}, missingKeyError(provider)
		}
		cfg := openai.DefaultConfig(r.cfg.OpenAIAPIKey)
		cfg.OrgID = r.cfg.OpenAIOrgID
		return cfg, nil

	case enums.ProviderAzure:
		if r.cfg.AzureAPIKey == "" || r.cfg.AzureEndpoint == "" {
			return openai.ClientConfig{}, missingKeyError(provider)
		}
		return openai.DefaultAzureConfig(r.cfg.AzureAPIKey, r.cfg.AzureEndpoint), nil

	case enums.ProviderGoogle:
		return r.baseURLConfig(r.cfg.GoogleAPIKey, googleBaseURL, provider)
	case enums.ProviderGroq:
		return r.baseURLConfig(r.cfg.GroqAPIKey, groqBaseURL, provider)
	case enums.ProviderMistral:
		return r.baseURLConfig(r.cfg.MistralAPIKey, mistralBaseURL, provider)
	case enums.ProviderOpenRouter:
		return r.baseURLConfig(r.cfg.OpenRouterAPIKey, openRouterBaseURL, provider)
	case enums.ProviderPerplexity:
		return r.baseURLConfig(r.cfg.PerplexityAPIKey, perplexityBaseURL, provider)
	case enums.ProviderXAI:
		return r.baseURLConfig(r.cfg.XAIAPIKey, xaiBaseURL, provider)

	default:
		return openai.ClientConfig{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown provider %q", provider))
	}
}

func (r *Registry) baseURLConfig(apiKey, baseURL string, provider enums.Provider) (openai.ClientConfig, error) {
	if apiKey == "" {
		return openai.ClientConfig{}, missingKeyError(provider)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return cfg, nil
}

func missingKeyError(provider enums.Provider) error {
	return pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("%s API key not configured", provider))
}
