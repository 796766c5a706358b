package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/roofline-ai/roofline-backend/internal/entitlements"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/metrics"
	"github.com/roofline-ai/roofline-backend/pkg/types"
)

// Request is the chat payload accepted from clients.
type Request struct {
	Messages    []Message `json:"messages" validate:"required,min=1,dive"`
	Model       string    `json:"model,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"maxTokens,omitempty" validate:"omitempty,min=1,max=32768"`
}

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// StreamChunk is one SSE payload sent to the client.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Model   string `json:"model,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// ServiceParams carries the gateway's dependencies.
type ServiceParams struct {
	Entitlements *entitlements.Service
	Opener       StreamOpener
	Tracker      *usage.Tracker
	Metrics      *metrics.UsageMetrics
	Logger       *logger.Logger
	Now          func() time.Time
}

// Service is the chat gateway: entitlement check, prompt injection, provider
// streaming, and detached usage tracking.
type Service struct {
	entitlements *entitlements.Service
	opener       StreamOpener
	tracker      *usage.Tracker
	metrics      *metrics.UsageMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the gateway. Entitlements and Opener are required.
func NewService(params ServiceParams) (*Service, error) {
	if params.Entitlements == nil {
		return nil, fmt.Errorf("entitlements service is required")
	}
	if params.Opener == nil {
		return nil, fmt.Errorf("stream opener is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		entitlements: params.Entitlements,
		opener:       params.Opener,
		tracker:      params.Tracker,
		metrics:      params.Metrics,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// Stream runs the full gateway flow and writes an SSE stream to w.
//
// The entitlement check happens before the provider is touched: a blocked
// free user gets a quota error and no upstream call. Usage is tracked the
// moment the upstream stream is established, not when it finishes, so a
// client hanging up mid-answer still consumes a message.
func (s *Service) Stream(ctx context.Context, w http.ResponseWriter, userID string, provider enums.Provider, req Request) error {
	tier, check, err := s.entitlements.CheckChat(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "entitlement check failed")
	}

	if !check.Allowed {
		return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "Daily chat limit reached. Upgrade for unlimited chat.").
			WithDetails(types.QuotaDenial{
				Limit:           int64(check.Limit),
				CurrentUsage:    int64(check.Limit - check.Remaining),
				Remaining:       int64(check.Remaining),
				UpgradeRequired: true,
				Tier:            string(tier),
			})
	}

	model := check.Model
	if req.Model != "" && !check.SwitchedToFreeModel && tier != enums.TierFree {
		model = req.Model
	}

	upstream := openai.ChatCompletionRequest{
		Model:    model,
		Messages: injectSystemPrompt(toOpenAIMessages(req.Messages)),
		Stream:   true,
	}
	if req.Temperature != nil {
		upstream.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		upstream.MaxTokens = req.MaxTokens
	}

	stream, err := s.opener.OpenStream(ctx, provider, upstream)
	if err != nil {
		return s.providerError(provider, err)
	}
	defer stream.Close()

	if check.SwitchedToFreeModel {
		s.metrics.IncModelDowngrade(string(tier))
	}
	s.metrics.IncChatRequest(string(provider), modelClass(model))
	s.track(userID, check)

	if s.logg != nil {
		lctx := s.logg.WithProvider(s.logg.WithTier(s.logg.WithUserID(ctx, userID), string(tier)), string(provider))
		s.logg.Info(lctx, "chat stream established")
	}

	return s.pump(ctx, w, stream, model)
}

// track enqueues the usage increment. Fire and forget: a full queue is
// logged and counted but never fails the request.
//
// The tracked class comes from the entitlement decision, not the dispatched
// model, so a paid subscriber overriding the model still burns the monthly
// premium budget.
func (s *Service) track(userID string, check entitlements.ChatLimitCheck) {
	if s.tracker == nil {
		return
	}
	now := s.now()
	s.tracker.Enqueue(usage.Event{
		UserID:  userID,
		Month:   usage.MonthKey(now),
		Day:     usage.DayKey(now),
		Kind:    usage.EventChat,
		Premium: check.Model == enums.PremiumModelID && !check.SwitchedToFreeModel,
	})
}

func (s *Service) pump(ctx context.Context, w http.ResponseWriter, stream Stream, model string) error {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	writeChunk(w, flusher, StreamChunk{Model: model})

	for {
		select {
		case <-ctx.Done():
			// client went away; usage is already tracked
			return nil
		default:
		}

		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			writeChunk(w, flusher, StreamChunk{Done: true})
			return nil
		}
		if err != nil {
			// headers are sent; log and end the stream
			if s.logg != nil {
				s.logg.Error(ctx, "chat stream interrupted", err)
			}
			writeChunk(w, flusher, StreamChunk{Done: true})
			return nil
		}

		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			writeChunk(w, flusher, StreamChunk{Content: resp.Choices[0].Delta.Content})
		}
	}
}

// providerError maps upstream failures onto coded errors, passing through
// the provider's HTTP status when the SDK surfaces one.
func (s *Service) providerError(provider enums.Provider, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeProvider, err, fmt.Sprintf("%s request failed: %s", provider, apiErr.Message))
		if apiErr.HTTPStatusCode > 0 {
			wrapped = wrapped.WithHTTPStatus(apiErr.HTTPStatusCode)
		}
		return wrapped
	}

	return pkgerrors.Wrap(pkgerrors.CodeProvider, err, fmt.Sprintf("%s request failed", provider))
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func modelClass(model string) string {
	if model == enums.PremiumModelID {
		return string(enums.ModelClassPremium)
	}
	return string(enums.ModelClassFree)
}

func writeChunk(w io.Writer, flusher http.Flusher, chunk StreamChunk) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if flusher != nil {
		flusher.Flush()
	}
}
