package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

type stubWebhookService struct {
	events []string
	err    error
}

func (s *stubWebhookService) HandleEvent(_ context.Context, event *stripe.Event) error {
	s.events = append(s.events, event.ID)
	return s.err
}

type stubVerifier struct {
	event stripe.Event
	err   error
}

func (s *stubVerifier) VerifyWebhook(_ []byte, _ string) (stripe.Event, error) {
	return s.event, s.err
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
	err     error
}

func (s *stubGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return true, nil
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(_ context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

func webhookRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	return req
}

func TestStripeWebhookProcessesEvent(t *testing.T) {
	svc := &stubWebhookService{}
	verifier := &stubVerifier{event: stripe.Event{ID: "evt_1"}}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, verifier, guard, nil)

	rec := httptest.NewRecorder()
	handler(rec, webhookRequest())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"evt_1"}, svc.events)
}

func TestStripeWebhookSkipsReplay(t *testing.T) {
	svc := &stubWebhookService{}
	verifier := &stubVerifier{event: stripe.Event{ID: "evt_1"}}
	guard := &stubGuard{seen: map[string]bool{"evt_1": true}}
	handler := StripeWebhook(svc, verifier, guard, nil)

	rec := httptest.NewRecorder()
	handler(rec, webhookRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, svc.events, "replayed event must not reach the service")
}

func TestStripeWebhookUnmarksOnFailure(t *testing.T) {
	svc := &stubWebhookService{err: errors.New("boom")}
	verifier := &stubVerifier{event: stripe.Event{ID: "evt_2"}}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, verifier, guard, nil)

	rec := httptest.NewRecorder()
	handler(rec, webhookRequest())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, []string{"evt_2"}, guard.deleted, "failed event must be unmarked for retry")
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{}
	verifier := &stubVerifier{err: errors.New("signature mismatch")}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, verifier, guard, nil)

	rec := httptest.NewRecorder()
	handler(rec, webhookRequest())

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, svc.events, "unverified event must not reach the service")
}

func TestStripeWebhookRequiresSignatureHeader(t *testing.T) {
	svc := &stubWebhookService{}
	verifier := &stubVerifier{event: stripe.Event{ID: "evt_3"}}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, verifier, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
