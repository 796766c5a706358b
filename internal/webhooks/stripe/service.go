package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tierInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

type ServiceParams struct {
	SubsRepo          subscriptions.Repository
	StripeClient      subscriptions.StripeSubscriptionClient
	StripeConfig      config.StripeConfig
	TransactionRunner txRunner
	Invalidator       tierInvalidator
	Logger            *logger.Logger
}

// Service ingests Stripe billing events and keeps the local subscription
// rows in sync. Every write invalidates the tier cache so entitlement
// checks see the change on the next request.
type Service struct {
	subsRepo    subscriptions.Repository
	stripe      subscriptions.StripeSubscriptionClient
	stripeCfg   config.StripeConfig
	txRunner    txRunner
	invalidator tierInvalidator
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SubsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		subsRepo:    params.SubsRepo,
		stripe:      params.StripeClient,
		stripeCfg:   params.StripeConfig,
		txRunner:    params.TransactionRunner,
		invalidator: params.Invalidator,
		logg:        params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.syncSubscription(ctx, &stripeSub)

	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		if s.stripe == nil {
			return pkgerrors.New(pkgerrors.CodeConfiguration, "stripe client not configured")
		}
		stripeSub, err := s.stripe.Get(ctx, subscriptionID, &stripe.SubscriptionParams{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		return s.syncSubscription(ctx, stripeSub)

	default:
		return nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}

	var userID string
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subsRepo.WithTx(tx)

		stored, err := repo.FindByStripeSubscriptionID(ctx, stripeSub.ID)
		if err != nil {
			return err
		}

		userID, err = subscriptions.UserIDFromMetadata(stripeSub.Metadata)
		if err != nil {
			if stored == nil {
				return err
			}
			// replays of old events may miss metadata; fall back to the row
			userID = stored.UserID
		}

		if stored == nil {
			built, buildErr := subscriptions.BuildSubscriptionFromStripe(stripeSub, userID, s.stripeCfg)
			if buildErr != nil {
				return buildErr
			}
			return repo.Upsert(ctx, built)
		}

		if err := subscriptions.UpdateSubscriptionFromStripe(stored, stripeSub, s.stripeCfg); err != nil {
			return err
		}
		return repo.Upsert(ctx, stored)
	})
	if err != nil {
		return err
	}

	if s.invalidator != nil && userID != "" {
		s.invalidator.InvalidateUser(ctx, userID)
	}

	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"stripe_subscription_id": stripeSub.ID,
			"status":                 string(stripeSub.Status),
		})
		s.logg.Info(lctx, "subscription synced from stripe")
	}
	return nil
}
