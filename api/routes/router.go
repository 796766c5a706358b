package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roofline-ai/roofline-backend/api/controllers"
	webhookcontrollers "github.com/roofline-ai/roofline-backend/api/controllers/webhooks"
	"github.com/roofline-ai/roofline-backend/api/middleware"
	"github.com/roofline-ai/roofline-backend/internal/chat"
	"github.com/roofline-ai/roofline-backend/internal/entitlements"
	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	stripewebhook "github.com/roofline-ai/roofline-backend/internal/webhooks/stripe"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/redis"
	"github.com/roofline-ai/roofline-backend/pkg/stripe"
)

// NewRouter wires the full HTTP surface: health and metrics, the public
// Stripe webhook, and the authenticated entitlement and chat routes.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	chatService *chat.Service,
	engine *entitlements.Service,
	resolver *subscriptions.Resolver,
	tracker *usage.Tracker,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["database"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/chat/{provider}", controllers.Chat(chatService, logg))
		r.Get("/usage", controllers.UsageStats(engine, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Post("/check", controllers.ReportsCheck(engine, logg))
			r.Post("/track", controllers.ReportsTrack(tracker, logg))
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/check", controllers.SearchCheck(engine, logg))
			r.Post("/track", controllers.SearchTrack(tracker, logg))
		})

		r.Get("/agents/access", controllers.AgentsAccess(engine, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Get("/grace-period", controllers.BillingGracePeriod(resolver, logg))
			r.Get("/cancellation", controllers.BillingCancellation(resolver, logg))
			r.Get("/downgrade", controllers.BillingDowngrade(resolver, logg))
		})
	})

	return r
}
