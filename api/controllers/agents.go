package controllers

import (
	"net/http"

	"github.com/roofline-ai/roofline-backend/api/middleware"
	"github.com/roofline-ai/roofline-backend/api/responses"
	"github.com/roofline-ai/roofline-backend/internal/entitlements"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

// AgentsAccess reports whether the caller's tier includes autonomous
// agents. Boolean gate only; there is no counter to report.
func AgentsAccess(engine *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement engine unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		responses.WriteSuccess(w, map[string]bool{"allowed": engine.AgentAccess(ctx, userID)})
	}
}
