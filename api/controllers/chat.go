package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roofline-ai/roofline-backend/api/middleware"
	"github.com/roofline-ai/roofline-backend/api/responses"
	"github.com/roofline-ai/roofline-backend/api/validators"
	"github.com/roofline-ai/roofline-backend/internal/chat"
	"github.com/roofline-ai/roofline-backend/pkg/enums"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

// Model overrides longer than this are junk input, not real model names.
const maxModelNameLen = 64

// Chat streams a completion from the provider named in the URL. Errors
// raised before the stream opens come back as JSON; once SSE bytes are on
// the wire the gateway owns the connection.
func Chat(svc *chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		provider, err := enums.ParseProvider(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown provider"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload chat.Request
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload.Model = validators.SanitizeString(payload.Model, maxModelNameLen)

		if logg != nil {
			ctx = logg.WithProvider(ctx, string(provider))
		}
		if err := svc.Stream(ctx, w, userID, provider, payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
		}
	}
}
