package controllers

import (
	"net/http"
	"time"

	"github.com/roofline-ai/roofline-backend/api/middleware"
	"github.com/roofline-ai/roofline-backend/api/responses"
	"github.com/roofline-ai/roofline-backend/internal/entitlements"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/types"
)

// SearchCheck gates a web search the same way ReportsCheck gates a report.
// Free tier has no search budget at all, so the denial points at upgrading.
func SearchCheck(engine *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
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

		tier, check, err := engine.CheckWebSearch(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !check.Allowed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "Web search limit reached. Upgrade for more searches.").
				WithDetails(types.QuotaDenial{
					Limit:           int64(check.Limit),
					CurrentUsage:    int64(check.Limit - check.Remaining),
					Remaining:       int64(check.Remaining),
					UpgradeRequired: true,
					Tier:            string(tier),
				}))
			return
		}
		responses.WriteSuccess(w, limitDecision{
			Allowed:   true,
			Remaining: check.Remaining,
			Limit:     check.Limit,
			Tier:      string(tier),
		})
	}
}

// SearchTrack records one completed web search.
func SearchTrack(tracker usageTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if tracker == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "usage tracker unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		now := time.Now()
		queued := tracker.Enqueue(usage.Event{
			UserID: userID,
			Month:  usage.MonthKey(now),
			Day:    usage.DayKey(now),
			Kind:   usage.EventWebSearch,
		})
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"queued": queued})
	}
}
