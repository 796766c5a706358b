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

// usageTracker is the async increment queue the track endpoints feed.
type usageTracker interface {
	Enqueue(ev usage.Event) bool
}

type limitDecision struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Tier      string `json:"tier"`
}

// ReportsCheck gates report generation. The caller asks before doing the
// work; a blocked answer carries the quota details the client renders.
func ReportsCheck(engine *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
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

		tier, check, err := engine.CheckReport(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !check.Allowed {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "Report limit reached. Upgrade for more reports.").
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

// ReportsTrack records one generated report. The increment is queued, not
// written inline, so the caller is never stalled behind the database.
func ReportsTrack(tracker usageTracker, logg *logger.Logger) http.HandlerFunc {
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
			Kind:   usage.EventReport,
		})
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"queued": queued})
	}
}
