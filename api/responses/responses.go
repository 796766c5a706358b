// Package responses renders the JSON envelopes every handler replies with.
// Success bodies are wrapped in {"data": ...}; failures go through WriteError
// so that internal errors never leak their message to the client.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/roofline-ai/roofline-backend/pkg/errors"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/types"
)

// safeMessageCodes are the codes whose internal message is already written
// for the caller. Everything else falls back to the code's canned public
// message.
var safeMessageCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeQuotaExceeded: true,
	pkgerrors.CodeRateLimit:     true,
	pkgerrors.CodeProvider:      true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError maps err onto the error envelope and status code for its code.
// Untyped errors are treated as internal so their message stays server-side.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	logFailure(ctx, logg, err)
	writeJSON(w, typed.HTTPStatus(), types.ErrorEnvelope{Error: publicError(typed)})
}

func publicError(typed *pkgerrors.Error) types.APIError {
	meta := pkgerrors.MetadataFor(typed.Code())

	out := types.APIError{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
	}
	if safeMessageCodes[typed.Code()] {
		if m := typed.Message(); m != "" {
			out.Message = m
		}
	}
	if meta.DetailsAllowed {
		out.Details = typed.Details()
	}
	return out
}

func logFailure(ctx context.Context, logg *logger.Logger, err error) {
	if logg == nil {
		return
	}

	dump := pkgerrors.Dump(err)
	ctx = logg.WithFields(ctx, map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
		"pg_code":     dump.PGCode,
		"pg_detail":   dump.PGDetail,
		"pg_message":  dump.PGMessage,
		"pg_table":    dump.PGTable,
	})
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
