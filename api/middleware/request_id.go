package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roofline-ai/roofline-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id and echoes it back in the response
// headers. A caller-supplied id is honored only when it parses as a UUID so
// clients cannot inject arbitrary strings into log fields.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqID := requestID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func requestID(r *http.Request) string {
	if supplied := r.Header.Get(requestIDHeader); supplied != "" {
		if _, err := uuid.Parse(supplied); err == nil {
			return supplied
		}
	}
	return uuid.NewString()
}
