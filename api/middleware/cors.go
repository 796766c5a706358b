package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsPreflightMaxAge = 300

// Browser origins allowed to call the API with credentials. The Stripe
// webhook route is server-to-server and never hits this policy.
var allowedOrigins = []string{
	"http://localhost:3000",          // local dev
	"https://app.roofline.ai",        // production app
	"https://roofline-ai.vercel.app", // Vercel preview
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           corsPreflightMaxAge,
	}
	return cors.New(opts).Handler
}
