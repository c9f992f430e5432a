package middleware

import (
	"net/http"
)

// apiSecurityHeaders are set on every response. The API never serves HTML,
// so the content security policy denies everything.
var apiSecurityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	// Schedules depend on the day they were computed for
	"Cache-Control": "no-store",
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets security headers on all responses
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range apiSecurityHeaders {
				h.Set(name, value)
			}

			// HSTS only over TLS so local plain-HTTP development keeps working
			if enableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", hstsValue)
			}

			next.ServeHTTP(w, r)
		})
	}
}
