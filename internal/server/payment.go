package server

import (
	"net/http"
	"strings"

	"github.com/movementfi/moveyield/internal/metrics"
)

// RequirePayment rejects requests without an x-payment header. Agent
// discovery stays open: any path carrying the well-known card segment
// passes through unchecked so clients can read the card before paying.
func RequirePayment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.Contains(path, "/.well-known/agent.json") ||
			strings.Contains(path, "/.well-known/agent-card.json") {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("x-payment") == "" {
			metrics.PaymentRejectedTotal.Inc()
			writeJSON(w, http.StatusPaymentRequired, map[string]string{
				"error":   "Payment Required",
				"message": "x-payment header is required to access this endpoint",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
