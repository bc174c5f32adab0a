package middleware

import (
	"net/http"

	"github.com/imgr-dev/imgr/shared/middleware/ratelimiter"
	"github.com/imgr-dev/imgr/shared/utils"
)

// RateLimit rejects requests with 429 once the identity's bucket is empty.
func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				utils.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded, try again later"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP keys the limiter on the caller's address.
func RateLimitByIP(rl *ratelimiter.UserRateLimiter) func(http.Handler) http.Handler {
	return RateLimit(rl, utils.GetIP)
}
