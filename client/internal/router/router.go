package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/imgr-dev/imgr/client/internal/setup"
	mw "github.com/imgr-dev/imgr/shared/middleware"
	"github.com/imgr-dev/imgr/shared/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New builds the bridge router. Mutating intents share one per-client
// token bucket; reads are not limited.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.Bridge.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", deps.Handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	h := deps.Handler
	limited := mw.RateLimitByIP(deps.RateLimiter)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.SecurityHeadersWithCSP(false, mw.APIContentSecurityPolicy))

		r.Get("/health", h.Health)

		r.Get("/feed", h.GetFeed)
		r.Put("/feed/search", h.Search)
		r.Delete("/feed/search", h.ClearSearch)

		r.Get("/threads/{id}", h.GetThread)
		r.Get("/compose", h.GetCompose)
		r.Get("/auth/me", h.Me)

		// state resets are local and never hit the backend
		r.Delete("/feed/delete_state", h.ResetFeedDelete)
		r.Delete("/threads/{id}/ops", h.ResetDetailOps)
		r.Delete("/compose", h.ResetCompose)
		r.Delete("/auth/ops", h.ResetAccountOps)

		r.Group(func(r chi.Router) {
			r.Use(limited)

			r.Post("/feed/refresh", h.RefreshFeed)
			r.Post("/feed/more", h.LoadMore)
			r.Delete("/threads/{id}", h.DeleteThread)
			r.Post("/threads/{id}/comments", h.PostComment)
			r.Delete("/threads/{id}/comments/{commentId}", h.DeleteComment)
			r.Post("/threads", h.CreateThread)
			r.Post("/threads/inspect", h.InspectImage)

			r.Post("/auth/signup", h.SignUp)
			r.Post("/auth/signin", h.SignIn)
			r.Post("/auth/signout", h.SignOut)
			r.Post("/auth/reset", h.SendPasswordReset)
			r.Post("/auth/refresh", h.RefreshSession)
			r.Put("/auth/stay_logged_in", h.SetStayLoggedIn)
		})
	})

	if h.HasMedia() {
		r.Get("/media/{name}", h.GetMedia)
	}

	return r
}
