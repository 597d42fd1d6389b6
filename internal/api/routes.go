package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the route-level auth settings.
type RouterConfig struct {
	SessionSecret string
	// ManagerEmails is the allow-list for manager-only routes.
	ManagerEmails []string
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.SessionSecret))

			r.Route("/jira", func(r chi.Router) {
				r.Get("/sprint", h.GetSprintProgress)
				r.Get("/due-soon", h.GetDueSoon)
				r.Get("/needs-reply", h.GetNeedsReply)
				r.Get("/releases", h.GetReleases)
				r.Get("/search", h.SearchIssues)
			})

			r.Route("/builds", func(r chi.Router) {
				r.Get("/github", h.GetGitHubBuilds)
				r.Get("/codemagic", h.GetCodemagicBuilds)
				r.Post("/codemagic/public-url", h.CreateArtifactPublicURL)
			})

			r.Route("/kudos", func(r chi.Router) {
				r.Get("/", h.ListKudos)
				r.Post("/", h.CreateKudos)
			})

			r.Route("/bounties", func(r chi.Router) {
				r.Get("/", h.ListBounties)
				r.Post("/", h.CreateBounty)
				r.Patch("/{id}", h.UpdateBounty)
			})

			r.Route("/calendar/events", func(r chi.Router) {
				r.Get("/", h.ListEvents)
				r.Post("/", h.CreateEvent)
				r.Put("/{id}", h.UpdateEvent)
				r.Delete("/{id}", h.DeleteEvent)
			})

			r.Route("/feedback", func(r chi.Router) {
				r.Get("/", h.ListFeedback)
				r.Post("/", h.CreateFeedback)
				r.Patch("/{id}/resolve", h.ResolveFeedback)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Get("/{id}/avatar", h.GetUserAvatar)
			})

			// Manager-only routes
			r.Group(func(r chi.Router) {
				r.Use(ManagerOnly(cfg.ManagerEmails))
				r.Get("/grooming", h.GetGroomingReport)
			})
		})
	})

	return r
}
