// Package rest wires the chi router: global middleware, health probes, and
// the authenticated API route groups.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"holdthatthought-backend/interfaces/http/rest/handlers"
	"holdthatthought-backend/interfaces/http/rest/middleware"
	"holdthatthought-backend/pkg/auth"
)

// Handlers bundles the route handlers the router mounts
type Handlers struct {
	Comments  *handlers.CommentHandler
	Reactions *handlers.ReactionHandler
	Messages  *handlers.MessageHandler
	Profiles  *handlers.ProfileHandler
	Letters   *handlers.LetterHandler
	Media     *handlers.MediaHandler
	Admin     *handlers.AdminHandler
}

// Router creates and configures the HTTP router
type Router struct {
	handlers       Handlers
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(h Handlers, allowedOrigins []string, logger *zap.Logger) *Router {
	return &Router{handlers: h, allowedOrigins: allowedOrigins, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	ipLimiter := auth.NewIPRateLimiter(100)     // requests per minute per IP
	userLimiter := auth.NewUserRateLimiter(200) // requests per minute per user

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(ipLimiter, userLimiter))

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", rt.handlers.Comments.Create)
			r.Get("/", rt.handlers.Comments.ListByItem)
			r.Get("/mine", rt.handlers.Comments.ListMine)
			r.Get("/{itemID}/{commentID}", rt.handlers.Comments.Get)
			r.Put("/{itemID}/{commentID}", rt.handlers.Comments.Edit)
			r.Delete("/{itemID}/{commentID}", rt.handlers.Comments.Delete)
		})

		r.Route("/reactions", func(r chi.Router) {
			r.Post("/", rt.handlers.Reactions.Toggle)
			r.Get("/{commentID}", rt.handlers.Reactions.ListByComment)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/conversations", rt.handlers.Messages.StartConversation)
			r.Get("/conversations", rt.handlers.Messages.ListConversations)
			r.Get("/conversations/{conversationID}", rt.handlers.Messages.GetConversation)
			r.Post("/conversations/{conversationID}", rt.handlers.Messages.Send)
			r.Get("/conversations/{conversationID}/messages", rt.handlers.Messages.ListMessages)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", rt.handlers.Profiles.GetOwn)
			r.Patch("/", rt.handlers.Profiles.Update)
			r.Get("/{userID}", rt.handlers.Profiles.Get)
		})

		r.Route("/letters", func(r chi.Router) {
			r.Get("/", rt.handlers.Letters.List)
			r.Get("/{letterID}", rt.handlers.Letters.Get)
			r.Patch("/{letterID}", rt.handlers.Letters.Update)
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/uploads", rt.handlers.Media.CreateUpload)
			r.Get("/download", rt.handlers.Media.DownloadURL)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Get("/drafts", rt.handlers.Admin.ListDrafts)
			r.Get("/drafts/{draftID}", rt.handlers.Admin.GetDraft)
			r.Post("/drafts/{draftID}/approve", rt.handlers.Admin.ApproveDraft)
			r.Delete("/drafts/{draftID}", rt.handlers.Admin.RejectDraft)
			r.Post("/ingest", rt.handlers.Admin.Ingest)
			r.Delete("/letters/{letterID}", rt.handlers.Admin.DeleteLetter)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
