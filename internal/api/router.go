package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/moodgraph/backend/internal/auth"
	"github.com/moodgraph/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	authHandler   *AuthHandler
	followHandler *FollowHandler
	moodHandler   *MoodHandler
	healthHandler *HealthHandler
	hub           *FeedEventsHub
	jwtManager    *auth.JWTManager
	logger        *zap.Logger
}

// NewRouter creates a new router
func NewRouter(
	authHandler *AuthHandler,
	followHandler *FollowHandler,
	moodHandler *MoodHandler,
	healthHandler *HealthHandler,
	hub *FeedEventsHub,
	jwtManager *auth.JWTManager,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:   authHandler,
		followHandler: followHandler,
		moodHandler:   moodHandler,
		healthHandler: healthHandler,
		hub:           hub,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(chimiddleware.Compress(5))

	// Health endpoints (no auth required)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})

	// Auth routes (no auth required)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", rt.authHandler.Register)
		r.Post("/login", rt.authHandler.Login)
	})

	// API v1 (protected)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.jwtManager))

		r.Get("/me", rt.authHandler.Me)
		r.Get("/users/search", rt.authHandler.SearchUsers)

		r.Route("/follows/requests", func(r chi.Router) {
			r.Post("/", rt.followHandler.SendRequest)
			r.Get("/", rt.followHandler.ListIncoming)
			r.Post("/{id}/accept", rt.followHandler.Accept)
			r.Post("/{id}/decline", rt.followHandler.Decline)
		})

		r.Post("/moods", rt.moodHandler.PostMood)
		r.Get("/feed", rt.moodHandler.GetFeed)
	})

	// WebSocket attach (token via header or query param)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.jwtManager))
		r.Get("/ws", rt.hub.HandleWebSocket)
	})

	return r
}
