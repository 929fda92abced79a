// Package server contains the HTTP handlers for the review API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "reviewhub/docs" // swagger docs
	"reviewhub/internal/config"
	"reviewhub/internal/featureflags"
	"reviewhub/internal/middleware"
	"reviewhub/internal/models"
	"reviewhub/internal/notifications"
	"reviewhub/internal/observability"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"
	"reviewhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// uploadCacheControl applies to stored images; upload keys are never reused.
const uploadCacheControl = "public, max-age=31536000"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	verifier        *middleware.IdentityVerifier
	featureFlags    *featureflags.Manager
	notifier        *notifications.Notifier
	store           storage.BlobStore
	reviewService   *service.ReviewService
	voteService     *service.VoteService
	userService     *service.UserService
	categoryService *service.CategoryService
	uploadService   *service.UploadService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer owns DB/Redis setup and optional seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("upload storage init failed: %w", err)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	policy := service.CategoryCountPolicy(flags)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("reviewhub-api"),
		verifier:       middleware.NewIdentityVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthAudience),
		featureFlags:   flags,
		notifier:       notifications.NewNotifier(redisClient),
		store:          store,
	}

	server.reviewService = service.NewReviewService(repository.NewReviewRepository(db, policy), server.notifier)
	server.voteService = service.NewVoteService(repository.NewVoteRepository(db), server.notifier)
	server.userService = service.NewUserService(repository.NewUserRepository(db))
	server.categoryService = service.NewCategoryService(repository.NewCategoryRepository(db))
	server.uploadService = service.NewUploadService(store, cfg.UploadMaxSizeMB)

	return server, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if s.uploadService != nil {
		// Leave room for multipart framing around the largest accepted image.
		bodyLimit = int(s.uploadService.MaxUploadSizeBytes()) + 1024*1024
	}

	app := fiber.New(fiber.Config{
		AppName:   "ReviewHub API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code < fiber.StatusInternalServerError {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		// Images are embedded by the web client from another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Locally stored uploads
	if fs, ok := s.store.(*storage.FileStore); ok {
		app.Static(s.uploadPrefix(), fs.Dir(), fiber.Static{
			MaxAge: 31536000,
			ModifyResponse: func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderCacheControl, uploadCacheControl)
				return nil
			},
		})
	}

	authRequired := s.AuthRequired()
	optionalAuth := middleware.OptionalAuth(s.verifier)

	api.Get("/features", optionalAuth, s.GetFeatureFlags)

	// Auth routes
	api.Get("/auth/user", authRequired, s.GetCurrentUser)

	// Categories
	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Get("/:slug", s.GetCategoryBySlug)

	// Reviews
	reviews := api.Group("/reviews")
	reviews.Get("/", s.GetReviews)
	reviews.Post("/", authRequired, middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "create_review"), s.CreateReview)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	reviews.Post("/:id/vote", authRequired, middleware.RateLimit(
		s.redis, 60, time.Minute, "vote"), s.CastVote)
	reviews.Get("/:id/votes/me", authRequired, s.GetMyVote)
	reviews.Get("/:id", optionalAuth, s.GetReview)
	reviews.Put("/:id", authRequired, s.UpdateReview)
	reviews.Delete("/:id", authRequired, s.DeleteReview)

	// Users
	api.Get("/users/:id/stats", s.GetUserStats)

	// Uploads
	api.Post("/upload", authRequired, middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "upload"), s.UploadImage)
}

// AuthRequired verifies the identity token and mirrors the caller into the users table.
func (s *Server) AuthRequired() fiber.Handler {
	var onIdentity func(context.Context, *models.Identity) error
	if s.userService != nil {
		onIdentity = s.userService.SyncIdentity
	}
	return middleware.AuthRequired(s.verifier, onIdentity)
}

func (s *Server) uploadPrefix() string {
	if s.config.UploadPublicPrefix == "" {
		return "/uploads"
	}
	return s.config.UploadPublicPrefix
}

// LivenessCheck reports whether the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis are reachable
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis backs caching, rate limits and events
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	observability.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				observability.Logger.Error("error closing sql DB", "error", cerr)
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", "error", rerr)
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
