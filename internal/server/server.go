// Package server contains the HTTP handlers and routing for the NUESA API.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nuesa/internal/auth"
	"nuesa/internal/cache"
	"nuesa/internal/config"
	"nuesa/internal/database"
	"nuesa/internal/middleware"
	"nuesa/internal/models"
	"nuesa/internal/observability"
	"nuesa/internal/repository"
	"nuesa/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const principalKey = "principal"

// Server holds all dependencies and provides handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	tokens *auth.TokenService

	userRepo         repository.UserRepository
	opportunityRepo  repository.OpportunityRepository
	applicationRepo  repository.ApplicationRepository
	notificationRepo repository.NotificationRepository

	users         *service.UserService
	opportunities *service.OpportunityService
	applications  *service.ApplicationService
}

// NewServer creates a server instance, connecting to the database and Redis
// from the given config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps wires a server around existing connections. Tests use
// this with a SQLite database and a miniredis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL(),
		RefreshTTL: cfg.RefreshTokenTTL(),
	})
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	return &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		tokens:           tokens,
		userRepo:         userRepo,
		opportunityRepo:  opportunityRepo,
		applicationRepo:  applicationRepo,
		notificationRepo: notificationRepo,
		users:            service.NewUserService(userRepo, tokens),
		opportunities:    service.NewOpportunityService(opportunityRepo),
		applications:     service.NewApplicationService(db, applicationRepo, opportunityRepo, notificationRepo),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	prom := middleware.InitMetrics("nuesa-api")
	prom.RegisterAt(app, "/api/metrics/prometheus")
	app.Use(middleware.MetricsMiddleware(prom))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/", s.HealthCheck)

	api.Get("/metrics", monitor.New(monitor.Config{
		Title: "NUESA Backend Metrics",
	}))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/refresh", middleware.RateLimit(s.redis, 20, 5*time.Minute, "refresh"), s.Refresh)

	// Public opportunity browsing. Auth is optional: admins see inactive
	// listings, everyone else does not.
	publicOpps := api.Group("/opportunities", s.OptionalAuth())
	publicOpps.Get("/", s.ListOpportunities)
	publicOpps.Get("/featured", s.FeaturedOpportunities)
	publicOpps.Get("/search", middleware.RateLimit(s.redis, 10, time.Minute, "search"), s.SearchOpportunities)
	publicOpps.Get("/:id", s.GetOpportunity)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMe)
	users.Delete("/me", s.DeleteMe)
	users.Get("/me/profile", s.GetMyProfile)
	users.Put("/me/profile", s.UpdateMyProfile)

	// Saved opportunities and ratings
	opps := protected.Group("/opportunities")
	opps.Get("/saved/list", s.ListSavedOpportunities)
	opps.Post("/:id/save", s.SaveOpportunity)
	opps.Delete("/:id/save", s.UnsaveOpportunity)
	opps.Post("/:id/rate", middleware.RateLimit(s.redis, 5, time.Minute, "rate"), s.RateOpportunity)

	// Application routes
	apps := protected.Group("/applications")
	apps.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_application"), s.CreateApplication)
	apps.Get("/", s.ListApplications)
	apps.Post("/:id/submit", s.SubmitApplication)
	apps.Post("/:id/withdraw", s.WithdrawApplication)
	apps.Get("/:id", s.GetApplication)
	apps.Put("/:id", s.UpdateApplication)
	apps.Delete("/:id", s.DeleteApplication)

	// Notification routes
	notes := protected.Group("/notifications")
	notes.Get("/", s.ListNotifications)
	notes.Get("/unread-count", s.UnreadNotificationCount)
	notes.Post("/read-all", s.MarkAllNotificationsRead)
	notes.Post("/:id/read", s.MarkNotificationRead)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/users", s.ListUsers)
	admin.Post("/users/:id/promote", s.PromoteUser)
	admin.Post("/users/:id/demote", s.DemoteUser)
	admin.Post("/opportunities", s.CreateOpportunity)
	admin.Put("/opportunities/:id", s.UpdateOpportunity)
	admin.Delete("/opportunities/:id", s.DeleteOpportunity)
}

// HealthCheck reports process, database and Redis health.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "NUESA Scholars API",
		"version": "1.0.0",
		"status":  "healthy",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Empty string when absent or malformed.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired verifies the bearer token and stores the resulting principal
// in the request locals. Refresh tokens are rejected here; they are only
// redeemable at the refresh endpoint.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			msg := "Invalid token"
			if err == auth.ErrTokenExpired {
				msg = "Token expired"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}
		if claims.IsRefresh {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Refresh tokens cannot access the API"))
		}

		principal := claims.Principal()
		c.Locals(principalKey, principal)
		c.Locals("userID", principal.UserID)
		return c.Next()
	}
}

// OptionalAuth stores a principal when a valid access token is presented and
// proceeds anonymously otherwise. An invalid token is treated as absent.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Next()
		}

		claims, err := s.tokens.Verify(tokenString)
		if err != nil || claims.IsRefresh {
			return c.Next()
		}

		principal := claims.Principal()
		c.Locals(principalKey, principal)
		c.Locals("userID", principal.UserID)
		return c.Next()
	}
}

// AdminRequired allows only admin principals through. It must run after
// AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := c.Locals(principalKey).(auth.Principal)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if !principal.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "NUESA Scholars API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return models.RespondWithError(c, fiberErr.Code, fiberErr)
			}
			observability.RecordErrorInContext(c.UserContext(), err)
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown closes the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
