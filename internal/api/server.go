package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/config"
	"github.com/illegalcall/inkgen/internal/generation"
	"github.com/illegalcall/inkgen/internal/identity"
	"github.com/illegalcall/inkgen/internal/ledger"
	"github.com/illegalcall/inkgen/internal/library"
	"github.com/illegalcall/inkgen/internal/models"
)

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	SignIn(email, password string) (string, error)
}

// ChatResponder answers a single chat message.
type ChatResponder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// ShowcaseReader returns the landing page collections.
type ShowcaseReader interface {
	Get(ctx context.Context) (models.Showcase, error)
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Auth     Authenticator
	Identity identity.Resolver
	Ledger   ledger.Ledger
	Workflow *generation.Workflow
	Chat     ChatResponder
	Library  library.Store
	Showcase ShowcaseReader
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	deps     Deps
	validate *validator.Validate
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		deps:     deps,
		validate: newValidator(),
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")

	// Public routes
	api.Post("/login", s.handleLogin)
	api.Get("/showcase", cache.New(cache.Config{
		Expiration:   s.cfg.Server.CacheExpiration,
		CacheControl: true,
	}), s.handleShowcase)

	// Protected routes. The middleware is attached per route so unknown
	// paths under /api fall through to 404.
	auth := s.requireUser
	api.Post("/generate", auth, s.handleGenerate)
	api.Post("/tryon", auth, s.handleTryOn)
	api.Post("/chat", auth, s.handleChat)
	api.Get("/profile", auth, s.handleGetProfile)
	api.Get("/tattoos", auth, s.handleListTattoos)
	api.Post("/tattoos", auth, s.handleSaveTattoo)
	api.Delete("/tattoos/:id", auth, s.handleDeleteTattoo)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// fail writes err as {"error": message} with the status of its kind.
// Diagnostics in the error detail are logged, never returned.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := apperror.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": apperror.PublicMessage(err),
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.Error("Unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
