package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

// Server is the development completion server.
type Server struct {
	config  Config
	storer  storage.Driver
	models  []chat.Model
	limiter *clientLimiter
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The storer is optional; without it
// the session endpoints answer 404.
func NewServer(config Config, storer storage.Driver, models []chat.Model, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		storer: storer,
		models: models,
		logger: logger,
		app:    app,
	}

	if config.RateLimit > 0 {
		s.limiter = newClientLimiter(config.RateLimit, config.Burst)
	}

	app.Get("/ping", s.handlePing)

	apiGroup := app.Group("/api", s.rateLimit)
	apiGroup.Get("/models", s.handleListModels)
	apiGroup.Post("/chat", s.handleChat)

	if storer != nil {
		apiGroup.Get("/sessions", s.handleListSessions)
		apiGroup.Get("/sessions/:id", s.handleGetSession)
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"format", s.config.Format,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}
