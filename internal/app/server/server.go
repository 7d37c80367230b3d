package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/linktrail/linktrail/internal/app/codefilter"
	"github.com/linktrail/linktrail/internal/app/repository"
	"github.com/linktrail/linktrail/internal/app/service"
	infraprom "github.com/linktrail/linktrail/internal/infra/prometheus"
	inthttp "github.com/linktrail/linktrail/internal/http/handler"
	"github.com/linktrail/linktrail/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs to serve requests.
type Dependencies struct {
	Logger      *zap.Logger
	Links       repository.Store
	LinkService service.LinkService
	Clicks      service.ClickRecorder
	Filter      *codefilter.Filter
	Metrics     *infraprom.Metrics
	BaseURL     string
	RateLimit   middleware.RateLimitConfig
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app, used by handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())

	// The gateway sits ahead of the API routes; it ignores anything that
	// cannot be a short code.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:  s.deps.Logger,
		Links:   s.deps.Links,
		Filter:  s.deps.Filter,
		Metrics: s.deps.Metrics,
	})
	redirectHandler.Register(s.app)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:        s.deps.Logger,
		LinkService:   s.deps.LinkService,
		Clicks:        s.deps.Clicks,
		Metrics:       s.deps.Metrics,
		BaseURL:       s.deps.BaseURL,
		CreateLimiter: middleware.RateLimit(s.deps.RateLimit),
	})
	apiHandler.Register(s.app)

	s.app.Get("/", apiHandler.Health)
	s.app.Get("/health", apiHandler.Health)
}
