package server

import (
	"context"
	"log"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/bootstrap"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/config"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := newApp(cfg, container.Dependencies)
	registerRoutes(app, container)

	return &Server{
		app: app,
		cfg: cfg,
	}
}

// newApp builds the fiber app with middleware and the health check, without domain routes.
func newApp(cfg *config.Config, deps bootstrap.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "approved-premises-withdrawals",
		BodyLimit:   1 * 1024 * 1024,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"status":       "UP",
			"environment":  cfg.App.Environment,
			"dependencies": deps,
		}))
	})

	return app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.WithdrawalController.RegisterRoutes(api, serverutils.JwtMiddleware)
	c.SpaceBookingController.RegisterRoutes(api, serverutils.JwtMiddleware)

	c.NotificationHandler.RegisterRoutes(api)
}
