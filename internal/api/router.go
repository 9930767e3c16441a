package api

import (
	"fleet-pricer/internal/api/handlers"
	"fleet-pricer/pkg/auth"
	"fleet-pricer/pkg/middleware"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func SetupRouter(
	pricingHandler *handlers.PricingHandler,
	modelHandler *handlers.ModelHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	recommendations := protected.Group("/recommendations")
	recommendations.Post("/generate", pricingHandler.Generate)
	recommendations.Get("", pricingHandler.List)
	recommendations.Post("/bulk-approve", pricingHandler.BulkApprove)
	recommendations.Post("/:id/approve", pricingHandler.Approve)
	recommendations.Post("/:id/skip", pricingHandler.Skip)

	mlModels := protected.Group("/models")
	mlModels.Get("/metrics", modelHandler.Metrics)
	mlModels.Get("/best", modelHandler.Best)

	return app
}
