package middlewares

import (
	"github.com/gofiber/fiber/v2"

	loggerMiddleware "dutyreport_backend/internals/middlewares/logger"
)

// SetupMiddlewares wires the baseline middleware stack
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(loggerMiddleware.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
}
