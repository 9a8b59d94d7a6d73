package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dutyroute "dutyreport_backend/internals/features/dormitory/duty_reports/route"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, challenges *service.ChallengeStore) {
	BaseRoutes(app, db)

	api := app.Group("/api")
	dutyroute.DutyReportRoutes(api, db, challenges)
}
