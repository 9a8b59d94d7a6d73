package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dutyreport_backend/internals/features/dormitory/duty_reports/controller"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
	"dutyreport_backend/internals/middlewares"
)

func DutyReportRoutes(api fiber.Router, db *gorm.DB, challenges *service.ChallengeStore) {
	ctrl := controller.NewDutyReportController(db, challenges)
	export := controller.NewExportController(db)

	reports := api.Group("/duty-reports")

	// fixed paths before the :id wildcard
	reports.Get("/stats", ctrl.Stats)             // 📊 aggregate counters
	reports.Get("/teachers", ctrl.Teachers)       // 👩‍🏫 distinct names for the filter dropdown
	reports.Get("/dormitories", ctrl.Dormitories) // 🏠 fixed dorm options of the form

	reports.Post("/", ctrl.Create)
	reports.Get("/", ctrl.List)
	reports.Get("/:id", ctrl.GetByID)
	reports.Put("/:id", ctrl.Update)

	// two-step deletion: issue a code, then delete with it (or cancel)
	reports.Post("/:id/delete-challenge", ctrl.CreateDeleteChallenge)
	reports.Delete("/:id/delete-challenge", ctrl.CancelDeleteChallenge)
	reports.Delete("/:id", ctrl.Delete)

	reports.Get("/:id/pdf", middlewares.ExportRateLimiter(), export.ExportPDF)
}
