package seeds

import (
	"log"

	"gorm.io/gorm"

	"dutyreport_backend/internals/features/dormitory/duty_reports/model"
)

// EnsureSchema creates the report tables on an empty database. The hosted
// Supabase project already owns this schema, so it only runs when
// RUN_AUTOMIGRATE=true (local dev, throwaway environments).
func EnsureSchema(db *gorm.DB) {
	if db == nil {
		log.Println("⚠️ skip automigrate: no database connection")
		return
	}
	if err := db.AutoMigrate(
		&model.DutyReportModel{},
		&model.StudentDataModel{},
		&model.HealthRecordModel{},
	); err != nil {
		log.Printf("❌ automigrate failed: %v", err)
		return
	}
	log.Println("✅ report tables ensured")
}
