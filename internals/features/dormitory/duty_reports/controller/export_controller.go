package controller

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dutyreport_backend/internals/configs"
	"dutyreport_backend/internals/features/dormitory/duty_reports/dto"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

// ExportController renders a stored report as the printable PDF. The
// composer (font parse + logo decode) is built once on first use; a broken
// font asset keeps failing per request instead of crashing startup.
type ExportController struct {
	DB *gorm.DB

	once     sync.Once
	composer *service.ReportComposer
	initErr  error
}

func NewExportController(db *gorm.DB) *ExportController {
	return &ExportController{DB: db}
}

func (ctrl *ExportController) getComposer() (*service.ReportComposer, error) {
	ctrl.once.Do(func() {
		ctrl.composer, ctrl.initErr = service.NewReportComposer(configs.PDFFontPath, configs.PDFLogoPath)
	})
	return ctrl.composer, ctrl.initErr
}

// GET /api/duty-reports/:id/pdf
func (ctrl *ExportController) ExportPDF(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	reports := &DutyReportController{DB: ctrl.DB}
	ent, err := reports.findReport(id, true)
	if err != nil {
		return err
	}

	composer, err := ctrl.getComposer()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "ไม่สามารถเตรียมฟอนต์สำหรับเอกสาร PDF ได้")
	}

	rows := dto.RowsFromModels(ent.StudentData)
	health := make([]service.HealthEntry, 0, len(ent.HealthRecords))
	for _, h := range ent.HealthRecords {
		health = append(health, service.HealthEntry{
			Name:      h.Name,
			Year:      h.Year,
			Symptoms:  h.Symptoms,
			Treatment: h.Treatment,
			Result:    h.Result,
		})
	}

	doc := service.ReportDocument{
		Date:                       time.Time(ent.Date),
		TeacherName:                ent.TeacherName,
		TeacherPosition:            ent.TeacherPosition,
		StartTime:                  ent.StartTime,
		EndTime:                    ent.EndTime,
		ReplacingTeacher:           ent.ReplacingTeacher,
		Dormitory:                  ent.Dormitory,
		CleanlinessGood:            ent.CleanlinessGood,
		CleanlinessNeedImprovement: ent.CleanlinessNeedImprovement,
		StudentBehavior:            ent.StudentBehavior,
		TeacherSignature:           ent.TeacherSignature,
		DeputyDirectorSignature:    ent.DeputyDirectorSignature,
		DirectorSignature:          ent.DirectorSignature,
		Rows:                       rows,
		Health:                     health,
	}

	pdfBytes, err := composer.Compose(doc)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "สร้างเอกสาร PDF ไม่สำเร็จ")
	}

	filename := service.DocumentFileName(time.Time(ent.Date), ent.TeacherName)
	c.Set(fiber.HeaderContentType, "application/pdf")
	// RFC 5987 filename* so Thai characters survive the header
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="report.pdf"; filename*=UTF-8''%s`, url.PathEscape(filename)))
	return c.Send(pdfBytes)
}
