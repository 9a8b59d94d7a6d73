package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"dutyreport_backend/internals/constants"
	helper "dutyreport_backend/internals/helpers"

	"dutyreport_backend/internals/features/dormitory/duty_reports/dto"
	"dutyreport_backend/internals/features/dormitory/duty_reports/model"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

type DutyReportController struct {
	DB         *gorm.DB
	Challenges *service.ChallengeStore
}

func NewDutyReportController(db *gorm.DB, challenges *service.ChallengeStore) *DutyReportController {
	return &DutyReportController{DB: db, Challenges: challenges}
}

var validate = validator.New()

func parseReportID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "รหัสรายงานไม่ถูกต้อง")
	}
	return id, nil
}

// POST /api/duty-reports
func (ctrl *DutyReportController) Create(c *fiber.Ctx) error {
	var req dto.DutyReportCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ข้อมูลที่ส่งมาไม่ถูกต้อง")
	}
	req.Normalize()
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	rows := req.Rows()
	if v := service.ValidateForSave(rows); v != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, v.Message)
	}

	report, err := req.ToModel()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "บันทึกรายงานไม่สำเร็จ: "+err.Error())
		}
		students := dto.StudentModels(rows, report.ID)
		if err := tx.Create(&students).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "บันทึกข้อมูลนักศึกษาไม่สำเร็จ: "+err.Error())
		}
		report.StudentData = students
		if health := dto.HealthModels(req.HealthRecords, report.ID); len(health) > 0 {
			if err := tx.Create(&health).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "บันทึกข้อมูลสุขภาพไม่สำเร็จ: "+err.Error())
			}
			report.HealthRecords = health
		}
		return nil
	}); err != nil {
		return err
	}

	return helper.JsonCreated(c, "บันทึกรายงานเวรสำเร็จ", dto.FromModel(report))
}

func (ctrl *DutyReportController) findReport(id uuid.UUID, withChildren bool) (*model.DutyReportModel, error) {
	var ent model.DutyReportModel
	q := ctrl.DB
	if withChildren {
		q = q.
			Preload("StudentData", func(db *gorm.DB) *gorm.DB { return db.Order("year ASC") }).
			Preload("HealthRecords")
	}
	if err := q.First(&ent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "ไม่พบรายงานที่ระบุ")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "อ่านข้อมูลรายงานไม่สำเร็จ")
	}
	return &ent, nil
}

// GET /api/duty-reports/:id
func (ctrl *DutyReportController) GetByID(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}
	ent, err := ctrl.findReport(id, true)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "OK", dto.FromModel(*ent))
}

// GET /api/duty-reports
func (ctrl *DutyReportController) List(c *fiber.Ctx) error {
	var q dto.DutyReportListQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "พารามิเตอร์ค้นหาไม่ถูกต้อง")
	}
	q.Normalize()
	if err := validate.Struct(&q); err != nil {
		return helper.ValidationError(c, err)
	}

	paging := helper.ResolvePaging(c, 20, 100)

	tx := ctrl.DB.Model(&model.DutyReportModel{})
	if q.Q != nil {
		like := "%" + *q.Q + "%"
		tx = tx.Where("teacher_name ILIKE ? OR dormitory ILIKE ? OR replacing_teacher ILIKE ? OR date::text ILIKE ?",
			like, like, like, like)
	}
	if q.Filter != nil {
		switch *q.Filter {
		case "with_health":
			tx = tx.Where("EXISTS (SELECT 1 FROM health_records WHERE health_records.report_id = duty_reports.id)")
		case "this_month":
			tx = tx.Where("date >= date_trunc('month', CURRENT_DATE)")
		}
	}
	if q.Dormitory != nil {
		tx = tx.Where("dormitory = ?", *q.Dormitory)
	}
	if q.Teacher != nil {
		tx = tx.Where("teacher_name = ?", *q.Teacher)
	}
	if q.DateFrom != nil {
		tx = tx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("date <= ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "นับจำนวนรายงานไม่สำเร็จ")
	}

	var list []model.DutyReportModel
	if err := tx.
		Preload("StudentData").
		Preload("HealthRecords").
		Order(q.OrderClause()).
		Limit(paging.Limit).
		Offset(paging.Offset).
		Find(&list).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "อ่านรายการรายงานไม่สำเร็จ")
	}

	pagination := helper.BuildPaginationFromOffset(total, paging.Offset, paging.Limit)
	pagination.Count = len(list)
	return helper.JsonList(c, "OK", dto.ListItemsFromModels(list), pagination)
}

// PUT /api/duty-reports/:id
//
// An update rewrites the report and replaces both child tables in one
// transaction, so a failed rewrite can never leave a report with half its
// rows.
func (ctrl *DutyReportController) Update(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	var req dto.DutyReportUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ข้อมูลที่ส่งมาไม่ถูกต้อง")
	}
	req.Normalize()
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	rows := req.Rows()
	if v := service.ValidateForSave(rows); v != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, v.Message)
	}

	updated, err := req.ToModel()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.DutyReportModel
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}

		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		if err := tx.Model(&model.DutyReportModel{}).
			Where("id = ?", id).
			Select("date", "teacher_name", "start_time", "end_time",
				"replacing_teacher", "dormitory",
				"cleanliness_good", "cleanliness_need_improvement", "student_behavior",
				"teacher_signature", "teacher_position",
				"deputy_director_signature", "director_signature").
			Updates(&updated).Error; err != nil {
			return err
		}

		if err := tx.Where("report_id = ?", id).Delete(&model.StudentDataModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&model.HealthRecordModel{}).Error; err != nil {
			return err
		}

		students := dto.StudentModels(rows, id)
		if err := tx.Create(&students).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "บันทึกข้อมูลนักศึกษาไม่สำเร็จ: "+err.Error())
		}
		updated.StudentData = students
		if health := dto.HealthModels(req.HealthRecords, id); len(health) > 0 {
			if err := tx.Create(&health).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "บันทึกข้อมูลสุขภาพไม่สำเร็จ: "+err.Error())
			}
			updated.HealthRecords = health
		}
		return nil
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ไม่พบรายงานที่ระบุ")
		}
		if fe, ok := err.(*fiber.Error); ok {
			return fe
		}
		return fiber.NewError(fiber.StatusInternalServerError, "แก้ไขรายงานไม่สำเร็จ")
	}

	return helper.JsonUpdated(c, "แก้ไขรายงานเวรสำเร็จ", dto.FromModel(updated))
}

// GET /api/duty-reports/stats
//
// The four counters the dashboard cards show: reports, students housed,
// health issues, reports this month.
func (ctrl *DutyReportController) Stats(c *fiber.Ctx) error {
	statsErr := func() error {
		return fiber.NewError(fiber.StatusInternalServerError, "อ่านสถิติไม่สำเร็จ")
	}

	var totalReports int64
	if err := ctrl.DB.Model(&model.DutyReportModel{}).Count(&totalReports).Error; err != nil {
		return statsErr()
	}

	var totalStudents int64
	if err := ctrl.DB.Model(&model.StudentDataModel{}).
		Select("COALESCE(SUM(total_count), 0)").Scan(&totalStudents).Error; err != nil {
		return statsErr()
	}

	var totalHealth int64
	if err := ctrl.DB.Model(&model.HealthRecordModel{}).Count(&totalHealth).Error; err != nil {
		return statsErr()
	}

	var thisMonth int64
	if err := ctrl.DB.Model(&model.DutyReportModel{}).
		Where("date >= date_trunc('month', CURRENT_DATE)").
		Count(&thisMonth).Error; err != nil {
		return statsErr()
	}

	var totalTeachers int64
	if err := ctrl.DB.Model(&model.DutyReportModel{}).
		Distinct("teacher_name").Count(&totalTeachers).Error; err != nil {
		return statsErr()
	}

	return helper.JsonOK(c, "OK", fiber.Map{
		"total_reports":        totalReports,
		"total_students":       totalStudents,
		"total_health_records": totalHealth,
		"reports_this_month":   thisMonth,
		"total_teachers":       totalTeachers,
	})
}

// GET /api/duty-reports/teachers
func (ctrl *DutyReportController) Teachers(c *fiber.Ctx) error {
	var names []string
	if err := ctrl.DB.Model(&model.DutyReportModel{}).
		Distinct("teacher_name").
		Where("teacher_name <> ''").
		Order("teacher_name ASC").
		Pluck("teacher_name", &names).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "อ่านรายชื่ออาจารย์ไม่สำเร็จ")
	}
	return helper.JsonOK(c, "OK", names)
}

// GET /api/duty-reports/dormitories
func (ctrl *DutyReportController) Dormitories(c *fiber.Ctx) error {
	return helper.JsonOK(c, "OK", constants.DormitoryOptions)
}

/* =========================================================
   Deletion challenge flow
   ========================================================= */

// POST /api/duty-reports/:id/delete-challenge
func (ctrl *DutyReportController) CreateDeleteChallenge(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}
	if _, err := ctrl.findReport(id, false); err != nil {
		return err
	}
	code := ctrl.Challenges.Issue(id)
	return helper.JsonOK(c, "กรุณากรอกรหัสยืนยันเพื่อลบรายงาน", dto.ChallengeResponse{
		ReportID:      id,
		ChallengeCode: code,
		ExpiresIn:     int(ctrl.Challenges.TTL().Seconds()),
	})
}

// DELETE /api/duty-reports/:id/delete-challenge
func (ctrl *DutyReportController) CancelDeleteChallenge(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}
	ctrl.Challenges.Cancel(id)
	return helper.JsonOK(c, "ยกเลิกการลบรายงานแล้ว", nil)
}

// DELETE /api/duty-reports/:id
func (ctrl *DutyReportController) Delete(c *fiber.Ctx) error {
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	var req dto.DeleteConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "ข้อมูลที่ส่งมาไม่ถูกต้อง")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	ok, newCode := ctrl.Challenges.Verify(id, req.ChallengeCode)
	if !ok {
		// wrong or stale code: hand back a fresh one so the client can re-prompt
		return helper.ErrorWithDetails(c, fiber.StatusConflict,
			"รหัสยืนยันไม่ถูกต้อง กรุณากรอกรหัสใหม่",
			dto.ChallengeResponse{
				ReportID:      id,
				ChallengeCode: newCode,
				ExpiresIn:     int(ctrl.Challenges.TTL().Seconds()),
			})
	}

	var deleted int64
	if err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&model.StudentDataModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&model.HealthRecordModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.DutyReportModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	}); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "ลบรายงานไม่สำเร็จ")
	}
	if deleted == 0 {
		return fiber.NewError(fiber.StatusNotFound, "ไม่พบรายงานที่ระบุ")
	}

	return helper.JsonDeleted(c, "ลบรายงานเวรสำเร็จ", fiber.Map{"id": id})
}
