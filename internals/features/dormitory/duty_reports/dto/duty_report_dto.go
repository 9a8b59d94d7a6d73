package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"dutyreport_backend/internals/constants"
	"dutyreport_backend/internals/features/dormitory/duty_reports/model"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

// =======================
// Request DTO
// =======================

type HealthRecordInput struct {
	Name      string `json:"name"      validate:"omitempty,max=160"`
	Year      string `json:"year"      validate:"omitempty,max=20"`
	Symptoms  string `json:"symptoms"`
	Treatment string `json:"treatment"`
	Result    string `json:"result"`
}

// IsBlank: year alone does not make a row worth keeping
func (h *HealthRecordInput) IsBlank() bool {
	return strings.TrimSpace(h.Name) == "" &&
		strings.TrimSpace(h.Symptoms) == "" &&
		strings.TrimSpace(h.Treatment) == "" &&
		strings.TrimSpace(h.Result) == ""
}

type DutyReportCreateRequest struct {
	Date        string `json:"date"         validate:"required,datetime=2006-01-02"`
	TeacherName string `json:"teacher_name" validate:"required,min=1,max=160"`

	StartTime        string `json:"start_time"        validate:"omitempty,max=20"`
	EndTime          string `json:"end_time"          validate:"omitempty,max=20"`
	ReplacingTeacher string `json:"replacing_teacher" validate:"omitempty,max=160"`
	Dormitory        string `json:"dormitory"         validate:"omitempty,max=160"`

	CleanlinessGood            string `json:"cleanliness_good"`
	CleanlinessNeedImprovement string `json:"cleanliness_need_improvement"`
	StudentBehavior            string `json:"student_behavior"`

	TeacherSignature        string `json:"teacher_signature"         validate:"omitempty,max=160"`
	TeacherPosition         string `json:"teacher_position"          validate:"omitempty,max=160"`
	DeputyDirectorSignature string `json:"deputy_director_signature" validate:"omitempty,max=160"`
	DirectorSignature       string `json:"director_signature"        validate:"omitempty,max=160"`

	StudentData   []service.CohortRow `json:"student_data"   validate:"required,len=4"`
	HealthRecords []HealthRecordInput `json:"health_records" validate:"omitempty,max=50,dive"`
}

// An update rewrites the whole report (children replaced wholesale), so the
// payload is identical to create.
type DutyReportUpdateRequest = DutyReportCreateRequest

// Normalize trims free text and fills the fixed defaults the paper form has
// pre-printed.
func (p *DutyReportCreateRequest) Normalize() {
	p.TeacherName = strings.TrimSpace(p.TeacherName)
	p.StartTime = strings.TrimSpace(p.StartTime)
	p.EndTime = strings.TrimSpace(p.EndTime)
	p.ReplacingTeacher = strings.TrimSpace(p.ReplacingTeacher)
	p.Dormitory = strings.TrimSpace(p.Dormitory)
	p.TeacherSignature = strings.TrimSpace(p.TeacherSignature)
	p.TeacherPosition = strings.TrimSpace(p.TeacherPosition)
	p.DeputyDirectorSignature = strings.TrimSpace(p.DeputyDirectorSignature)
	p.DirectorSignature = strings.TrimSpace(p.DirectorSignature)

	if p.StartTime == "" {
		p.StartTime = constants.DefaultStartTime
	}
	if p.EndTime == "" {
		p.EndTime = constants.DefaultEndTime
	}
	if p.TeacherPosition == "" {
		p.TeacherPosition = constants.DefaultTeacherPosition
	}
}

// Rows returns the cohort grid with derived columns recomputed (clamped,
// never trusted from the wire).
func (p *DutyReportCreateRequest) Rows() []service.CohortRow {
	return service.Normalize(p.StudentData)
}

func (p *DutyReportCreateRequest) ParseDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("รูปแบบวันที่ไม่ถูกต้อง (ต้องเป็น YYYY-MM-DD)")
	}
	return t, nil
}

func (p *DutyReportCreateRequest) ToModel() (model.DutyReportModel, error) {
	date, err := p.ParseDate()
	if err != nil {
		return model.DutyReportModel{}, err
	}
	return model.DutyReportModel{
		Date:                       datatypes.Date(date),
		TeacherName:                p.TeacherName,
		StartTime:                  p.StartTime,
		EndTime:                    p.EndTime,
		ReplacingTeacher:           p.ReplacingTeacher,
		Dormitory:                  p.Dormitory,
		CleanlinessGood:            p.CleanlinessGood,
		CleanlinessNeedImprovement: p.CleanlinessNeedImprovement,
		StudentBehavior:            p.StudentBehavior,
		TeacherSignature:           p.TeacherSignature,
		TeacherPosition:            p.TeacherPosition,
		DeputyDirectorSignature:    p.DeputyDirectorSignature,
		DirectorSignature:          p.DirectorSignature,
	}, nil
}

// StudentModels materializes the normalized grid as child rows for reportID.
func StudentModels(rows []service.CohortRow, reportID uuid.UUID) []model.StudentDataModel {
	out := make([]model.StudentDataModel, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.StudentDataModel{
			ReportID:            reportID,
			Year:                r.Year,
			FemaleCount:         r.FemaleCount,
			MaleCount:           r.MaleCount,
			TotalCount:          r.TotalCount,
			FemaleSignOut:       r.FemaleSignOut,
			MaleSignOut:         r.MaleSignOut,
			FemaleEmergencyStay: r.FemaleEmergencyStay,
			MaleEmergencyStay:   r.MaleEmergencyStay,
			FemaleNotStayingOut: r.FemaleNotStayingOut,
			MaleNotStayingOut:   r.MaleNotStayingOut,
			FemaleRemaining:     r.FemaleRemaining,
			MaleRemaining:       r.MaleRemaining,
		})
	}
	return out
}

// HealthModels drops blank rows and materializes the rest for reportID.
func HealthModels(records []HealthRecordInput, reportID uuid.UUID) []model.HealthRecordModel {
	out := make([]model.HealthRecordModel, 0, len(records))
	for _, h := range records {
		if h.IsBlank() {
			continue
		}
		out = append(out, model.HealthRecordModel{
			ReportID:  reportID,
			Name:      strings.TrimSpace(h.Name),
			Year:      strings.TrimSpace(h.Year),
			Symptoms:  strings.TrimSpace(h.Symptoms),
			Treatment: strings.TrimSpace(h.Treatment),
			Result:    strings.TrimSpace(h.Result),
		})
	}
	return out
}

// =======================
// List query
// =======================

type DutyReportListQuery struct {
	Q         *string `query:"q"         validate:"omitempty,max=160"`
	Filter    *string `query:"filter"    validate:"omitempty,oneof=all with_health this_month"`
	Dormitory *string `query:"dormitory" validate:"omitempty,max=160"`
	Teacher   *string `query:"teacher"   validate:"omitempty,max=160"`
	DateFrom  *string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    *string `query:"date_to"   validate:"omitempty,datetime=2006-01-02"`
	SortBy    *string `query:"sort_by"   validate:"omitempty,oneof=date teacher students health"`
	SortDir   *string `query:"sort_dir"  validate:"omitempty,oneof=asc desc"`
}

func (q *DutyReportListQuery) Normalize() {
	trim := func(p **string) {
		if *p != nil {
			s := strings.TrimSpace(**p)
			if s == "" {
				*p = nil
			} else {
				*p = &s
			}
		}
	}
	trim(&q.Q)
	trim(&q.Dormitory)
	trim(&q.Teacher)
	if q.Filter != nil {
		s := strings.ToLower(strings.TrimSpace(*q.Filter))
		q.Filter = &s
	}
	if q.SortBy != nil {
		s := strings.ToLower(strings.TrimSpace(*q.SortBy))
		q.SortBy = &s
	}
	if q.SortDir != nil {
		s := strings.ToLower(strings.TrimSpace(*q.SortDir))
		q.SortDir = &s
	}
}

// OrderClause maps the whitelisted sort keys to SQL (default: newest duty
// date first, ties broken by creation time). students/health sort on child
// aggregates via correlated subqueries.
func (q *DutyReportListQuery) OrderClause() string {
	by := "date"
	if q.SortBy != nil {
		by = *q.SortBy
	}
	dir := "desc"
	if q.SortDir != nil {
		dir = *q.SortDir
	}
	switch by {
	case "teacher":
		return fmt.Sprintf("teacher_name %s", dir)
	case "students":
		return fmt.Sprintf("(SELECT COALESCE(SUM(total_count), 0) FROM student_data WHERE student_data.report_id = duty_reports.id) %s", dir)
	case "health":
		return fmt.Sprintf("(SELECT COUNT(*) FROM health_records WHERE health_records.report_id = duty_reports.id) %s", dir)
	default:
		return fmt.Sprintf("date %s, created_at %s", dir, dir)
	}
}

// =======================
// Response DTO
// =======================

type DutyReportResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Date      string    `json:"date"`

	TeacherName      string `json:"teacher_name"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ReplacingTeacher string `json:"replacing_teacher"`
	Dormitory        string `json:"dormitory"`

	CleanlinessGood            string `json:"cleanliness_good"`
	CleanlinessNeedImprovement string `json:"cleanliness_need_improvement"`
	StudentBehavior            string `json:"student_behavior"`

	TeacherSignature        string `json:"teacher_signature"`
	TeacherPosition         string `json:"teacher_position"`
	DeputyDirectorSignature string `json:"deputy_director_signature"`
	DirectorSignature       string `json:"director_signature"`

	StudentData   []service.CohortRow `json:"student_data"`
	Totals        service.CohortRow   `json:"totals"`
	HealthRecords []HealthRecordInput `json:"health_records"`
}

type DutyReportListItem struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Date          string    `json:"date"`
	TeacherName   string    `json:"teacher_name"`
	Dormitory     string    `json:"dormitory"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	StudentCount  int       `json:"student_count"`
	TotalStudents int       `json:"total_students"`
	HealthCount   int       `json:"health_count"`
}

func RowsFromModels(list []model.StudentDataModel) []service.CohortRow {
	out := make([]service.CohortRow, 0, len(list))
	for _, s := range list {
		out = append(out, service.CohortRow{
			Year:                s.Year,
			FemaleCount:         s.FemaleCount,
			MaleCount:           s.MaleCount,
			TotalCount:          s.TotalCount,
			FemaleSignOut:       s.FemaleSignOut,
			MaleSignOut:         s.MaleSignOut,
			FemaleEmergencyStay: s.FemaleEmergencyStay,
			MaleEmergencyStay:   s.MaleEmergencyStay,
			FemaleNotStayingOut: s.FemaleNotStayingOut,
			MaleNotStayingOut:   s.MaleNotStayingOut,
			FemaleRemaining:     s.FemaleRemaining,
			MaleRemaining:       s.MaleRemaining,
		})
	}
	return out
}

func healthFromModels(list []model.HealthRecordModel) []HealthRecordInput {
	out := make([]HealthRecordInput, 0, len(list))
	for _, h := range list {
		out = append(out, HealthRecordInput{
			Name:      h.Name,
			Year:      h.Year,
			Symptoms:  h.Symptoms,
			Treatment: h.Treatment,
			Result:    h.Result,
		})
	}
	return out
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format("2006-01-02")
}

func FromModel(ent model.DutyReportModel) DutyReportResponse {
	rows := RowsFromModels(ent.StudentData)
	return DutyReportResponse{
		ID:                         ent.ID,
		CreatedAt:                  ent.CreatedAt,
		Date:                       formatDate(ent.Date),
		TeacherName:                ent.TeacherName,
		StartTime:                  ent.StartTime,
		EndTime:                    ent.EndTime,
		ReplacingTeacher:           ent.ReplacingTeacher,
		Dormitory:                  ent.Dormitory,
		CleanlinessGood:            ent.CleanlinessGood,
		CleanlinessNeedImprovement: ent.CleanlinessNeedImprovement,
		StudentBehavior:            ent.StudentBehavior,
		TeacherSignature:           ent.TeacherSignature,
		TeacherPosition:            ent.TeacherPosition,
		DeputyDirectorSignature:    ent.DeputyDirectorSignature,
		DirectorSignature:          ent.DirectorSignature,
		StudentData:                rows,
		Totals:                     service.Totals(rows),
		HealthRecords:              healthFromModels(ent.HealthRecords),
	}
}

func ListItemFromModel(ent model.DutyReportModel) DutyReportListItem {
	total := 0
	for _, s := range ent.StudentData {
		total += s.TotalCount
	}
	return DutyReportListItem{
		ID:            ent.ID,
		CreatedAt:     ent.CreatedAt,
		Date:          formatDate(ent.Date),
		TeacherName:   ent.TeacherName,
		Dormitory:     ent.Dormitory,
		StartTime:     ent.StartTime,
		EndTime:       ent.EndTime,
		StudentCount:  len(ent.StudentData),
		TotalStudents: total,
		HealthCount:   len(ent.HealthRecords),
	}
}

func ListItemsFromModels(list []model.DutyReportModel) []DutyReportListItem {
	out := make([]DutyReportListItem, 0, len(list))
	for _, it := range list {
		out = append(out, ListItemFromModel(it))
	}
	return out
}

// =======================
// Deletion challenge
// =======================

type DeleteConfirmRequest struct {
	ChallengeCode string `json:"challenge_code" validate:"required"`
}

type ChallengeResponse struct {
	ReportID      uuid.UUID `json:"report_id"`
	ChallengeCode string    `json:"challenge_code"`
	ExpiresIn     int       `json:"expires_in_seconds"`
}
