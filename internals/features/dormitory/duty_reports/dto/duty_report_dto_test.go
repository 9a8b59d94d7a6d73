package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutyreport_backend/internals/features/dormitory/duty_reports/model"
	"dutyreport_backend/internals/features/dormitory/duty_reports/service"
)

func validCreateRequest() DutyReportCreateRequest {
	rows := service.NewCohortRows()
	for i := range rows {
		rows[i].FemaleCount = 10
		rows[i].MaleCount = 5
		rows[i].FemaleSignOut = 10
		rows[i].MaleSignOut = 5
	}
	return DutyReportCreateRequest{
		Date:        "2025-01-15",
		TeacherName: "  สมหญิง ใจดี  ",
		StudentData: rows,
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	req := validCreateRequest()
	req.Normalize()

	assert.Equal(t, "สมหญิง ใจดี", req.TeacherName)
	assert.Equal(t, "18.00", req.StartTime)
	assert.Equal(t, "06.00", req.EndTime)
	assert.Equal(t, "อาจารย์ผู้ดูแลหอ", req.TeacherPosition)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	req := validCreateRequest()
	req.StartTime = "19.30"
	req.TeacherPosition = "อาจารย์พิเศษ"
	req.Normalize()

	assert.Equal(t, "19.30", req.StartTime)
	assert.Equal(t, "อาจารย์พิเศษ", req.TeacherPosition)
}

func TestParseDateRejectsBadFormat(t *testing.T) {
	req := validCreateRequest()
	req.Date = "15/01/2025"
	_, err := req.ParseDate()
	assert.Error(t, err)
}

func TestToModelCarriesFields(t *testing.T) {
	req := validCreateRequest()
	req.Normalize()
	req.Dormitory = "หอพักชมจันทร์"

	ent, err := req.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "สมหญิง ใจดี", ent.TeacherName)
	assert.Equal(t, "หอพักชมจันทร์", ent.Dormitory)
	assert.Equal(t, "2025-01-15", time.Time(ent.Date).Format("2006-01-02"))
}

func TestRowsRecomputesDerived(t *testing.T) {
	req := validCreateRequest()
	req.StudentData[0].TotalCount = 999 // stale wire value
	rows := req.Rows()
	assert.Equal(t, 15, rows[0].TotalCount)
	assert.Equal(t, 0, rows[0].FemaleRemaining)
}

func TestHealthModelsDropsBlankRows(t *testing.T) {
	reportID := uuid.New()
	records := []HealthRecordInput{
		{Year: "2"}, // year alone does not count
		{},
		{Name: "นางสาวทดสอบ"},
		{Symptoms: "ไข้", Treatment: "ยา", Result: "ดีขึ้น"},
	}

	out := HealthModels(records, reportID)
	require.Len(t, out, 2)
	assert.Equal(t, "นางสาวทดสอบ", out[0].Name)
	assert.Equal(t, "ไข้", out[1].Symptoms)
	for _, h := range out {
		assert.Equal(t, reportID, h.ReportID)
	}
}

func TestStudentModelsMapsGrid(t *testing.T) {
	reportID := uuid.New()
	req := validCreateRequest()
	rows := req.Rows()

	out := StudentModels(rows, reportID)
	require.Len(t, out, 4)
	assert.Equal(t, "1", out[0].Year)
	assert.Equal(t, 15, out[0].TotalCount)
	assert.Equal(t, reportID, out[3].ReportID)
}

func TestListQueryOrderClause(t *testing.T) {
	var q DutyReportListQuery
	assert.Equal(t, "date desc, created_at desc", q.OrderClause())

	by := "teacher"
	dir := "asc"
	q.SortBy = &by
	q.SortDir = &dir
	assert.Equal(t, "teacher_name asc", q.OrderClause())

	by = "students"
	assert.Contains(t, q.OrderClause(), "SUM(total_count)")
	by = "health"
	assert.Contains(t, q.OrderClause(), "COUNT(*)")
}

func TestListQueryNormalizeDropsBlankFilters(t *testing.T) {
	blank := "   "
	kept := " หอพักชมจันทร์ "
	q := DutyReportListQuery{Q: &blank, Dormitory: &kept}
	q.Normalize()

	assert.Nil(t, q.Q)
	require.NotNil(t, q.Dormitory)
	assert.Equal(t, "หอพักชมจันทร์", *q.Dormitory)
}

func TestFromModelIncludesTotals(t *testing.T) {
	ent := model.DutyReportModel{
		ID:          uuid.New(),
		TeacherName: "ครูเวร",
		StudentData: []model.StudentDataModel{
			{Year: "1", FemaleCount: 10, MaleCount: 5, TotalCount: 15},
			{Year: "2", FemaleCount: 8, MaleCount: 2, TotalCount: 10},
		},
	}

	resp := FromModel(ent)
	assert.Equal(t, 25, resp.Totals.TotalCount)
	assert.Equal(t, "รวม", resp.Totals.Year)
	assert.Len(t, resp.StudentData, 2)
	assert.NotNil(t, resp.HealthRecords)
}

func TestListItemFromModelCounts(t *testing.T) {
	ent := model.DutyReportModel{
		ID: uuid.New(),
		StudentData: []model.StudentDataModel{
			{TotalCount: 15}, {TotalCount: 10},
		},
		HealthRecords: []model.HealthRecordModel{{Name: "a"}},
	}
	item := ListItemFromModel(ent)
	assert.Equal(t, 25, item.TotalStudents)
	assert.Equal(t, 1, item.HealthCount)
}
