package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestComposer(t *testing.T) *ReportComposer {
	t.Helper()
	fontPath := filepath.Join(t.TempDir(), "test.ttf")
	require.NoError(t, os.WriteFile(fontPath, goregular.TTF, 0o644))
	c, err := NewReportComposer(fontPath, "")
	require.NoError(t, err)
	return c
}

func sampleDocument() ReportDocument {
	rows := NewCohortRows()
	rows[0].FemaleCount = 10
	rows[0].MaleCount = 5
	rows[0].FemaleSignOut = 3
	rows[0].FemaleNotStayingOut = 7
	rows[0].MaleSignOut = 5
	rows = Normalize(rows)

	return ReportDocument{
		Date:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		TeacherName:     "สมหญิง ใจดี",
		TeacherPosition: "อาจารย์ผู้ดูแลหอ",
		StartTime:       "18.00",
		EndTime:         "06.00",
		Dormitory:       "หอพักชมจันทร์",
		StudentBehavior: "เรียบร้อยดี",
		Rows:            rows,
		Health: []HealthEntry{
			{Name: "นางสาวทดสอบ", Year: "2", Symptoms: "ปวดหัว", Treatment: "พาราเซตามอล", Result: "ดีขึ้น"},
		},
	}
}

func TestNewReportComposerMissingFont(t *testing.T) {
	_, err := NewReportComposer(filepath.Join(t.TempDir(), "absent.ttf"), "")
	assert.Error(t, err)
}

func TestComposeProducesPDF(t *testing.T) {
	c := newTestComposer(t)

	out, err := c.Compose(sampleDocument())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestComposeWithoutHealthRecords(t *testing.T) {
	c := newTestComposer(t)
	doc := sampleDocument()
	doc.Health = nil

	out, err := c.Compose(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestComposeManyHealthRecordsSpansPages(t *testing.T) {
	c := newTestComposer(t)
	doc := sampleDocument()
	for i := 0; i < 60; i++ {
		doc.Health = append(doc.Health, HealthEntry{Name: "student", Symptoms: "fever"})
	}

	longer, err := c.Compose(doc)
	require.NoError(t, err)

	doc.Health = doc.Health[:1]
	shorter, err := c.Compose(doc)
	require.NoError(t, err)

	assert.Greater(t, len(longer), len(shorter))
}

func TestFormatThaiDate(t *testing.T) {
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "15 มกราคม 2568", FormatThaiDate(d))

	d = time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 ธันวาคม 2567", FormatThaiDate(d))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "15-มกราคม-2568", SanitizeFileName("15 มกราคม 2568"))
	assert.Equal(t, "a-b-c", SanitizeFileName("a/b\\c"))
	assert.Equal(t, "report", SanitizeFileName("  ../  "))
	assert.Equal(t, "สมหญิง-ใจดี", SanitizeFileName(" สมหญิง  ใจดี "))
}

func TestDocumentFileName(t *testing.T) {
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	got := DocumentFileName(d, "สมหญิง ใจดี")
	assert.Equal(t, "15-มกราคม-2568_สมหญิง-ใจดี.pdf", got)
}
