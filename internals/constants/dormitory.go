package constants

// Fixed form values from the duty-report paperwork of the college.

const (
	InstitutionName = "วิทยาลัยพยาบาลบรมราชชนนี อุดรธานี"
	ReportTitle     = "รายงานสรุปผลการปฏิบัติหน้าที่ของอาจารย์เวร"

	// Defaults applied when the form field is left blank
	DefaultStartTime       = "18.00"
	DefaultEndTime         = "06.00"
	DefaultTeacherPosition = "อาจารย์ผู้ดูแลหอ"
)

// The four fixed academic-year cohorts of the roster grid
var CohortYears = []string{"1", "2", "3", "4"}

// Known dormitory names; anything else is free text ("อื่น ๆ" in the form)
var DormitoryOptions = []string{
	"หอพักชมจันทร์",
	"หอพักพุทธรักษา",
	"หอราชาวดี",
}
