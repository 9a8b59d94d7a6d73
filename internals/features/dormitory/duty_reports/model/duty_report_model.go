package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NOTE:
// - column names follow the existing Supabase tables (duty_reports),
//   so the web front end keeps reading the same shapes
// - date + teacher_name are the only save-mandatory fields; everything
//   else defaults to empty text
type DutyReportModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`

	Date        datatypes.Date `gorm:"column:date;type:date;not null;index" json:"date"`
	TeacherName string         `gorm:"column:teacher_name;type:varchar(160);not null" json:"teacher_name"`

	// Free-text shift hours ("18.00"), defaulted when blank
	StartTime        string `gorm:"column:start_time;type:varchar(20);not null" json:"start_time"`
	EndTime          string `gorm:"column:end_time;type:varchar(20);not null" json:"end_time"`
	ReplacingTeacher string `gorm:"column:replacing_teacher;type:varchar(160);not null;default:''" json:"replacing_teacher"`
	Dormitory        string `gorm:"column:dormitory;type:varchar(160);not null;default:''" json:"dormitory"`

	CleanlinessGood            string `gorm:"column:cleanliness_good;type:text;not null;default:''" json:"cleanliness_good"`
	CleanlinessNeedImprovement string `gorm:"column:cleanliness_need_improvement;type:text;not null;default:''" json:"cleanliness_need_improvement"`
	StudentBehavior            string `gorm:"column:student_behavior;type:text;not null;default:''" json:"student_behavior"`

	TeacherSignature        string `gorm:"column:teacher_signature;type:varchar(160);not null;default:''" json:"teacher_signature"`
	TeacherPosition         string `gorm:"column:teacher_position;type:varchar(160);not null;default:''" json:"teacher_position"`
	DeputyDirectorSignature string `gorm:"column:deputy_director_signature;type:varchar(160);not null;default:''" json:"deputy_director_signature"`
	DirectorSignature       string `gorm:"column:director_signature;type:varchar(160);not null;default:''" json:"director_signature"`

	StudentData   []StudentDataModel  `gorm:"foreignKey:ReportID;references:ID;constraint:OnDelete:CASCADE" json:"student_data,omitempty"`
	HealthRecords []HealthRecordModel `gorm:"foreignKey:ReportID;references:ID;constraint:OnDelete:CASCADE" json:"health_records,omitempty"`
}

func (DutyReportModel) TableName() string { return "duty_reports" }
