package model

import "github.com/google/uuid"

// One row per academic-year cohort; always four per report, replaced
// wholesale on every save. total/remaining are derived columns kept in
// sync by the roster engine before anything reaches this model.
type StudentDataModel struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID uuid.UUID `gorm:"column:report_id;type:uuid;not null;index" json:"report_id"`

	Year string `gorm:"column:year;type:varchar(20);not null" json:"year"`

	FemaleCount int `gorm:"column:female_count;not null;default:0" json:"female_count"`
	MaleCount   int `gorm:"column:male_count;not null;default:0" json:"male_count"`
	TotalCount  int `gorm:"column:total_count;not null;default:0" json:"total_count"`

	FemaleSignOut       int `gorm:"column:female_sign_out;not null;default:0" json:"female_sign_out"`
	MaleSignOut         int `gorm:"column:male_sign_out;not null;default:0" json:"male_sign_out"`
	FemaleEmergencyStay int `gorm:"column:female_emergency_stay;not null;default:0" json:"female_emergency_stay"`
	MaleEmergencyStay   int `gorm:"column:male_emergency_stay;not null;default:0" json:"male_emergency_stay"`
	FemaleNotStayingOut int `gorm:"column:female_not_staying_out;not null;default:0" json:"female_not_staying_out"`
	MaleNotStayingOut   int `gorm:"column:male_not_staying_out;not null;default:0" json:"male_not_staying_out"`

	FemaleRemaining int `gorm:"column:female_remaining;not null;default:0" json:"female_remaining"`
	MaleRemaining   int `gorm:"column:male_remaining;not null;default:0" json:"male_remaining"`
}

func (StudentDataModel) TableName() string { return "student_data" }
