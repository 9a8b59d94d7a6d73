package model

import "github.com/google/uuid"

// Free-text sick-student entry; rows with all four text fields blank are
// dropped before insert.
type HealthRecordModel struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID uuid.UUID `gorm:"column:report_id;type:uuid;not null;index" json:"report_id"`

	Name      string `gorm:"column:name;type:varchar(160);not null;default:''" json:"name"`
	Year      string `gorm:"column:year;type:varchar(20);not null;default:''" json:"year"`
	Symptoms  string `gorm:"column:symptoms;type:text;not null;default:''" json:"symptoms"`
	Treatment string `gorm:"column:treatment;type:text;not null;default:''" json:"treatment"`
	Result    string `gorm:"column:result;type:text;not null;default:''" json:"result"`
}

func (HealthRecordModel) TableName() string { return "health_records" }
