package model

import "time"

// Patient is a registered patient record
type Patient struct {
	BaseModel
	FullName    string     `gorm:"type:varchar(255);not null" json:"full_name" validate:"required"`
	Gender      string     `gorm:"type:varchar(10)" json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate   *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	PhoneNumber string     `gorm:"type:varchar(20);uniqueIndex" json:"phone_number" validate:"required"`
	Address     string     `gorm:"type:text" json:"address"`
	BloodGroup  string     `gorm:"type:varchar(5)" json:"blood_group"`
	MedicalNote string     `gorm:"type:text" json:"medical_note"`
}
