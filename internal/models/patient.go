package models

import "time"

// Patient is a single hospital patient record.
type Patient struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:username;size:40;not null;index" json:"name"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;type:date;not null" json:"date_of_birth"`
	Sick        bool      `gorm:"column:is_sick;not null;default:false" json:"sick"`
	Score       int       `gorm:"column:score;not null;default:0" json:"score"`
}

func (Patient) TableName() string { return "patients" }
