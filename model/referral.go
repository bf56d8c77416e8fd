package model

import (
	"time"

	"gorm.io/gorm"
)

// Referral records that a patient's data was sent to an external clinic.
type Referral struct {
	gorm.Model
	PatientID    uint      `json:"patient_id" gorm:"column:patient_id;not null;index"`
	ClinicID     uint      `json:"clinic_id" gorm:"column:clinic_id;not null"`
	Remark       string    `json:"remark" gorm:"column:remark"`
	ReferredByID uint      `json:"referred_by_id" gorm:"column:referred_by_id"`
	ReferredAt   time.Time `json:"referred_at" gorm:"column:referred_at"`
}
