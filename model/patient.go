package model

import (
	"time"

	"gorm.io/gorm"
)

// Patient represents a registered patient
// @Description Patient demographic and contact information
type Patient struct {
	gorm.Model
	Name             string     `json:"name" gorm:"column:name" example:"Ama Mensah"`
	Contact          string     `json:"contact" gorm:"column:contact" example:"0551234567"`
	Gender           string     `json:"gender" gorm:"column:gender" example:"Female"`
	Age              int        `json:"age" gorm:"column:age" example:"34"`
	Occupation       string     `json:"occupation" gorm:"column:occupation" example:"Teacher"`
	Venue            string     `json:"venue" gorm:"column:venue" example:"Accra"`
	GuarantorName    string     `json:"guarantor_name" gorm:"column:guarantor_name"`
	GuarantorContact string     `json:"guarantor_contact" gorm:"column:guarantor_contact"`
	ProfilePicture   string     `json:"profile_picture" gorm:"column:profile_picture"`
	AppointmentDate  *time.Time `json:"appointment_date" gorm:"column:appointment_date"`
	AppointmentFor   string     `json:"appointment_for" gorm:"column:appointment_for"`
	StaffID          uint       `json:"staff_id" gorm:"column:staff_id;index"`
}

// UpdatePatientRequest carries field-level patient updates; zero values mean "leave unchanged".
type UpdatePatientRequest struct {
	Name             string `json:"name"`
	Contact          string `json:"contact"`
	Gender           string `json:"gender"`
	Age              int    `json:"age"`
	Occupation       string `json:"occupation"`
	Venue            string `json:"venue"`
	GuarantorName    string `json:"guarantor_name"`
	GuarantorContact string `json:"guarantor_contact"`
	AppointmentDate  string `json:"appointment_date"`
	AppointmentFor   string `json:"appointment_for"`
}
