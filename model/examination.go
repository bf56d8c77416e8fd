package model

import "gorm.io/gorm"

// Examination represents a single eye-exam encounter's measurements
// @Description Visual acuity, refraction readings and chief complaint for one visit
type Examination struct {
	gorm.Model
	PatientID uint `json:"patient_id" gorm:"column:patient_id;not null;index"`
	StaffID   uint `json:"staff_id" gorm:"column:staff_id"`

	VisualAcuityLeft  string `json:"visual_acuity_left" gorm:"column:visual_acuity_left" example:"6/6"`
	VisualAcuityRight string `json:"visual_acuity_right" gorm:"column:visual_acuity_right" example:"6/9"`
	PinholeLeft       string `json:"pinhole_left" gorm:"column:pinhole_left"`
	PinholeRight      string `json:"pinhole_right" gorm:"column:pinhole_right"`

	AutoRefractionLeftSphere    string `json:"auto_refraction_left_sphere" gorm:"column:auto_refraction_left_sphere"`
	AutoRefractionLeftCylinder  string `json:"auto_refraction_left_cylinder" gorm:"column:auto_refraction_left_cylinder"`
	AutoRefractionLeftAxis      string `json:"auto_refraction_left_axis" gorm:"column:auto_refraction_left_axis"`
	AutoRefractionRightSphere   string `json:"auto_refraction_right_sphere" gorm:"column:auto_refraction_right_sphere"`
	AutoRefractionRightCylinder string `json:"auto_refraction_right_cylinder" gorm:"column:auto_refraction_right_cylinder"`
	AutoRefractionRightAxis     string `json:"auto_refraction_right_axis" gorm:"column:auto_refraction_right_axis"`

	SubjectiveRefractionLeftSphere    string `json:"subjective_refraction_left_sphere" gorm:"column:subjective_refraction_left_sphere"`
	SubjectiveRefractionLeftCylinder  string `json:"subjective_refraction_left_cylinder" gorm:"column:subjective_refraction_left_cylinder"`
	SubjectiveRefractionLeftAxis      string `json:"subjective_refraction_left_axis" gorm:"column:subjective_refraction_left_axis"`
	SubjectiveRefractionRightSphere   string `json:"subjective_refraction_right_sphere" gorm:"column:subjective_refraction_right_sphere"`
	SubjectiveRefractionRightCylinder string `json:"subjective_refraction_right_cylinder" gorm:"column:subjective_refraction_right_cylinder"`
	SubjectiveRefractionRightAxis     string `json:"subjective_refraction_right_axis" gorm:"column:subjective_refraction_right_axis"`

	ChiefComplaint string `json:"chief_complaint" gorm:"column:chief_complaint" example:"Blurry vision"`
}

// IsEmpty reports whether no examination field carries data. A registration
// with an all-empty examination must not create an examination row.
func (e Examination) IsEmpty() bool {
	fields := []string{
		e.VisualAcuityLeft, e.VisualAcuityRight,
		e.PinholeLeft, e.PinholeRight,
		e.AutoRefractionLeftSphere, e.AutoRefractionLeftCylinder, e.AutoRefractionLeftAxis,
		e.AutoRefractionRightSphere, e.AutoRefractionRightCylinder, e.AutoRefractionRightAxis,
		e.SubjectiveRefractionLeftSphere, e.SubjectiveRefractionLeftCylinder, e.SubjectiveRefractionLeftAxis,
		e.SubjectiveRefractionRightSphere, e.SubjectiveRefractionRightCylinder, e.SubjectiveRefractionRightAxis,
		e.ChiefComplaint,
	}
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
