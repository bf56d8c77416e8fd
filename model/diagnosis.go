package model

import (
	"fmt"

	"gorm.io/gorm"
)

// DiagnosisCategories is the fixed set of accepted diagnosis categories.
// An empty category is also accepted and means "no category".
var DiagnosisCategories = []string{
	"Glaucoma",
	"Cataract",
	"Refractive Error",
	"Conjunctivitis",
	"Retina",
	"Cornea",
	"Other",
}

// Diagnosis is a clinical conclusion plus treatment plan tied to an examination.
type Diagnosis struct {
	gorm.Model
	ExamID    uint   `json:"exam_id" gorm:"column:exam_id;not null;index"`
	Diagnosis string `json:"diagnosis" gorm:"column:diagnosis" example:"Open-angle glaucoma"`
	Category  string `json:"category" gorm:"column:category" example:"Glaucoma"`
	Plan      string `json:"plan" gorm:"column:plan" example:"Timolol eye drops, review in 2 weeks"`
}

// ValidDiagnosisCategory reports whether category is empty or one of the fixed set.
func ValidDiagnosisCategory(category string) bool {
	if category == "" {
		return true
	}
	for _, c := range DiagnosisCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Validate checks required fields and the category enumeration.
func (d Diagnosis) Validate() error {
	if d.Diagnosis == "" {
		return fmt.Errorf("diagnosis text is required")
	}
	if !ValidDiagnosisCategory(d.Category) {
		return fmt.Errorf("unknown diagnosis category: %s", d.Category)
	}
	return nil
}
