package model

import "gorm.io/gorm"

// Finding is a discrete clinical observation tied to an examination.
type Finding struct {
	gorm.Model
	ExamID  uint   `json:"exam_id" gorm:"column:exam_id;not null;index"`
	Type    string `json:"type" gorm:"column:type" example:"Lens"`
	Finding string `json:"finding" gorm:"column:finding" example:"Cataract"`
}
