package model

import "gorm.io/gorm"

// Clinic is an external referral target.
type Clinic struct {
	gorm.Model
	Name  string `json:"name" gorm:"column:name;not null" example:"Korle Bu Eye Centre"`
	Email string `json:"email" gorm:"column:email;uniqueIndex;size:191;not null" example:"referrals@korlebu.example"`
}
