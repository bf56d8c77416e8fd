package model

import "gorm.io/gorm"

// User is a staff, doctor, or admin account.
type User struct {
	gorm.Model
	Name           string `json:"name" gorm:"column:name" example:"Kofi Asante"`
	Email          string `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"kofi@starvision.example"`
	Phone          string `json:"phone" gorm:"column:phone" example:"0249876543"`
	Password       string `json:"-" gorm:"column:password"`
	PasswordSalt   string `json:"-" gorm:"column:password_salt"`
	RoleID         uint32 `json:"role_id" gorm:"column:role_id"`
	FailedAttempts int    `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *int64 `json:"-" gorm:"column:locked_until"`
}

// StaffSummary is the registrant view embedded in the full patient record.
type StaffSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}
