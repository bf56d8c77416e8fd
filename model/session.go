package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is a persisted login session backing a bearer token.
type Session struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"column:user_id;index"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;index;size:512"`
	ClientIP     string    `json:"client_ip" gorm:"column:client_ip"`
	Browser      string    `json:"browser" gorm:"column:browser"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at"`
}
