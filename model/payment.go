package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Payment statuses accepted by the API.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Payment is a billed item tied to a patient.
type Payment struct {
	gorm.Model
	PatientID uint    `json:"patient_id" gorm:"column:patient_id;not null;index"`
	Category  string  `json:"category" gorm:"column:category" example:"Examination"`
	Item      string  `json:"item" gorm:"column:item" example:"Consult"`
	Amount    float64 `json:"amount" gorm:"column:amount" example:"50"`
	Status    string  `json:"status" gorm:"column:status;default:pending" example:"pending"`
}

// Validate enforces the payment invariants: an item, a strictly positive
// amount, and a known status (empty defaults to pending at insert time).
func (p Payment) Validate() error {
	if p.Item == "" {
		return fmt.Errorf("payment item is required")
	}
	if p.Amount <= 0 {
		return fmt.Errorf("payment amount must be a positive number")
	}
	if p.Status != "" && p.Status != PaymentStatusPending && p.Status != PaymentStatusPaid {
		return fmt.Errorf("payment status must be pending or paid")
	}
	return nil
}
