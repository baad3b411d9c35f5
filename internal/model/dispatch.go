package model

import "time"

// DispatchKind distinguishes the two notifications a medication can produce.
type DispatchKind string

const (
	DispatchDue     DispatchKind = "due"
	DispatchAdvance DispatchKind = "advance"
)

// Dispatch records a single notification attempt made by the reminder loop.
type Dispatch struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	MedicationID string       `gorm:"index;not null" json:"medication_id"`
	Kind         DispatchKind `gorm:"type:varchar(16);not null" json:"kind"`
	Title        string       `gorm:"type:text" json:"title"`
	Message      string       `gorm:"type:text" json:"message"`
	Minute       string       `gorm:"index;type:varchar(16)" json:"minute"`
	Delivered    bool         `json:"delivered"`
	Error        string       `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}
