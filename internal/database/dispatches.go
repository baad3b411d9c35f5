package database

import (
	"context"
	"fmt"

	"github.com/pathakanu/medMemo/internal/model"
	"gorm.io/gorm"
)

// DefaultRecentLimit bounds Recent when callers pass a non-positive limit.
const DefaultRecentLimit = 50

// DispatchLog stores every notification attempt made by the reminder loop.
type DispatchLog struct {
	db *gorm.DB
}

// NewDispatchLog wraps db.
func NewDispatchLog(db *gorm.DB) *DispatchLog {
	return &DispatchLog{db: db}
}

// Record appends a dispatch entry.
func (l *DispatchLog) Record(ctx context.Context, d model.Dispatch) error {
	if err := l.db.WithContext(ctx).Create(&d).Error; err != nil {
		return fmt.Errorf("record dispatch for %s: %w", d.MedicationID, err)
	}
	return nil
}

// Recent returns the latest dispatches, newest first.
func (l *DispatchLog) Recent(ctx context.Context, limit int) ([]model.Dispatch, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var dispatches []model.Dispatch
	if err := l.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&dispatches).Error; err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	return dispatches, nil
}

// ForMedication returns every dispatch recorded for a medication, oldest first.
func (l *DispatchLog) ForMedication(ctx context.Context, medicationID string) ([]model.Dispatch, error) {
	var dispatches []model.Dispatch
	if err := l.db.WithContext(ctx).
		Where("medication_id = ?", medicationID).
		Order("created_at ASC, id ASC").
		Find(&dispatches).Error; err != nil {
		return nil, fmt.Errorf("list dispatches for %s: %w", medicationID, err)
	}
	return dispatches, nil
}
