package model

import "time"

// Status is the intake state of a medication for the current day.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// ReminderSettings controls whether and how early a medication is announced.
type ReminderSettings struct {
	Enabled      bool `json:"enabled"`
	RemindBefore int  `json:"remind_before"`
}

// Medication is a single medication entry with schedule and reminder metadata.
type Medication struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Dosage           string           `json:"dosage"`
	Time             string           `json:"time"`
	Frequency        string           `json:"frequency"`
	Notes            string           `json:"notes"`
	Status           Status           `json:"status"`
	ReminderSettings ReminderSettings `json:"reminder_settings"`
	CreatedAt        time.Time        `json:"created_at"`
}

// EffectiveRemindBefore returns the advance offset in minutes, or 0 when
// reminders are disabled.
func (m Medication) EffectiveRemindBefore() int {
	if !m.ReminderSettings.Enabled || m.ReminderSettings.RemindBefore < 0 {
		return 0
	}
	return m.ReminderSettings.RemindBefore
}
