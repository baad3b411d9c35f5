package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_FILE", "POLL_INTERVAL_SECONDS", "REMINDER_TIMEZONE", "NOTIFICATIONS_ENABLED", "NOTIFIERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataFile != "medications.json" {
		t.Fatalf("DataFile = %q, want medications.json", cfg.DataFile)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if !cfg.NotificationsEnabled {
		t.Fatalf("expected notifications enabled by default")
	}
	if len(cfg.Notifiers) != 2 || cfg.Notifiers[0] != "desktop" || cfg.Notifiers[1] != "log" {
		t.Fatalf("Notifiers = %v, want [desktop log]", cfg.Notifiers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECONDS", "0")
	t.Setenv("REMINDER_TIMEZONE", "Asia/Kolkata")
	t.Setenv("NOTIFICATIONS_ENABLED", "false")
	t.Setenv("NOTIFIERS", " Desktop, ,twilio ")

	cfg := Load()
	if cfg.PollInterval != time.Second {
		t.Fatalf("PollInterval = %v, want clamp to 1s", cfg.PollInterval)
	}
	if cfg.ReminderTimezone.String() != "Asia/Kolkata" {
		t.Fatalf("ReminderTimezone = %v", cfg.ReminderTimezone)
	}
	if cfg.NotificationsEnabled {
		t.Fatalf("expected notifications disabled")
	}
	if len(cfg.Notifiers) != 2 || cfg.Notifiers[0] != "desktop" || cfg.Notifiers[1] != "twilio" {
		t.Fatalf("Notifiers = %v", cfg.Notifiers)
	}
}

func TestLoadInvalidTimezoneFallsBack(t *testing.T) {
	t.Setenv("REMINDER_TIMEZONE", "Mars/Olympus")

	cfg := Load()
	if cfg.ReminderTimezone != time.Local {
		t.Fatalf("expected time.Local fallback, got %v", cfg.ReminderTimezone)
	}
}

func TestParseIntEnvInvalid(t *testing.T) {
	t.Setenv("MEDMEMO_TEST_INT", "abc")
	if got := ParseIntEnv("MEDMEMO_TEST_INT", 7); got != 7 {
		t.Fatalf("ParseIntEnv = %d, want default 7", got)
	}
}
