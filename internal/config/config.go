package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	DataFile             string
	DatabaseURL          string
	SQLitePath           string
	PollInterval         time.Duration
	ReminderTimezone     *time.Location
	NotificationsEnabled bool
	Notifiers            []string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	TwilioNotifyTo       string
	OpenAIAPIKey         string
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("REMINDER_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid REMINDER_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	pollSeconds := ParseIntEnv("POLL_INTERVAL_SECONDS", 30)
	if pollSeconds < 1 {
		log.Printf("config: POLL_INTERVAL_SECONDS=%d too small, using 1", pollSeconds)
		pollSeconds = 1
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		DataFile:             getenvDefault("DATA_FILE", "medications.json"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "dispatches.db"),
		PollInterval:         time.Duration(pollSeconds) * time.Second,
		ReminderTimezone:     location,
		NotificationsEnabled: ParseBoolEnv("NOTIFICATIONS_ENABLED", true),
		Notifiers:            splitList(getenvDefault("NOTIFIERS", "desktop,log")),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TwilioNotifyTo:       os.Getenv("TWILIO_NOTIFY_TO"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseBoolEnv returns the boolean value for an environment variable or the provided default.
func ParseBoolEnv(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as bool: %v", key, value, err)
		return def
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
