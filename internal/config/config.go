package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	PublicBaseURL   string
	LogLevel        string
	UseMemoryStores bool

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// WhatsApp Business Cloud configuration
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAPIBase       string

	// Conversation engine
	SessionTTL         time.Duration
	DedupeRetention    time.Duration
	DedupeSweepEvery   time.Duration
	DispatchLaneBuffer int
	AppointmentDays    int
	AppointmentSlots   []string
	EnableGrievance    bool
	EnableAppointment  bool
	EnableTracking     bool

	// Staff notifications
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	StaffAlertEmails   []string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		UseMemoryStores: getEnvAsBool("USE_MEMORY_STORES", false),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAPIBase:       getEnv("WHATSAPP_API_BASE", ""),

		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		DedupeRetention:    getEnvAsDuration("DEDUPE_RETENTION", 48*time.Hour),
		DedupeSweepEvery:   getEnvAsDuration("DEDUPE_SWEEP_EVERY", time.Hour),
		DispatchLaneBuffer: getEnvAsInt("DISPATCH_LANE_BUFFER", 16),
		AppointmentDays:    getEnvAsInt("APPOINTMENT_DAYS", 3),
		AppointmentSlots:   getEnvAsList("APPOINTMENT_SLOTS", "10:00 AM,12:00 PM,3:00 PM"),
		EnableGrievance:    getEnvAsBool("ENABLE_GRIEVANCE", true),
		EnableAppointment:  getEnvAsBool("ENABLE_APPOINTMENT", true),
		EnableTracking:     getEnvAsBool("ENABLE_TRACKING", true),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Civic Portal"),
		StaffAlertEmails:   getEnvAsList("STAFF_ALERT_EMAILS", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty entries.
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
