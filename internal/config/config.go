package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Secrets for access and refresh tokens are
// deliberately separate so one token kind can never verify as the other.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	// Connection pool tuning.
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	AccessSecret   string // secret signing access tokens
	RefreshSecret  string // secret signing refresh tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	EncKey string // static field-encryption key (rotation is out of band)

	// Password policy / account security.
	PasswordMinLength    int
	PasswordExpireDays   int
	PasswordHistoryCount int
	MaxLoginAttempts     int
	LockoutDuration      time.Duration
	ResetTokenTTL        time.Duration
	ResetBaseURL         string // base URL of the reset-password page in emails

	// SMTP.
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFromEmail string
	SMTPFromName  string

	// Document storage.
	StorageDir       string
	MaxUploadSizeMB  int
	AllowedFileTypes []string

	// Event publishing to RabbitMQ.
	PublishAuditEvents bool
}

// Load reads configuration from environment variables. Database settings and
// both JWT secrets are required; policy knobs fall back to the documented
// defaults (5 attempts, 15 minute lockout, 90 day expiry, history of 5,
// minimum length 12).
func Load() Config {
	return Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "8080"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		AccessSecret:   must("JWT_SECRET"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 12),

		EncKey: must("ENC_KEY"),

		PasswordMinLength:    envInt("PASSWORD_MIN_LENGTH", 12),
		PasswordExpireDays:   envInt("PASSWORD_EXPIRE_DAYS", 90),
		PasswordHistoryCount: envInt("PASSWORD_HISTORY_COUNT", 5),
		MaxLoginAttempts:     envInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:      time.Duration(envInt("LOCKOUT_DURATION_MINUTES", 15)) * time.Minute,
		ResetTokenTTL:        envDur("RESET_TOKEN_TTL", time.Hour),
		ResetBaseURL:         envStr("RESET_BASE_URL", "http://localhost:5173/reset-password"),

		SMTPHost:      envStr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromEmail: envStr("SMTP_FROM_EMAIL", "noreply@impacttracker.org"),
		SMTPFromName:  envStr("SMTP_FROM_NAME", "ImpactTracker"),

		StorageDir:       envStr("STORAGE_DIR", "data/documents"),
		MaxUploadSizeMB:  envInt("MAX_UPLOAD_SIZE_MB", 5),
		AllowedFileTypes: splitCSV(envStr("ALLOWED_FILE_TYPES", "pdf,jpg,jpeg,png,xlsx")),

		PublishAuditEvents: envBool("PUBLISH_AUDIT_EVENTS", false),
	}
}

// must retrieves a required environment variable. If the variable is unset
// or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
