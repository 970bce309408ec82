package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderFirebase = "firebase"
	AuthProviderLocal    = "local"

	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
)

type Config struct {
	// Database (legacy REST surface + system logs)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity
	AuthProvider            string
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Local identity provider
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Document store
	DocstoreBackend string

	// Legacy REST surface
	LegacyAPIEnabled bool
	LegacyStorage    string

	// Notifications
	SendGridAPIKey string
	MailFromName   string
	MailFromEmail  string
	FCMStaffTopic  string

	// Clinic
	ClinicTimezone    string
	CatalogPath       string
	FanoutConcurrency int64
	ReminderSchedule  string
	LogRetention      time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
	LogLevel    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "clinic_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderFirebase)),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		DocstoreBackend: strings.ToLower(getEnv("DOCSTORE_BACKEND", BackendFirestore)),

		LegacyAPIEnabled: getBoolEnv("LEGACY_API_ENABLED", true),
		LegacyStorage:    strings.ToLower(getEnv("LEGACY_STORAGE", BackendMemory)),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFromName:   getEnv("MAIL_FROM_NAME", "LIMBS Orthopaedic"),
		MailFromEmail:  getEnv("MAIL_FROM", "appointments@limbsorthopaedic.org"),
		FCMStaffTopic:  getEnv("FCM_STAFF_TOPIC", ""),

		ClinicTimezone:    getEnv("CLINIC_TIMEZONE", "UTC"),
		CatalogPath:       getEnv("CATALOG_PATH", ""),
		FanoutConcurrency: int64(getIntEnv("FANOUT_CONCURRENCY", 16)),
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "0 8 * * *"),
		LogRetention:      parseDuration(getEnv("LOG_RETENTION", "720h"), 720*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// UsesPostgres reports whether any component needs a relational connection.
func (c *Config) UsesPostgres() bool {
	return c.LegacyAPIEnabled && c.LegacyStorage == BackendPostgres
}

// Location resolves ClinicTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		slog.Warn("invalid CLINIC_TIMEZONE, using UTC", "timezone", c.ClinicTimezone, "error", err)
		return time.UTC
	}
	return loc
}

// Validate returns a list of problems that prevent the server from starting.
func (c *Config) Validate() []string {
	var problems []string
	switch c.AuthProvider {
	case AuthProviderFirebase:
	case AuthProviderLocal:
		if c.JWTSecret == "" {
			problems = append(problems, "JWT_SECRET is required when AUTH_PROVIDER=local")
		}
	default:
		problems = append(problems, "AUTH_PROVIDER must be firebase or local")
	}

	switch c.DocstoreBackend {
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			problems = append(problems, "FIREBASE_PROJECT_ID is required when DOCSTORE_BACKEND=firestore")
		}
	case BackendMemory:
	default:
		problems = append(problems, "DOCSTORE_BACKEND must be firestore or memory")
	}

	if c.AuthProvider == AuthProviderFirebase && c.FirebaseProjectID == "" {
		problems = append(problems, "FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=firebase")
	}

	if c.UsesPostgres() && c.DBPassword == "" {
		problems = append(problems, "DB_PASSWORD is required when LEGACY_STORAGE=postgres")
	}
	return problems
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getIntEnv(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
