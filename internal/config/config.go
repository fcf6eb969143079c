package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverMongoDB  = "mongodb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	SQLite    SQLiteConfig
	Postgres  PostgresConfig
	S3        S3Config
	Sheets    SheetsConfig
	Reporting ReportingConfig
	Alerts    AlertsConfig
	AI        AIConfig
	Email     EmailConfig
	WhatsApp  WhatsAppConfig
	OAuth     OAuthConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

// AuthConfig holds the identity provider secret and the internal token.
type AuthConfig struct {
	JWTSecret     string
	InternalToken string
}

// StorageConfig selects the document backend.
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SQLiteConfig holds the database file path.
type SQLiteConfig struct {
	Path string
}

// PostgresConfig holds the connection string and pool size.
type PostgresConfig struct {
	URL      string
	MaxConns int
}

// S3Config holds object storage settings.
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	FeedingRange    string
}

// Enabled reports whether the Sheets export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// Recipient is a farm owner receiving scheduled digests.
type Recipient struct {
	UserID string
	Email  string
	Phone  string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DigestSchedule string
	WeeklySchedule string
	ExportSchedule string
	Timezone       string
	Recipients     []Recipient
}

// AlertsConfig tunes the dashboard.
type AlertsConfig struct {
	MaxAlerts int
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey   string
	Model          string
	ChatPerMinute  int
	ChatDailyLimit int
}

// EmailConfig holds the Resend settings.
type EmailConfig struct {
	ResendKey  string
	From       string
	MaxRetries int
}

// Enabled reports whether email sending is configured.
func (e EmailConfig) Enabled() bool { return e.ResendKey != "" }

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether WhatsApp delivery is configured.
func (w WhatsAppConfig) Enabled() bool { return w.AccessToken != "" && w.PhoneNumberID != "" }

// OAuthClient is a third-party application allowed to request consent.
type OAuthClient struct {
	ID           string
	Name         string
	RedirectURIs []string
	Scopes       []string
}

// OAuthConfig holds the consent settings.
type OAuthConfig struct {
	CodeSecret string
	Clients    []OAuthClient
}

// RateLimitConfig holds the per-IP request limit.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// a missing .env is fine when the environment carries the values
		_ = godotenv.Load()
	}

	recipients, err := parseRecipients(os.Getenv("REPORT_RECIPIENTS"))
	if err != nil {
		return nil, err
	}
	clients, err := parseOAuthClients(os.Getenv("OAUTH_CLIENTS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			Mode:            getenvWithDefault("GIN_MODE", "release"),
			ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			InternalToken: os.Getenv("INTERNAL_API_TOKEN"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getenvWithDefault("STORAGE_DRIVER", DriverMemory)),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "porkyfarm"),
		},
		SQLite: SQLiteConfig{
			Path: getenvWithDefault("SQLITE_PATH", "porkyfarm.db"),
		},
		Postgres: PostgresConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: getenvInt("DATABASE_MAX_CONNS", 10),
		},
		S3: S3Config{
			Region:          getenvWithDefault("S3_REGION", "us-east-1"),
			Bucket:          os.Getenv("S3_BUCKET"),
			Prefix:          getenvWithDefault("S3_PREFIX", "farms"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PathStyle:       getenvBool("S3_PATH_STYLE", false),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			FeedingRange:    getenvWithDefault("GOOGLE_SHEET_FEEDING_RANGE", "Feeding!A:F"),
		},
		Reporting: ReportingConfig{
			DigestSchedule: getenvWithDefault("ALERT_DIGEST_CRON", "0 7 * * *"),
			WeeklySchedule: getenvWithDefault("WEEKLY_REPORT_CRON", "0 18 * * 0"),
			ExportSchedule: os.Getenv("SHEETS_EXPORT_CRON"),
			Timezone:       getenvWithDefault("TIMEZONE", "UTC"),
			Recipients:     recipients,
		},
		Alerts: AlertsConfig{
			MaxAlerts: getenvInt("DASHBOARD_MAX_ALERTS", 10),
		},
		AI: AIConfig{
			AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			Model:          os.Getenv("ANTHROPIC_MODEL"),
			ChatPerMinute:  getenvInt("CHAT_RATE_PER_MINUTE", 10),
			ChatDailyLimit: getenvInt("CHAT_DAILY_LIMIT", 100),
		},
		Email: EmailConfig{
			ResendKey:  os.Getenv("RESEND_API_KEY"),
			From:       getenvWithDefault("EMAIL_FROM", "PorcPro <noreply@porcpro.app>"),
			MaxRetries: getenvInt("EMAIL_MAX_RETRIES", 3),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
			AppSecret:     os.Getenv("WHATSAPP_APP_SECRET"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		OAuth: OAuthConfig{
			CodeSecret: os.Getenv("OAUTH_CODE_SECRET"),
			Clients:    clients,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getenvFloat("RATE_LIMIT_RPS", 10),
			Burst:             getenvInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be provided")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb driver")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH must be provided for the sqlite driver")
		}
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL must be provided for the postgres driver")
		}
	case DriverS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET must be provided for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if len(c.OAuth.Clients) > 0 && c.OAuth.CodeSecret == "" {
		return errors.New("OAUTH_CODE_SECRET must be provided when OAUTH_CLIENTS is set")
	}

	return nil
}

// parseRecipients reads "user:email:phone" entries separated by ";".
func parseRecipients(raw string) ([]Recipient, error) {
	var out []Recipient
	for _, entry := range splitEntries(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid REPORT_RECIPIENTS entry %q", entry)
		}
		r := Recipient{UserID: parts[0], Email: parts[1]}
		if len(parts) > 2 {
			r.Phone = parts[2]
		}
		out = append(out, r)
	}
	return out, nil
}

// parseOAuthClients reads "id|name|uri,uri|scope scope" entries separated by ";".
func parseOAuthClients(raw string) ([]OAuthClient, error) {
	var out []OAuthClient
	for _, entry := range splitEntries(raw) {
		parts := strings.Split(entry, "|")
		if len(parts) != 4 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid OAUTH_CLIENTS entry %q", entry)
		}
		out = append(out, OAuthClient{
			ID:           parts[0],
			Name:         parts[1],
			RedirectURIs: strings.Split(parts[2], ","),
			Scopes:       strings.Fields(parts[3]),
		})
	}
	return out, nil
}

func splitEntries(raw string) []string {
	var out []string
	for _, e := range strings.Split(raw, ";") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
