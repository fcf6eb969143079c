package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// clearEnv unsets keys for the duration of the test. godotenv never
// overrides a variable that is present, even when empty.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var loadedKeys = []string{
	"AUTH_JWT_SECRET", "STORAGE_DRIVER", "SQLITE_PATH", "REPORT_RECIPIENTS",
	"OAUTH_CLIENTS", "OAUTH_CODE_SECRET", "DASHBOARD_MAX_ALERTS", "SHUTDOWN_TIMEOUT",
	"RESEND_API_KEY", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
	"APP_PORT", "TIMEZONE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_VERIFY_TOKEN", "WHATSAPP_APP_SECRET",
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, loadedKeys...)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(writeEnv(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Alerts.MaxAlerts)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Email.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t, loadedKeys...)

	path := writeEnv(t, `AUTH_JWT_SECRET=from-file
STORAGE_DRIVER=SQLite
SQLITE_PATH=/tmp/farm.db
REPORT_RECIPIENTS=u1:jo@farm.test:+224600000000;u2:al@farm.test
OAUTH_CLIENTS=vetapp|Vet App|https://vet.test/cb,https://vet.test/cb2|herd:read health:read
OAUTH_CODE_SECRET=codes
WHATSAPP_TOKEN=wa-token
WHATSAPP_PHONE_NUMBER_ID=1055
WHATSAPP_VERIFY_TOKEN=hub-secret
WHATSAPP_APP_SECRET=app-secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/farm.db", cfg.SQLite.Path)
	require.Len(t, cfg.Reporting.Recipients, 2)
	assert.Equal(t, Recipient{UserID: "u1", Email: "jo@farm.test", Phone: "+224600000000"}, cfg.Reporting.Recipients[0])
	assert.Empty(t, cfg.Reporting.Recipients[1].Phone)
	require.Len(t, cfg.OAuth.Clients, 1)
	assert.Equal(t, []string{"https://vet.test/cb", "https://vet.test/cb2"}, cfg.OAuth.Clients[0].RedirectURIs)
	assert.Equal(t, []string{"herd:read", "health:read"}, cfg.OAuth.Clients[0].Scopes)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, "hub-secret", cfg.WhatsApp.VerifyToken)
	assert.Equal(t, "app-secret", cfg.WhatsApp.AppSecret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Auth:      AuthConfig{JWTSecret: "x"},
			Storage:   StorageConfig{Driver: DriverMemory},
			Reporting: ReportingConfig{Timezone: "UTC"},
			RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"no secret":       func(c *Config) { c.Auth.JWTSecret = "" },
		"unknown driver":  func(c *Config) { c.Storage.Driver = "redis" },
		"mongo no uri":    func(c *Config) { c.Storage.Driver = DriverMongoDB },
		"postgres no url": func(c *Config) { c.Storage.Driver = DriverPostgres },
		"s3 no bucket":    func(c *Config) { c.Storage.Driver = DriverS3 },
		"bad timezone":    func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" },
		"no burst":        func(c *Config) { c.RateLimit.Burst = 0 },
		"oauth no secret": func(c *Config) { c.OAuth.Clients = []OAuthClient{{ID: "a"}} },
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			edit(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseRejectsMalformedEntries(t *testing.T) {
	_, err := parseRecipients("justauser")
	assert.Error(t, err)

	_, err = parseOAuthClients("id|name|uris")
	assert.Error(t, err)
}
