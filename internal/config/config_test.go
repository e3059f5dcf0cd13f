package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: "postgres://localhost/tcms"
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, "Asia/Colombo", c.App.Timezone)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Empty(t, c.HTTP.APIToken)
	assert.Equal(t, "migrations", c.Postgres.Migrations)
	assert.Equal(t, 7, c.Access.DefaultFreeDays)
	assert.True(t, c.Scheduler.Enabled)
	assert.Equal(t, "5 0 * * *", c.Scheduler.LatePaySpec)
	assert.Equal(t, "0 9 * * *", c.Scheduler.ReminderSpec)
	assert.Equal(t, 2, c.Scheduler.ReminderDays)
	assert.Equal(t, time.Minute, c.Scheduler.JobTimeout)
	assert.False(t, c.Telegram.Enabled)
}

func TestLoad_Example(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.True(t, c.Metrics.Enabled)

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Colombo", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: "postgres://localhost/tcms"
access:
  default_free_days: 7
`)
	t.Setenv("APP_POSTGRES_DSN", "postgres://db/override")
	t.Setenv("APP_ACCESS_DEFAULT_FREE_DAYS", "10")
	t.Setenv("APP_HTTP_API_TOKEN", "s3cret")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/override", c.Postgres.DSN)
	assert.Equal(t, 10, c.Access.DefaultFreeDays)
	assert.Equal(t, "s3cret", c.HTTP.APIToken)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing dsn", body: "app:\n  env: dev\n"},
		{name: "telegram without token", body: "postgres:\n  dsn: x\ntelegram:\n  enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
