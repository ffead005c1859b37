package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BEAUTYBOOK_TEST_REDIS", "redis:6379")

	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "data", "app.db")+`
redis:
  address: ${BEAUTYBOOK_TEST_REDIS}
  cache_ttl_seconds: 60
booking:
  timezone: Europe/Madrid
  min_advance_minutes: 90
  retry_delays_millis: [50, 150]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, DefaultClinicPath, cfg.Clinic.Path)

	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
	assert.Equal(t, 90*time.Minute, cfg.BookingMinAdvance())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout())
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 150 * time.Millisecond}, cfg.RetryDelays())
	assert.Equal(t, 10*time.Second, cfg.LockTTL())
	assert.Equal(t, 2*time.Second, cfg.LockWait())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())

	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown store", "store: postgres\n", "unknown backend"},
		{"mongo without uri", "store: mongo\n", "mongo.uri is required"},
		{"bad timezone", "booking:\n  timezone: Mars/Olympus\n", "booking.timezone"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"negative delay", "booking:\n  retry_delays_millis: [10, -1]\n", "retry_delays_millis[1]"},
		{"broken yaml", "server: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			content := "database:\n  path: " + filepath.Join(dir, "app.db") + "\n" + tt.content
			_, err := Load(writeFile(t, dir, "config.yaml", content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
