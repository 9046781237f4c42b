package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":              "test",
		"APP_PORT":             "5000",
		"DB_USER":              "taskflow",
		"DB_HOST":              "127.0.0.1",
		"DB_PORT":              "3306",
		"DB_NAME":              "taskflow",
		"ACCESS_TOKEN_SECRET":  "access",
		"REFRESH_TOKEN_SECRET": "refresh",
		"ACCESS_TOKEN_TTL":     "15m",
		"REFRESH_TOKEN_TTL":    "168h",
		"BCRYPT_COST":          "10",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("REFRESH_ROTATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.RefreshRotate)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, time.Duration(0), cfg.SweepInterval)
}

func TestLoad_ReportsEveryMissingVariable(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("DB_NAME", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "bad duration", key: "ACCESS_TOKEN_TTL", val: "15", want: "invalid duration for ACCESS_TOKEN_TTL"},
		{name: "bad cost", key: "BCRYPT_COST", val: "ten", want: "invalid int for BCRYPT_COST"},
		{name: "shared secret", key: "REFRESH_TOKEN_SECRET", val: "access", want: "must differ"},
		{name: "access outlives refresh", key: "ACCESS_TOKEN_TTL", val: "200h", want: "shorter than"},
		{name: "cost too low", key: "BCRYPT_COST", val: "3", want: "BCRYPT_COST must be within"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDotEnv_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TASKFLOW_TEST_A=from-file\nTASKFLOW_TEST_B=from-file\n"), 0o600))
	t.Setenv("TASKFLOW_TEST_A", "from-env")
	t.Setenv("TASKFLOW_TEST_B", "")
	os.Unsetenv("TASKFLOW_TEST_B")

	config.LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-env", os.Getenv("TASKFLOW_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("TASKFLOW_TEST_B"))
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("RATE_LIMIT_KEY", "bogus")

	rl := config.LoadRateLimitConfig()
	assert.True(t, rl.Enabled)
	assert.Equal(t, 1, rl.Burst)
	assert.Equal(t, 2*time.Second, rl.Interval())
	assert.Equal(t, "ip_route", rl.KeyBy)
	assert.Equal(t, "rl:auth", rl.Prefix)
}

func TestLoadRateLimitConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_KEY", "IP")

	rl := config.LoadRateLimitConfig()
	assert.False(t, rl.Enabled)
	assert.Equal(t, "ip", rl.KeyBy)
	assert.Equal(t, 20, rl.PerMinute)
}
