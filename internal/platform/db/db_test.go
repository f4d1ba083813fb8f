package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1.0.0"
mode: dev
database:
  host: 127.0.0.1
  port: 3306
  user: libris
  password: file-pass
  dbname: libris
auth:
  jwt_secret: file-secret
lending:
  loan_period_days: 7
  retry_max_attempts: 3
  retry_base_delay_ms: 20
  retry_jitter_factor: 0.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, ":8080", cfg.Addr) // 未指定ならデフォルト
	assert.Equal(t, "file-pass", cfg.DB.Password)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Lending.LoanPeriod())
	assert.Equal(t, 3, cfg.Lending.RetryMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Lending.RetryBaseDelay())
	assert.Equal(t, 0.5, cfg.Lending.RetryJitterFactor)
}

func TestLoadConfigEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
mode: release
database:
  host: db
  port: 3306
  user: libris
  password: file-pass
  dbname: libris
auth:
  jwt_secret: file-secret
`)

	t.Setenv("LEDGER_DB_PASSWORD", "env-pass")
	t.Setenv("LEDGER_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-pass", cfg.DB.Password)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLendingConfigNormalizeDefaults(t *testing.T) {
	var c LendingConfig
	c.Normalize()
	assert.Equal(t, 15, c.LoanPeriodDays)
	assert.Equal(t, 5, c.RetryMaxAttempts)
	assert.Equal(t, 10, c.RetryBaseDelayMS)
	assert.Equal(t, 0.3, c.RetryJitterFactor)

	// 範囲外のジッタ係数はデフォルトへ
	c = LendingConfig{LoanPeriodDays: 30, RetryMaxAttempts: 2, RetryBaseDelayMS: 5, RetryJitterFactor: 2}
	c.Normalize()
	assert.Equal(t, 30, c.LoanPeriodDays)
	assert.Equal(t, 0.3, c.RetryJitterFactor)
}
