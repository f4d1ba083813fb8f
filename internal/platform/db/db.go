package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LendingConfig は貸出台帳のポリシー値（期間・リトライ上限）を持つ。
// ゼロ値のままなら Normalize でデフォルトに落とす。
type LendingConfig struct {
	LoanPeriodDays    int     `yaml:"loan_period_days"`
	RetryMaxAttempts  int     `yaml:"retry_max_attempts"`
	RetryBaseDelayMS  int     `yaml:"retry_base_delay_ms"`
	RetryJitterFactor float64 `yaml:"retry_jitter_factor"`
}

const (
	defaultLoanPeriodDays    = 15
	defaultRetryMaxAttempts  = 5
	defaultRetryBaseDelayMS  = 10
	defaultRetryJitterFactor = 0.3
)

func (c *LendingConfig) Normalize() {
	if c.LoanPeriodDays <= 0 {
		c.LoanPeriodDays = defaultLoanPeriodDays
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if c.RetryBaseDelayMS <= 0 {
		c.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if c.RetryJitterFactor <= 0 || c.RetryJitterFactor > 1 {
		c.RetryJitterFactor = defaultRetryJitterFactor
	}
}

func (c LendingConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

func (c LendingConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

type Config struct {
	Version      string         `yaml:"version"`
	Mode         string         `yaml:"mode"`
	Addr         string         `yaml:"addr"`
	DB           DatabaseConfig `yaml:"database"`
	Auth         AuthConfig     `yaml:"auth"`
	Lending      LendingConfig  `yaml:"lending"`
	UseMockStore bool           `yaml:"use_mock_store"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}

	// 秘匿値は環境変数（.env 経由含む）で上書きできる
	if v := os.Getenv("LEDGER_DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("LEDGER_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	cfg.Lending.Normalize()

	return &cfg, nil
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	// 接続プール（合算がMySQLの max_connections を超えないよう配分する）
	conn.SetMaxOpenConns(80)
	conn.SetMaxIdleConns(20)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	return conn, nil
}
