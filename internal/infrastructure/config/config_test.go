package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no config.toml or .env leaks in
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "payout-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "payouts", cfg.Database.DBName)
	assert.Equal(t, time.Duration(0), cfg.Payout.GracePeriod)
	assert.Equal(t, 30*time.Second, cfg.Payout.LockTTL)
	assert.Equal(t, 20, cfg.Payout.DefaultPageSize)
	assert.Equal(t, 100, cfg.Payout.MaxPageSize)
	assert.Equal(t, 500, cfg.Payout.StatsBatchSize)
	assert.Equal(t, WalletModeLedger, cfg.Wallet.Mode)
	assert.Equal(t, "0 */1 * * *", cfg.Scheduler.OverdueSweepCron)
	assert.Equal(t, "", cfg.Redis.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PAYOUT_APP_PORT", "9000")
	t.Setenv("PAYOUT_DATABASE_HOST", "db.internal")
	t.Setenv("PAYOUT_PAYOUT_GRACE_PERIOD", "72h")
	t.Setenv("PAYOUT_WALLET_MODE", "http")
	t.Setenv("PAYOUT_WALLET_BASE_URL", "https://wallet.internal")
	t.Setenv("PAYOUT_SCHEDULER_OVERDUE_SWEEP_CRON", "*/15 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 72*time.Hour, cfg.Payout.GracePeriod)
	assert.Equal(t, WalletModeHTTP, cfg.Wallet.Mode)
	assert.Equal(t, "https://wallet.internal", cfg.Wallet.BaseURL)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.OverdueSweepCron)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAYOUT_REDIS_HOST=redis.local\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PAYOUT_REDIS_HOST") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis.local", cfg.Redis.Host)
	assert.Equal(t, "redis.local:6379", cfg.Redis.Addr())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	toml := `
[payout]
grace_period = "24h"
max_page_size = 50

[scheduler]
enabled = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Payout.GracePeriod)
	assert.Equal(t, 50, cfg.Payout.MaxPageSize)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"negative grace", func(c *Config) { c.Payout.GracePeriod = -time.Hour }, "grace_period"},
		{"page size above max", func(c *Config) { c.Payout.DefaultPageSize = 200 }, "default_page_size"},
		{"http wallet without url", func(c *Config) { c.Wallet.Mode = WalletModeHTTP }, "wallet.base_url"},
		{"relative wallet url", func(c *Config) {
			c.Wallet.Mode = WalletModeHTTP
			c.Wallet.BaseURL = "/wallet"
		}, "wallet.base_url"},
		{"unknown wallet mode", func(c *Config) { c.Wallet.Mode = "carrier-pigeon" }, "wallet.mode"},
		{"bad cron", func(c *Config) { c.Scheduler.OverdueSweepCron = "every hour" }, "overdue_sweep_cron"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "timezone"},
		{"sampling ratio", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"idle above open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"production short secret", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "short"
		}, "jwt.secret"},
		{"production sslmode", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
			c.Database.Password = "pw"
		}, "sslmode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN_EscapesPassword(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "payouts", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/payouts?sslmode=require", d.DSN())
}

func TestSchedulerLocation(t *testing.T) {
	assert.Equal(t, time.UTC, SchedulerConfig{}.Location())
	assert.Equal(t, time.UTC, SchedulerConfig{Timezone: "nowhere"}.Location())
	assert.Equal(t, "Africa/Lagos", SchedulerConfig{Timezone: "Africa/Lagos"}.Location().String())
}
