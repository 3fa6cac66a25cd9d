package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port      int `yaml:"port"`       // public API
	AdminPort int `yaml:"admin_port"` // admin API + /metrics
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
	CookieDomain string        `yaml:"cookie_domain"`
}

// SettingsConfig replaces the original platform's mutable settings document.
// Values are injected into the use cases at startup.
type SettingsConfig struct {
	Currency                string        `yaml:"currency"`
	ReferralPurchasePercent float64       `yaml:"referral_purchase_percent"` // % of price on first activated purchase
	ReferralYieldPercent    float64       `yaml:"referral_yield_percent"`    // % of each daily yield
	MinWithdrawalAmount     float64       `yaml:"min_withdrawal_amount"`
	MinDepositAmount        float64       `yaml:"min_deposit_amount"`
	WithdrawalOpenHour      int           `yaml:"withdrawal_open_hour"`  // inclusive, local time
	WithdrawalCloseHour     int           `yaml:"withdrawal_close_hour"` // exclusive, local time
	Timezone                string        `yaml:"timezone"`
	GiftCodePrefix          string        `yaml:"gift_code_prefix"`
	PendingPaymentTTL       time.Duration `yaml:"pending_payment_ttl"` // M-Pesa purchase window
}

type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type SchedulerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Settings  SettingsConfig  `yaml:"settings"`
	Notify    NotifyConfig    `yaml:"notify"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Settings.WithdrawalOpenHour >= cfg.Settings.WithdrawalCloseHour {
		return nil, errors.New("settings.withdrawal_open_hour must precede close hour")
	}
	if _, err := time.LoadLocation(cfg.Settings.Timezone); err != nil {
		return nil, fmt.Errorf("settings.timezone: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AdminPort == 0 {
		cfg.Server.AdminPort = 8081
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	s := &cfg.Settings
	if s.Currency == "" {
		s.Currency = "KES"
	}
	if s.ReferralPurchasePercent == 0 {
		s.ReferralPurchasePercent = 15
	}
	if s.ReferralYieldPercent == 0 {
		s.ReferralYieldPercent = 5
	}
	if s.MinWithdrawalAmount == 0 {
		s.MinWithdrawalAmount = 100
	}
	if s.MinDepositAmount == 0 {
		s.MinDepositAmount = 50
	}
	if s.WithdrawalOpenHour == 0 && s.WithdrawalCloseHour == 0 {
		s.WithdrawalOpenHour = 9
		s.WithdrawalCloseHour = 16
	}
	if s.Timezone == "" {
		s.Timezone = "Africa/Nairobi"
	}
	if s.GiftCodePrefix == "" {
		s.GiftCodePrefix = "GIFT"
	}
	if s.PendingPaymentTTL <= 0 {
		s.PendingPaymentTTL = 30 * time.Minute
	}
	if cfg.Scheduler.ExpirySweepInterval <= 0 {
		cfg.Scheduler.ExpirySweepInterval = time.Minute
	}
}

// Location resolves the configured platform timezone. Validation at load time
// guarantees this cannot fail afterwards.
func (s SettingsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
