// Package config loads launchpath.yaml and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	FileName   = "launchpath.yaml"
	envFile    = ".env"
	dbFileName = "launchpath.db"
)

type Config struct {
	Database   DatabaseConfig `yaml:"database"`
	Reasoning  AIConfig       `yaml:"reasoning"`
	Formatting AIConfig       `yaml:"formatting"`
	Delivery   DeliveryConfig `yaml:"delivery"`
	Dispatch   DispatchConfig `yaml:"dispatch"`
	Adjust     AdjustConfig   `yaml:"adjust"`
	Plan       PlanConfig     `yaml:"plan"`
}

type DatabaseConfig struct {
	// Path is relative to the data directory unless absolute.
	Path string `yaml:"path"`
}

// AIConfig selects a provider for one role. API keys are never stored
// here; they come from ANTHROPIC_API_KEY and OPENAI_API_KEY.
type AIConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	TimeoutSec   int    `yaml:"timeout_sec,omitempty"`
	MaxAttempts  int    `yaml:"max_attempts,omitempty"`
	RetryDelayMs int    `yaml:"retry_delay_ms,omitempty"`
}

type DeliveryConfig struct {
	Twilio   TwilioConfig   `yaml:"twilio"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"-"`
	From       string `yaml:"from"`
	BaseURL    string `yaml:"base_url,omitempty"`
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type SendGridConfig struct {
	APIKey   string `yaml:"-"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

func (c SendGridConfig) Enabled() bool {
	return c.APIKey != "" && c.From != ""
}

// WebhookConfig routes every message to a single signed endpoint. It is
// used for any channel without a provider.
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"-"`
	// DeadLetterFile receives messages that failed every retry, relative
	// to the data directory. Empty disables it.
	DeadLetterFile string `yaml:"dead_letter_file,omitempty"`
}

type DispatchConfig struct {
	Workers     int `yaml:"workers"`
	SMSMaxChars int `yaml:"sms_max_chars"`
}

type AdjustConfig struct {
	// MaxRemovalRatio caps removals per adjustment as a share of the
	// remaining tasks. Zero disables the cap.
	MaxRemovalRatio float64 `yaml:"max_removal_ratio"`
	SkipThreshold   int     `yaml:"skip_threshold"`
}

type PlanConfig struct {
	DefaultDurationDays int `yaml:"default_duration_days"`
}

func Default() *Config {
	return &Config{
		Database:   DatabaseConfig{Path: dbFileName},
		Reasoning:  AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-20250514", TimeoutSec: 60, MaxAttempts: 1},
		Formatting: AIConfig{Provider: "openai", Model: "gpt-4o-mini", TimeoutSec: 30, MaxAttempts: 1},
		Delivery: DeliveryConfig{
			SendGrid: SendGridConfig{FromName: "LaunchPath"},
		},
		Dispatch: DispatchConfig{Workers: 4, SMSMaxChars: 300},
		Adjust:   AdjustConfig{SkipThreshold: 3},
		Plan:     PlanConfig{DefaultDurationDays: 30},
	}
}

// Load reads dataDir/.env into the process environment, then
// dataDir/launchpath.yaml over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(dataDir string) (*Config, error) {
	envPath := filepath.Join(dataDir, envFile)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(filepath.Join(dataDir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to dataDir/launchpath.yaml. Secrets are not written.
func Save(dataDir string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, FileName), data, 0o600)
}

// DatabasePath resolves the database file against dataDir.
func (c *Config) DatabasePath(dataDir string) string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(dataDir, c.Database.Path)
}

// DeadLetterPath resolves the webhook dead letter file against dataDir.
// It returns "" when dead lettering is off.
func (c *Config) DeadLetterPath(dataDir string) string {
	p := c.Delivery.Webhook.DeadLetterFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

func (c *Config) Validate() error {
	if c.Adjust.MaxRemovalRatio < 0 || c.Adjust.MaxRemovalRatio > 1 {
		return fmt.Errorf("adjust.max_removal_ratio must be within [0, 1], got %v", c.Adjust.MaxRemovalRatio)
	}
	if c.Dispatch.Workers < 0 {
		return fmt.Errorf("dispatch.workers must not be negative")
	}
	if c.Plan.DefaultDurationDays < 0 {
		return fmt.Errorf("plan.default_duration_days must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"LAUNCHPATH_DB_PATH":        &c.Database.Path,
		"TWILIO_ACCOUNT_SID":        &c.Delivery.Twilio.AccountSID,
		"TWILIO_AUTH_TOKEN":         &c.Delivery.Twilio.AuthToken,
		"TWILIO_FROM_NUMBER":        &c.Delivery.Twilio.From,
		"SENDGRID_API_KEY":          &c.Delivery.SendGrid.APIKey,
		"SENDGRID_FROM_EMAIL":       &c.Delivery.SendGrid.From,
		"LAUNCHPATH_WEBHOOK_URL":    &c.Delivery.Webhook.URL,
		"LAUNCHPATH_WEBHOOK_SECRET": &c.Delivery.Webhook.Secret,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LAUNCHPATH_DISPATCH_WORKERS":   &c.Dispatch.Workers,
		"LAUNCHPATH_SKIP_THRESHOLD":     &c.Adjust.SkipThreshold,
		"LAUNCHPATH_PLAN_DURATION_DAYS": &c.Plan.DefaultDurationDays,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("LAUNCHPATH_MAX_REMOVAL_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LAUNCHPATH_MAX_REMOVAL_RATIO: %w", err)
		}
		c.Adjust.MaxRemovalRatio = f
	}
	return nil
}
