// Package config provides configuration loading and validation for the
// VHouse conversation service. Values come from defaults, an optional
// config.yaml, and VHOUSE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	AI        AIConfig        `mapstructure:"ai"`
	Business  BusinessConfig  `mapstructure:"business"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig holds settings for the Gemini provider.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"       validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// OpenAIConfig holds settings for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string  `mapstructure:"model"       validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// AIConfig holds text generation gateway settings. Primary selects the
// preferred provider; the other configured provider acts as fallback.
type AIConfig struct {
	Primary   string        `mapstructure:"primary"    validate:"oneof=gemini openai"`
	Gemini    GeminiConfig  `mapstructure:"gemini"`
	OpenAI    OpenAIConfig  `mapstructure:"openai"`
	MaxTokens int           `mapstructure:"max_tokens" validate:"min=1,max=32768"`
	Timeout   time.Duration `mapstructure:"timeout"    validate:"min=1s,max=10m"`
}

// BusinessConfig holds deterministic business-rule parameters.
type BusinessConfig struct {
	TaxRate              float64 `mapstructure:"tax_rate"               validate:"min=0,max=1"`
	Currency             string  `mapstructure:"currency"               validate:"required,len=3"`
	RecentOrderWindow    int     `mapstructure:"recent_order_window"    validate:"min=1,max=50"`
	LargeOrderMultiplier float64 `mapstructure:"large_order_multiplier" validate:"gt=0"`
}

// TelegramConfig holds the optional back-office alert notifier settings.
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"         validate:"required_if=Enabled true"`
	AdminChatID int64  `mapstructure:"admin_chat_id" validate:"required_if=Enabled true"`
}

// TaskConfig describes one scheduled task entry.
type TaskConfig struct {
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Load reads configuration from the given YAML file and VHOUSE_* environment
// variables, applies defaults, and validates the result. A missing config
// file is not an error; everything can come from env vars and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("VHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "vhouse.db")

	v.SetDefault("ai.primary", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o")
	v.SetDefault("ai.openai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", 2*time.Minute)

	v.SetDefault("business.tax_rate", 0.16)
	v.SetDefault("business.currency", "MXN")
	v.SetDefault("business.recent_order_window", 5)
	v.SetDefault("business.large_order_multiplier", 2.0)

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.provider_health_reset.schedule", "0 */15 * * * *")
	v.SetDefault("scheduler.tasks.provider_health_reset.enabled", true)
}
