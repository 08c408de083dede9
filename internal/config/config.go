package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/haytac/emote-relay/internal/logging"
)

// EmotesConfig controls catalog loading and rendering defaults.
type EmotesConfig struct {
	DefaultSize            int    `mapstructure:"default_size"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
	LoadTimeoutSeconds     int    `mapstructure:"load_timeout_seconds"`
	UserAgent              string `mapstructure:"user_agent"`
}

// RefreshInterval returns the catalog refresh period.
func (c EmotesConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// LoadTimeout returns the deadline for one round of catalog loads.
func (c EmotesConfig) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutSeconds) * time.Second
}

// RenderConfig holds post-processing switches for rendered markup.
type RenderConfig struct {
	ExpandShortcodes bool `mapstructure:"expand_shortcodes"`
	Sanitize         bool `mapstructure:"sanitize"`
}

// TelegramConfig configures the relay bot.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// AppConfig holds the application configuration.
type AppConfig struct {
	DatabasePath string         `mapstructure:"database_path"`
	Log          logging.Config `mapstructure:"log"`
	MetricsPort  string         `mapstructure:"metrics_port"`
	ListenAddr   string         `mapstructure:"listen_addr"`
	Emotes       EmotesConfig   `mapstructure:"emotes"`
	Render       RenderConfig   `mapstructure:"render"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	DryRun       bool           // set by flag
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("database_path", "./emote_relay.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.json", false)
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("metrics_port", ":9090")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("emotes.default_size", 2)
	v.SetDefault("emotes.refresh_interval_seconds", 3600)
	v.SetDefault("emotes.load_timeout_seconds", 30)
	v.SetDefault("emotes.user_agent", "EmoteRelay/1.0")
	v.SetDefault("render.expand_shortcodes", false)
	v.SetDefault("render.sanitize", false)
	v.SetDefault("telegram.bot_token", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.emote-relay")
		v.AddConfigPath("/etc/emote-relay/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix("EMOTE_RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
