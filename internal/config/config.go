package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "VOICE"

// Placeholder secrets are fine for local runs and refused in release mode.
const (
	placeholderSecret        = "change-me"
	placeholderSessionSecret = "change-me-too"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	PongWait      time.Duration `mapstructure:"pong_wait"`
	WriteWait     time.Duration `mapstructure:"write_wait"`
	SendQueue     int           `mapstructure:"send_queue"`
	MaxViolations int           `mapstructure:"max_violations"`

	Secret        string `mapstructure:"secret"`
	SessionSecret string `mapstructure:"session_secret"`

	JoinRateLimit    int           `mapstructure:"join_rate_limit"`
	JoinRateInterval time.Duration `mapstructure:"join_rate_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("max_violations", 5)
	v.SetDefault("secret", placeholderSecret)
	v.SetDefault("session_secret", placeholderSessionSecret)
	v.SetDefault("join_rate_limit", 10)
	v.SetDefault("join_rate_interval", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). A missing
// file is not an error; VOICE_* variables override both file and defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Port)
	case c.SendQueue <= 0:
		return errors.New("config: send_queue must be positive")
	case c.PingPeriod >= c.PongWait:
		return errors.New("config: ping_period must be shorter than pong_wait")
	case c.Secret == "":
		return errors.New("config: secret is required")
	case c.Mode == "release" && c.Secret == placeholderSecret:
		return errors.New("config: secret must be set in release mode")
	case c.Mode == "release" && (c.SessionSecret == "" || c.SessionSecret == placeholderSessionSecret):
		return errors.New("config: session_secret must be set in release mode")
	}
	return nil
}
