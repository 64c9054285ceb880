// Package config loads service settings and installs the global logger.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix namespaces environment overrides, e.g. VALUATION_POSTGRES_URL.
const EnvPrefix = "VALUATION"

type Config struct {
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Postgres      PostgresConfig      `yaml:"postgres" mapstructure:"postgres"`
	Redis         RedisConfig         `yaml:"redis" mapstructure:"redis"`
	Questionnaire QuestionnaireConfig `yaml:"questionnaire" mapstructure:"questionnaire"`
	Continuation  ContinuationConfig  `yaml:"continuation" mapstructure:"continuation"`
	Mail          MailConfig          `yaml:"mail" mapstructure:"mail"`
	Salesforce    SalesforceConfig    `yaml:"salesforce" mapstructure:"salesforce"`
}

type ServerConfig struct {
	Port           string   `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type PostgresConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

type QuestionnaireConfig struct {
	ID  string `yaml:"id" mapstructure:"id"`
	TTL string `yaml:"ttl" mapstructure:"ttl"`
}

// ContinuationConfig controls save-and-continue links.
type ContinuationConfig struct {
	TTL           string  `yaml:"ttl" mapstructure:"ttl"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerMinute float64 `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
}

// MailConfig selects the email provider: "log" or "http".
type MailConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	From     string `yaml:"from" mapstructure:"from"`
}

// SalesforceConfig enables lead sync when ClientID is set.
type SalesforceConfig struct {
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	Username  string  `yaml:"username" mapstructure:"username"`
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Load reads YAML config from path, then applies environment overrides. A
// missing file is not an error; defaults and environment still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("postgres.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("questionnaire.id", "business-valuation")
	v.SetDefault("questionnaire.ttl", "10m")
	v.SetDefault("continuation.ttl", "72h")
	v.SetDefault("continuation.base_url", "http://localhost:3000/assessment/continue")
	v.SetDefault("continuation.rate_per_minute", 3)
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.base_url", "https://api.resend.com")
	v.SetDefault("mail.from", "Business Valuation <valuation@example.com>")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.rate_limit", 5)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, eris.Wrap(err, "config: read file")
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, eris.Wrap(err, "config: stat file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: unmarshal")
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
