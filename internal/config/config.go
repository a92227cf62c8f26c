// Package config loads crimemap settings from config.yaml and CRIMEMAP_*
// environment variables and initialises the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the source tables and picks the year range.
type DataConfig struct {
	Base           string `yaml:"base" mapstructure:"base"`
	FirstYear      int    `yaml:"first_year" mapstructure:"first_year"`
	LastYear       int    `yaml:"last_year" mapstructure:"last_year"`
	DefaultYear    int    `yaml:"default_year" mapstructure:"default_year"`
	IndicatorsFile string `yaml:"indicators_file" mapstructure:"indicators_file"`
	Boundaries     string `yaml:"boundaries" mapstructure:"boundaries"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// FetchConfig tunes remote downloads.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TempDir           string  `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// StoreConfig configures the export database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CRIMEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.base", "data")
	v.SetDefault("data.first_year", 2015)
	v.SetDefault("data.last_year", 2024)
	v.SetDefault("data.default_year", 2024)
	v.SetDefault("data.indicators_file", "")
	v.SetDefault("data.boundaries", "LondonBoroughs.geojson")
	v.SetDefault("data.concurrency", 0)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "crimemap/1.0")
	v.SetDefault("fetch.requests_per_second", 10)
	v.SetDefault("fetch.temp_dir", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "crimemap.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the loader cannot work with.
func (c *Config) Validate() error {
	if c.Data.Base == "" {
		return eris.New("config: data.base is required")
	}
	if c.Data.FirstYear <= 0 || c.Data.LastYear < c.Data.FirstYear {
		return eris.Errorf("config: invalid year range %d-%d", c.Data.FirstYear, c.Data.LastYear)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
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
