// Package config loads application configuration and sets up logging.
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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	ETL     ETLConfig     `yaml:"etl" mapstructure:"etl"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres only
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// GeocodeConfig configures the resolution cascade and its providers.
type GeocodeConfig struct {
	CachePath    string        `yaml:"cache_path" mapstructure:"cache_path"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MinDelay     time.Duration `yaml:"min_delay" mapstructure:"min_delay"`
	CEPBaseURL   string        `yaml:"cep_base_url" mapstructure:"cep_base_url"`
	SearchURL    string        `yaml:"search_url" mapstructure:"search_url"`
	DefaultState string        `yaml:"default_state" mapstructure:"default_state"`
}

// ETLConfig configures the batch run.
type ETLConfig struct {
	InputPath       string `yaml:"input_path" mapstructure:"input_path"`
	SheetName       string `yaml:"sheet_name" mapstructure:"sheet_name"`
	CommitEvery     int    `yaml:"commit_every" mapstructure:"commit_every"`
	CacheFlushEvery int    `yaml:"cache_flush_every" mapstructure:"cache_flush_every"`
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MAPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/unidades.db")
	v.SetDefault("geocode.cache_path", "data/geocache_uc.json")
	v.SetDefault("geocode.user_agent", "ledax-mapa-unidades/2.0")
	v.SetDefault("geocode.min_delay", time.Second)
	v.SetDefault("etl.input_path", "data/Tabela_UC.xlsx")
	v.SetDefault("etl.commit_every", 200)
	v.SetDefault("etl.cache_flush_every", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
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
