package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Seed    SeedConfig    `yaml:"seed" mapstructure:"seed"`
	Merge   MergeConfig   `yaml:"merge" mapstructure:"merge"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// StoreConfig configures the database backend. For sqlite, DatabaseURL is
// a file path.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SeedConfig supplies the location defaults for winery datasets that omit them.
type SeedConfig struct {
	DefaultCountry  string `yaml:"default_country" mapstructure:"default_country"`
	NapaRegion      string `yaml:"napa_region" mapstructure:"napa_region"`
	LivermoreRegion string `yaml:"livermore_region" mapstructure:"livermore_region"`
}

// MergeConfig configures snapshot merging.
type MergeConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// ScrapeConfig configures browser capture.
type ScrapeConfig struct {
	UserAgent         string `yaml:"user_agent" mapstructure:"user_agent"`
	CardSelector      string `yaml:"card_selector" mapstructure:"card_selector"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Concurrency       int    `yaml:"concurrency" mapstructure:"concurrency"`
	ChromePath        string `yaml:"chrome_path" mapstructure:"chrome_path"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MetricsConfig configures ingestion counters and catalog gauges.
type MetricsConfig struct {
	// Textfile, when set, receives the ingestion counters after each seed run.
	Textfile    string `yaml:"textfile" mapstructure:"textfile"`
	RefreshSecs int    `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// Load reads configuration from an optional .env file, an optional
// config.yaml in the working directory, and CELLAR_* environment variables.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CELLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cellar.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("seed.default_country", "United States")
	v.SetDefault("seed.napa_region", "Napa Valley")
	v.SetDefault("seed.livermore_region", "Livermore Valley")
	v.SetDefault("merge.key", "name_vintage")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; CellarBot/1.0)")
	v.SetDefault("scrape.card_selector", "")
	v.SetDefault("scrape.timeout_secs", 60)
	v.SetDefault("scrape.requests_per_minute", 20)
	v.SetDefault("scrape.concurrency", 2)
	v.SetDefault("scrape.chrome_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.refresh_secs", 60)

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

// loadDotEnv exports variables from path when it exists. Variables already
// set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return eris.Wrapf(err, "config: load %s", path)
	}
	return nil
}

// Validate checks the settings a command mode depends on. Modes are
// "seed", "scrape", "serve" and "merge".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, "log.format must be json or console")
	}

	needStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		} else if c.Store.Driver == "postgres" && !isPostgresDSN(c.Store.DatabaseURL) {
			errs = append(errs, "store.database_url must be a postgres:// URL or key=value DSN when store.driver is postgres")
		}
		if c.Store.MaxConns < 0 {
			errs = append(errs, "store.max_conns must be >= 0")
		}
	}

	switch mode {
	case "seed":
		needStore()
		if c.Seed.DefaultCountry == "" {
			errs = append(errs, "seed.default_country is required")
		}
	case "merge":
		switch c.Merge.Key {
		case "", "name_vintage", "name_vineyard":
		default:
			errs = append(errs, "merge.key must be name_vintage or name_vineyard")
		}
	case "scrape":
		if c.Scrape.TimeoutSecs <= 0 {
			errs = append(errs, "scrape.timeout_secs must be > 0")
		}
		if c.Scrape.RequestsPerMinute < 0 {
			errs = append(errs, "scrape.requests_per_minute must be >= 0")
		}
		if c.Scrape.Concurrency < 0 {
			errs = append(errs, "scrape.concurrency must be >= 0")
		}
	case "serve":
		needStore()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// isPostgresDSN reports whether dsn looks like a pgx connection string
// rather than a SQLite file path such as the default cellar.db.
func isPostgresDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "=")
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
