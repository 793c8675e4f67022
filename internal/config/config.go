package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/revenuepulse/leakcalc/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	CRM        CRMConfig        `yaml:"crm" mapstructure:"crm"`
	Benchmarks BenchmarksConfig `yaml:"benchmarks" mapstructure:"benchmarks"`
	Sessions   SessionsConfig   `yaml:"sessions" mapstructure:"sessions"`
	Score      ScoreConfig      `yaml:"score" mapstructure:"score"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// CRMConfig holds Twenty CRM API settings.
type CRMConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	ResultsBaseURL string  `yaml:"results_base_url" mapstructure:"results_base_url"`
}

// BenchmarksConfig points at an optional industry benchmark override file.
type BenchmarksConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SessionsConfig configures temporary calculator session retention.
type SessionsConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ScoreConfig configures the batch rescoring command.
type ScoreConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// MonitoringConfig configures background health checks and alerting.
type MonitoringConfig struct {
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs       int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours     int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold    float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	UnscoredThreshold       int     `yaml:"unscored_threshold" mapstructure:"unscored_threshold"`
	ExpiredSessionThreshold int     `yaml:"expired_session_threshold" mapstructure:"expired_session_threshold"`
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
	v.SetEnvPrefix("LEAKCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("crm.base_url", "https://api.twenty.com")
	v.SetDefault("crm.rate_limit_rps", 5)
	v.SetDefault("crm.rate_limit_burst", 5)
	v.SetDefault("crm.results_base_url", "https://revenuepulse.io")
	v.SetDefault("sessions.ttl_hours", 24)
	v.SetDefault("score.concurrency", 5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.unscored_threshold", 50)
	v.SetDefault("monitoring.expired_session_threshold", 500)

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

// Validate checks that the configuration is complete for the given mode.
// Mode names match the CLI subcommands that need credentials: "serve" needs
// a database and a listen port, "sync" additionally needs CRM credentials,
// and "store" covers commands that only touch the database.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireDB := func() {
		// sqlite falls back to a local file DSN, so only postgres
		// needs an explicit URL.
		if c.Store.Driver != "sqlite" && c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}

	switch mode {
	case "store":
		requireDB()
	case "serve":
		requireDB()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "sync":
		requireDB()
		if c.CRM.APIKey == "" {
			problems = append(problems, "crm.api_key is required")
		}
		if c.CRM.BaseURL == "" {
			problems = append(problems, "crm.base_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Score.Concurrency < 1 || c.Score.Concurrency > 50 {
		problems = append(problems, "score.concurrency must be between 1 and 50")
	}
	if t := c.Monitoring.FailureRateThreshold; t < 0 || t > 1 {
		problems = append(problems, "monitoring.failure_rate_threshold must be between 0 and 1")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
