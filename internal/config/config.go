package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Cohort     CohortConfig     `yaml:"cohort" mapstructure:"cohort"`
	Stats      StatsConfig      `yaml:"stats" mapstructure:"stats"`
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the three source tables and controls how they load.
type DataConfig struct {
	// Source is a directory, an http(s)/ftp base URL, or a .zip bundle.
	Source              string `yaml:"source" mapstructure:"source"`
	ChildFile           string `yaml:"child_file" mapstructure:"child_file"`
	RiskFile            string `yaml:"risk_file" mapstructure:"risk_file"`
	ParticipationFile   string `yaml:"participation_file" mapstructure:"participation_file"`
	DuplicateRiskPolicy string `yaml:"duplicate_risk_policy" mapstructure:"duplicate_risk_policy"`
	PartialLoad         bool   `yaml:"partial_load" mapstructure:"partial_load"`
	TimeoutSecs         int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries          int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent           string `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the load audit log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// CohortConfig configures the cohort explorer.
type CohortConfig struct {
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// StatsConfig holds the small-sample thresholds of the ranked views.
type StatsConfig struct {
	MinCountySize     int `yaml:"min_county_size" mapstructure:"min_county_size"`
	MinCountyTierSize int `yaml:"min_county_tier_size" mapstructure:"min_county_tier_size"`
	MinRegionSize     int `yaml:"min_region_size" mapstructure:"min_region_size"`
	MinProgramSize    int `yaml:"min_program_size" mapstructure:"min_program_size"`
	TopN              int `yaml:"top_n" mapstructure:"top_n"`
	TopHighRisk       int `yaml:"top_high_risk" mapstructure:"top_high_risk"`
	TopDrivers        int `yaml:"top_drivers" mapstructure:"top_drivers"`
}

// SimulationConfig parameterizes the intervention scenario.
type SimulationConfig struct {
	SampleSize      int     `yaml:"sample_size" mapstructure:"sample_size"`
	Share           float64 `yaml:"share" mapstructure:"share"`
	Reduction       float64 `yaml:"reduction" mapstructure:"reduction"`
	CostPerChild    float64 `yaml:"cost_per_child" mapstructure:"cost_per_child"`
	BenefitPerChild float64 `yaml:"benefit_per_child" mapstructure:"benefit_per_child"`
	// Seed fixes the random stream; 0 seeds from the clock.
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// MonitoringConfig configures load health alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StaleAfterHours      int     `yaml:"stale_after_hours" mapstructure:"stale_after_hours"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
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
	v.SetEnvPrefix("READINESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.source", "./data")
	v.SetDefault("data.child_file", "Child.csv")
	v.SetDefault("data.risk_file", "risk_scores.csv")
	v.SetDefault("data.participation_file", "ChildParticipation.csv")
	v.SetDefault("data.duplicate_risk_policy", "reject")
	v.SetDefault("data.partial_load", false)
	v.SetDefault("data.timeout_secs", 30)
	v.SetDefault("data.max_retries", 1)
	v.SetDefault("data.user_agent", "readiness-cli/1.0")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "readiness.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("cohort.page_size", 25)
	v.SetDefault("stats.min_county_size", 20)
	v.SetDefault("stats.min_county_tier_size", 30)
	v.SetDefault("stats.min_region_size", 50)
	v.SetDefault("stats.min_program_size", 20)
	v.SetDefault("stats.top_n", 15)
	v.SetDefault("stats.top_high_risk", 10)
	v.SetDefault("stats.top_drivers", 5)
	v.SetDefault("simulation.sample_size", 500)
	v.SetDefault("simulation.share", 0.2)
	v.SetDefault("simulation.reduction", 0.2)
	v.SetDefault("simulation.cost_per_child", 3000)
	v.SetDefault("simulation.benefit_per_child", 8000)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.stale_after_hours", 48)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)
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

// Validate checks the settings a command mode depends on. Modes are "load"
// (any command reading the source) and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "load", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Data.Source == "" {
		problems = append(problems, "data.source is required")
	}
	switch c.Data.DuplicateRiskPolicy {
	case "reject", "first":
	default:
		problems = append(problems, fmt.Sprintf("data.duplicate_risk_policy must be reject or first, got %q", c.Data.DuplicateRiskPolicy))
	}
	if c.Data.MaxRetries < 1 {
		problems = append(problems, "data.max_retries must be >= 1")
	}
	switch c.Store.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite, postgres or none, got %q", c.Store.Driver))
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Cohort.PageSize < 1 || c.Cohort.PageSize > 500 {
			problems = append(problems, "cohort.page_size must be between 1 and 500")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			problems = append(problems, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
