// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// Config holds the full application configuration.
type Config struct {
	Source SourceConfig          `yaml:"source" mapstructure:"source"`
	Region zipindex.RegionConfig `yaml:"region" mapstructure:"region"`
	Server ServerConfig          `yaml:"server" mapstructure:"server"`
	Log    LogConfig             `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures where ZIP boundaries come from.
type SourceConfig struct {
	// Provider selects the boundary source: "arcgis" or "shapefile".
	Provider string `yaml:"provider" mapstructure:"provider"`

	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Layer        string  `yaml:"layer" mapstructure:"layer"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	SnapshotPath string  `yaml:"snapshot_path" mapstructure:"snapshot_path"`

	// Shapefile provider settings.
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	CodeField     string `yaml:"code_field" mapstructure:"code_field"`
	CodePrefix    string `yaml:"code_prefix" mapstructure:"code_prefix"`
}

// ServerConfig configures the HTTP API.
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
	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.provider", "arcgis")
	v.SetDefault("source.base_url", "https://services.arcgis.com/8Pc9XBTAsYuxx9Ny/arcgis/rest/services")
	v.SetDefault("source.layer", "ZipCode_gdb/FeatureServer/0")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.rate_per_sec", 5)
	v.SetDefault("source.snapshot_path", "explorer-snapshots.db")
	v.SetDefault("source.code_prefix", "33")
	region := zipindex.DefaultRegion()
	v.SetDefault("region.area_scale", region.AreaScale)
	v.SetDefault("region.bounds.min_lat", region.Bounds.MinLat)
	v.SetDefault("region.bounds.max_lat", region.Bounds.MaxLat)
	v.SetDefault("region.bounds.min_lon", region.Bounds.MinLon)
	v.SetDefault("region.bounds.max_lon", region.Bounds.MaxLon)
	v.SetDefault("region.bounds_padding_deg", region.BoundsPaddingDeg)
	v.SetDefault("region.nearest_cutoff_miles", region.NearestCutoffMiles)
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
