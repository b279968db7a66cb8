// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/draftgrid/bigboard/internal/board"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig names the per-family input files.
type SourcesConfig struct {
	Seed         string `yaml:"seed" mapstructure:"seed"`
	Consensus    string `yaml:"consensus" mapstructure:"consensus"`
	Analyst      string `yaml:"analyst" mapstructure:"analyst"`
	Reports      string `yaml:"reports" mapstructure:"reports"`
	Reference    string `yaml:"reference" mapstructure:"reference"`
	Combine      string `yaml:"combine" mapstructure:"combine"`
	Production   string `yaml:"production" mapstructure:"production"`
	Film         string `yaml:"film" mapstructure:"film"`
	TeamProfiles string `yaml:"team_profiles" mapstructure:"team_profiles"`
	Season       int    `yaml:"season" mapstructure:"season"`
}

// Paths maps the configured source files into the loader pass.
func (s SourcesConfig) Paths() board.SourcePaths {
	return board.SourcePaths{
		Consensus:        s.Consensus,
		Analyst:          s.Analyst,
		Reports:          s.Reports,
		Reference:        s.Reference,
		Combine:          s.Combine,
		Production:       s.Production,
		Film:             s.Film,
		ProductionSeason: s.Season,
	}
}

// OutputConfig names the export files one build writes.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the board API server.
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
	v.SetEnvPrefix("BIGBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.seed", "data/seed.csv")
	v.SetDefault("sources.consensus", "data/consensus_boards.csv")
	v.SetDefault("sources.analyst", "data/analyst_ranks.csv")
	v.SetDefault("sources.reports", "data/analyst_reports.csv")
	v.SetDefault("sources.reference", "data/combine_reference.csv")
	v.SetDefault("sources.combine", "data/combine_results.csv")
	v.SetDefault("sources.production", "data/cfb_production.csv")
	v.SetDefault("sources.film", "data/film_traits.csv")
	v.SetDefault("sources.team_profiles", "data/team_profiles.yaml")
	v.SetDefault("sources.season", 0)
	v.SetDefault("output.dir", "out")
	v.SetDefault("store.database_url", "bigboard.db")
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
