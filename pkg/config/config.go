// Package config loads munge settings from YAML, environment variables and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// PathEnv names the config file when no path is passed to Load.
const PathEnv = "MUNGE_CONFIG"

// Config is the root configuration.
type Config struct {
	LexicalTags       []string  `yaml:"lexical_tags"        env:"MUNGE_LEXICAL_TAGS"        env-default:"+N,+V,+A,+I,+D,+TA,+TI,+AI,+II,+Ipc,+Pron"`
	DefaultSource     string    `yaml:"default_source"      env:"MUNGE_DEFAULT_SOURCE"      env-default:"OS"`
	Workers           int       `yaml:"workers"             env:"MUNGE_WORKERS"             env-default:"1"`
	Normalize         bool      `yaml:"normalize"           env:"MUNGE_NORMALIZE"           env-default:"true"`
	InferParadigm     bool      `yaml:"infer_paradigm"      env:"MUNGE_INFER_PARADIGM"`
	AnalysisCacheSize int       `yaml:"analysis_cache_size" env:"MUNGE_ANALYSIS_CACHE_SIZE" env-default:"4096"`
	DBPath            string    `yaml:"db_path"             env:"MUNGE_DB"                  env-default:"munge.db"`
	BatchSize         int       `yaml:"batch_size"          env:"MUNGE_BATCH_SIZE"          env-default:"200"`
	MetricsFile       string    `yaml:"metrics_file"        env:"MUNGE_METRICS_FILE"`
	Log               LogConfig `yaml:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"MUNGE_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"MUNGE_LOG_FORMAT" env-default:"text"`
}

// Load reads configuration. Priority: ENV > YAML > defaults (via env-default
// tags). A .env file in the working directory is loaded into the environment
// first without overriding variables that are already set. The YAML path is
// path, or $MUNGE_CONFIG when path is empty; with neither, only ENV and
// defaults apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnv)
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if len(c.LexicalTags) == 0 {
		return fmt.Errorf("lexical_tags must not be empty")
	}
	for i, t := range c.LexicalTags {
		t = strings.TrimSpace(t)
		if t == "" {
			return fmt.Errorf("lexical_tags[%d] is blank", i)
		}
		c.LexicalTags[i] = t
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.AnalysisCacheSize < 0 {
		return fmt.Errorf("analysis_cache_size must be >= 0 (got %d)", c.AnalysisCacheSize)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json (got %q)", l.Format)
	}
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	return nil
}
