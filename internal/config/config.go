// Package config loads nutrify settings from flags, NUTRIFY_* environment
// variables, an optional .env file and $XDG_CONFIG_HOME/nutrify/config.yaml.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/wizard"
)

// EnvPrefix prefixes every environment override, e.g. NUTRIFY_API_BASE_URL.
const EnvPrefix = "NUTRIFY"

type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Update     UpdateConfig     `mapstructure:"update"`
	LLM        LLMConfig        `mapstructure:"llm"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AssessmentConfig struct {
	Mode string `mapstructure:"mode"`
	Type string `mapstructure:"type"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type UpdateConfig struct {
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
}

type LLMConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty the XDG location is tried
	// and a missing file is not an error.
	File string

	// EnvFile is loaded into the process environment before reading
	// NUTRIFY_* variables. Defaults to ".env"; missing files are skipped.
	EnvFile string

	// Overrides are dotted keys set from command-line flags. They win over
	// every other source.
	Overrides map[string]any
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("assessment.mode", string(wizard.ModeStatic))
	v.SetDefault("assessment.type", string(assessment.TypeBasic))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("db.path", "")
	v.SetDefault("update.owner", "abhisek")
	v.SetDefault("update.repo", "nutrify")
	v.SetDefault("llm.timeout", "30s")
}

// Load reads the configuration and validates it.
func Load(opts Options) (*Config, error) {
	loadEnvFile(opts.EnvFile)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else if dir := Dir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	// Already-set variables win over the file.
	_ = godotenv.Load(path)
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api.base_url: missing host")
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if _, err := wizard.ParseMode(c.Assessment.Mode); err != nil {
		return fmt.Errorf("assessment.mode: %w", err)
	}
	if _, err := assessment.ParseType(c.Assessment.Type); err != nil {
		return fmt.Errorf("assessment.type: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (want console or json)", c.Log.Format)
	}
	return nil
}

// Mode returns the parsed wizard mode. Validate has already checked it.
func (c *Config) Mode() wizard.Mode {
	m, _ := wizard.ParseMode(c.Assessment.Mode)
	return m
}

// AssessmentType returns the parsed default assessment type.
func (c *Config) AssessmentType() assessment.Type {
	t, _ := assessment.ParseType(c.Assessment.Type)
	return t
}

// Dir returns the nutrify config directory, or "" when no home is known.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nutrify")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nutrify")
}
