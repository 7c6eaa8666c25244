package absa

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("absa: invalid config")

const (
	// DefaultMaxPatterns is the number of patterns returned per example.
	DefaultMaxPatterns = 5

	// EnvPrefix prefixes every environment override, e.g. ABSA_MAX_PATTERNS.
	EnvPrefix = "ABSA_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// RecognizerConfig controls BasicPatternRecognizer.
type RecognizerConfig struct {
	// MaxPatterns caps the number of patterns returned per example.
	MaxPatterns int `koanf:"max_patterns" json:"max_patterns"`

	// IsScaled weights pattern rows by their importance in Transform and
	// rescales each built pattern so its largest weight is 1.
	IsScaled bool `koanf:"is_scaled" json:"is_scaled"`

	// IsRounded rounds importances and weights to two decimals.
	IsRounded bool `koanf:"is_rounded" json:"is_rounded"`
}

// DefaultRecognizerConfig returns the settings used for reporting.
func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{
		MaxPatterns: DefaultMaxPatterns,
		IsScaled:    true,
		IsRounded:   true,
	}
}

// Validate checks the recognizer settings.
func (c RecognizerConfig) Validate() error {
	if c.MaxPatterns < 1 {
		return fmt.Errorf("%w: max_patterns must be at least 1, got %d", ErrInvalidConfig, c.MaxPatterns)
	}
	return nil
}

// Config is the full configuration of the absa-patterns tooling.
type Config struct {
	RecognizerConfig `koanf:",squash"`

	// Workers bounds batch concurrency. 0 means runtime.NumCPU().
	Workers int `koanf:"workers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		RecognizerConfig: DefaultRecognizerConfig(),
		Workers:          0,
		LogLevel:         "info",
	}
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	if err := c.RecognizerConfig.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// NumWorkers returns the effective worker count.
func (c Config) NumWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment overrides.
//
// Precedence (highest to lowest):
//  1. Environment variables (ABSA_MAX_PATTERNS, ABSA_IS_SCALED, ...)
//  2. YAML file at path (skipped when path is empty)
//  3. DefaultConfig()
//
// Environment keys drop the prefix and are lowercased:
//
//	ABSA_MAX_PATTERNS -> max_patterns
//	ABSA_LOG_LEVEL    -> log_level
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%w: config file %s is %d bytes, limit %d", ErrInvalidConfig, path, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
