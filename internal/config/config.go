// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable overrides, e.g.
// BOXFLOW_LAYOUT_VIEWPORT_WIDTH.
const EnvPrefix = "BOXFLOW"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Layout() LayoutConfig
	Fonts() FontsConfig
	Output() OutputConfig
	Batch() BatchConfig

	// Setters for values that CLI flags override.
	SetLayoutViewport(width, height float64)
	SetOutputFormat(format string)
	SetBatchConcurrency(n int)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg LoggerConfig `mapstructure:"logger" yaml:"logger"`
	LayoutCfg LayoutConfig `mapstructure:"layout" yaml:"layout"`
	FontsCfg  FontsConfig  `mapstructure:"fonts" yaml:"fonts"`
	OutputCfg OutputConfig `mapstructure:"output" yaml:"output"`
	BatchCfg  BatchConfig  `mapstructure:"batch" yaml:"batch"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Layout() LayoutConfig { return c.LayoutCfg }
func (c *Config) Fonts() FontsConfig   { return c.FontsCfg }
func (c *Config) Output() OutputConfig { return c.OutputCfg }
func (c *Config) Batch() BatchConfig   { return c.BatchCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetLayoutViewport(width, height float64) {
	c.LayoutCfg.ViewportWidth = width
	c.LayoutCfg.ViewportHeight = height
}
func (c *Config) SetOutputFormat(format string) { c.OutputCfg.Format = format }
func (c *Config) SetBatchConcurrency(n int)     { c.BatchCfg.Concurrency = n }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LayoutConfig holds the layout engine settings.
type LayoutConfig struct {
	ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	MaxDepth       int     `mapstructure:"max_depth" yaml:"max_depth"`
	// Width of one character as a fraction of the font size when no text
	// measurer is configured.
	CharWidthRatio float64 `mapstructure:"char_width_ratio" yaml:"char_width_ratio"`
	MonoWidthRatio float64 `mapstructure:"mono_width_ratio" yaml:"mono_width_ratio"`
}

// Text measurer names.
const (
	MeasurerFallback = "fallback"
	MeasurerCanvas   = "canvas"
)

// FontsConfig selects how text is measured.
type FontsConfig struct {
	Measurer   string  `mapstructure:"measurer" yaml:"measurer"`
	SizeAdjust float64 `mapstructure:"size_adjust" yaml:"size_adjust"`
}

// Output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// OutputConfig controls how geometry reports are written.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
	// Dir receives one report per input in batch mode; empty means stdout.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// BatchConfig bounds concurrent layout of several documents.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "boxflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Layout --
	v.SetDefault("layout.viewport_width", 1280.0)
	v.SetDefault("layout.viewport_height", 720.0)
	v.SetDefault("layout.max_depth", 256)
	v.SetDefault("layout.char_width_ratio", 0.6)
	v.SetDefault("layout.mono_width_ratio", 0.65)

	// -- Fonts --
	v.SetDefault("fonts.measurer", MeasurerFallback)
	v.SetDefault("fonts.size_adjust", 1.0)

	// -- Output --
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.pretty", true)
	v.SetDefault("output.dir", "")

	// -- Batch --
	v.SetDefault("batch.concurrency", 4)
}

// BindEnv lets environment variables override any key that has a default.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.LayoutCfg.Validate(); err != nil {
		return fmt.Errorf("layout configuration invalid: %w", err)
	}
	switch c.FontsCfg.Measurer {
	case MeasurerFallback, MeasurerCanvas:
	default:
		return fmt.Errorf("fonts.measurer must be %q or %q, got %q", MeasurerFallback, MeasurerCanvas, c.FontsCfg.Measurer)
	}
	if c.FontsCfg.SizeAdjust <= 0 {
		return fmt.Errorf("fonts.size_adjust must be positive")
	}
	switch c.OutputCfg.Format {
	case FormatJSON, FormatSVG:
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatJSON, FormatSVG, c.OutputCfg.Format)
	}
	if c.BatchCfg.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be a positive integer")
	}
	return nil
}

// Validate checks the layout settings.
func (l *LayoutConfig) Validate() error {
	if l.ViewportWidth < 0 || l.ViewportHeight < 0 {
		return fmt.Errorf("viewport_width and viewport_height must not be negative")
	}
	if l.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be greater than 0")
	}
	if l.CharWidthRatio <= 0 || l.MonoWidthRatio <= 0 {
		return fmt.Errorf("char_width_ratio and mono_width_ratio must be positive")
	}
	return nil
}
