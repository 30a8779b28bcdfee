package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all nrmlc settings
type Config struct {
	Conversion  ConversionConfig  `yaml:"conversion" mapstructure:"conversion"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// ConversionConfig controls the document the converter emits
type ConversionConfig struct {
	Language         string `yaml:"language" mapstructure:"language" validate:"required,min=2"`
	SchemaURL        string `yaml:"schema_url" mapstructure:"schema_url" validate:"required,url"`
	IDScheme         string `yaml:"id_scheme" mapstructure:"id_scheme" validate:"oneof=uuid counter"`
	ValidFrom        string `yaml:"valid_from" mapstructure:"valid_from" validate:"omitempty,datetime=2006-01-02"` // empty = today
	AllStacks        bool   `yaml:"all_stacks" mapstructure:"all_stacks"`
	StrictReferences bool   `yaml:"strict_references" mapstructure:"strict_references"`
}

// InputConfig bounds what is read from disk
type InputConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes" validate:"gt=0"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Indent  int  `yaml:"indent" mapstructure:"indent" validate:"gte=0,lte=8"`
	Verify  bool `yaml:"verify" mapstructure:"verify"` // report dangling references after conversion
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// CacheConfig controls caching of rendered documents
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir" validate:"required_if=Enabled true"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch conversion
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{
			Language:  DefaultLanguage,
			SchemaURL: DefaultSchemaURL,
			IDScheme:  "uuid",
		},
		Input: InputConfig{
			MaxBytes: 10_000_000,
		},
		Output: OutputConfig{
			Indent: 2,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       ".nrmlc-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}

var configValidate = validator.New()

// Validate checks the configuration for out-of-range values
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidFromDate parses Conversion.ValidFrom; the zero time means "today"
func (c *Config) ValidFromDate() (time.Time, error) {
	if c.Conversion.ValidFrom == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.Conversion.ValidFrom)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse valid_from: %w", err)
	}
	return t, nil
}
