// Package config loads the objectmodel CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/router"
)

const (
	// FileName is the config file looked up in the working directory
	FileName = "objectmodel.yaml"

	DefaultListen = "localhost:8080"
	DefaultCodec  = "json"
)

// Config represents the CLI configuration
type Config struct {
	// Prefix is the directive attribute prefix
	Prefix string `yaml:"prefix" validate:"required"`

	// InitialPath selects where router roots read their starting path
	InitialPath string `yaml:"initial_path" validate:"oneof=attribute location"`

	// Minify strips comments and whitespace from rendered documents
	Minify bool `yaml:"minify"`

	// Listen is the address of the live server
	Listen string `yaml:"listen" validate:"required,hostname_port"`

	// Codec is the WebSocket frame encoding
	Codec string `yaml:"codec" validate:"oneof=json msgpack"`

	// SessionTTL expires idle live sessions
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gte=0"`

	// MaxMemoryMB caps the rendered size of all live sessions
	MaxMemoryMB int `yaml:"max_memory_mb" validate:"gte=1"`
}

// Default returns a new Config with default values
func Default() *Config {
	return &Config{
		Prefix:      objectmodel.DefaultPrefix,
		InitialPath: router.FromAttribute.String(),
		Listen:      DefaultListen,
		Codec:       DefaultCodec,
		SessionTTL:  30 * time.Minute,
		MaxMemoryMB: 100,
	}
}

// Load reads path on top of the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fields := objectmodel.ValidationToMultiError(err); len(fields) > 0 {
			return fields
		}
		return err
	}
	return nil
}

// InitialPathMode returns the parsed InitialPath setting.
func (c *Config) InitialPathMode() router.InitialPath {
	p, _ := router.ParseInitialPath(c.InitialPath)
	return p
}

// Options translates the file settings into Component options.
func (c *Config) Options() []objectmodel.Option {
	return []objectmodel.Option{
		objectmodel.WithPrefix(c.Prefix),
		objectmodel.WithInitialPath(c.InitialPathMode()),
	}
}
