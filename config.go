package objectmodel

import (
	"io"
	"log/slog"

	"github.com/livefir/objectmodel/binder"
	"github.com/livefir/objectmodel/internal/metrics"
	"github.com/livefir/objectmodel/router"
)

// DefaultPrefix is the directive attribute prefix used unless WithPrefix
// says otherwise.
const DefaultPrefix = binder.DefaultPrefix

// Config holds Component configuration
type Config struct {
	Prefix      string             // Directive attribute prefix, "js:" by default
	InitialPath router.InitialPath // Where router roots read their starting path
	Logger      *slog.Logger       // Debug output for skipped bindings; discarded by default
	Metrics     *metrics.Collector // Shared collector, e.g. across live sessions
}

// Option is a functional option for configuring a Component
type Option func(*Config)

// WithPrefix changes the directive prefix, e.g. "data-om-"
func WithPrefix(prefix string) Option {
	return func(c *Config) {
		c.Prefix = prefix
	}
}

// WithInitialPath selects where router roots take their starting path from
func WithInitialPath(p router.InitialPath) Option {
	return func(c *Config) {
		c.InitialPath = p
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics shares a metrics collector with the Component
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

func defaultConfig() Config {
	return Config{
		Prefix: DefaultPrefix,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
