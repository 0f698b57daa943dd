// Package commands implements the objectmodel subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/livefir/objectmodel/internal/config"
	"github.com/livefir/objectmodel/internal/scenario"
)

type flags struct {
	scenario string
	config   string
	listen   string
	minify   bool
	body     bool
	verbose  bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{config: config.FileName}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "--listen":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", args[i])
			}
			if args[i] == "--config" {
				f.config = args[i+1]
			} else {
				f.listen = args[i+1]
			}
			i++ // skip value
		case "--minify":
			f.minify = true
		case "--body":
			f.body = true
		case "--verbose", "-v":
			f.verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return nil, fmt.Errorf("unknown flag: %s", args[i])
			}
			if f.scenario != "" {
				return nil, fmt.Errorf("unexpected argument: %s", args[i])
			}
			f.scenario = args[i]
		}
	}
	if f.scenario == "" {
		return nil, fmt.Errorf("scenario file required")
	}
	return f, nil
}

// load reads the config and the scenario named by f. Flags win over the
// config file.
func (f *flags) load() (*config.Config, *scenario.Scenario, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, nil, err
	}
	if f.minify {
		cfg.Minify = true
	}
	if f.listen != "" {
		cfg.Listen = f.listen
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	sc, err := scenario.Load(f.scenario)
	if err != nil {
		return nil, nil, err
	}
	return cfg, sc, nil
}

func (f *flags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
