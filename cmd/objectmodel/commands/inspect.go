package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/livefir/objectmodel/internal/inspect"
	"github.com/livefir/objectmodel/internal/scenario"
)

// Inspect opens the terminal stepper on a scenario.
func Inspect(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, sc, err := f.load()
	if err != nil {
		return err
	}

	// Logs would tear the alternate screen.
	r, err := scenario.NewRunner(sc, cfg.Options()...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return inspect.Run(ctx, r)
}
