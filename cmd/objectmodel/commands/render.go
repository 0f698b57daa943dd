package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/ctxlog"
	"github.com/livefir/objectmodel/internal/scenario"
)

// Render plays every step of a scenario and prints the resulting document.
func Render(args []string) error {
	return render(context.Background(), args, os.Stdout, os.Stderr)
}

func render(ctx context.Context, args []string, out, logOut io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, sc, err := f.load()
	if err != nil {
		return err
	}

	logger := f.logger(logOut)
	r, err := scenario.NewRunner(sc, append(cfg.Options(), objectmodel.WithLogger(logger))...)
	if err != nil {
		return err
	}
	runErr := r.Run(ctxlog.WithLogger(ctx, logger))

	var opts []htmldoc.RenderOption
	if cfg.Minify {
		opts = append(opts, htmldoc.Minified())
	}
	if f.body {
		opts = append(opts, htmldoc.BodyOnly())
	}
	if err := r.Document().Render(out, opts...); err != nil {
		return err
	}
	fmt.Fprintln(out)

	if runErr != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, runErr)
	}
	return nil
}
