package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/config"
	"github.com/livefir/objectmodel/internal/ctxlog"
	"github.com/livefir/objectmodel/internal/live"
	"github.com/livefir/objectmodel/internal/memory"
	"github.com/livefir/objectmodel/internal/metrics"
	"github.com/livefir/objectmodel/internal/scenario"
	"github.com/livefir/objectmodel/internal/session"
	"github.com/livefir/objectmodel/internal/token"
)

// Serve runs the live server for a scenario page until interrupted.
func Serve(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, sc, err := f.load()
	if err != nil {
		return err
	}

	logger := f.logger(nil)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctxlog.WithLogger(ctx, logger), cfg, sc)
}

// newHandler wires a session manager mounting sc for every new session.
func newHandler(cfg *config.Config, sc *scenario.Scenario, logger *slog.Logger, tokens *token.Service) (*live.Handler, *session.Manager, error) {
	codec, err := live.CodecByName(cfg.Codec)
	if err != nil {
		return nil, nil, err
	}

	collector := metrics.NewCollector()
	opts := append(cfg.Options(), objectmodel.WithLogger(logger), objectmodel.WithMetrics(collector))
	m := session.NewManager(func() (*htmldoc.Document, *objectmodel.Component, error) {
		return sc.Mount([]htmldoc.Option{htmldoc.WithListenerIDs()}, opts...)
	}, cfg.SessionTTL, session.WithBudget(memory.NewManager(&memory.Config{
		MaxMemoryMB:          cfg.MaxMemoryMB,
		WarningThresholdPct:  75,
		CriticalThresholdPct: 90,
	})))

	title := sc.Name
	if title == "" {
		title = "objectmodel"
	}
	h := live.New(m,
		live.WithCodec(codec),
		live.WithLogger(logger),
		live.WithMetrics(collector),
		live.WithMinify(cfg.Minify),
		live.WithTitle(title),
		live.WithTokens(tokens),
	)
	return h, m, nil
}

func serve(ctx context.Context, cfg *config.Config, sc *scenario.Scenario) error {
	logger := ctxlog.FromContext(ctx)

	// Mount once up front so a broken page fails at startup.
	if _, _, err := sc.Mount(nil, cfg.Options()...); err != nil {
		return err
	}

	tokens, err := token.NewService(&token.Config{
		TTL:         max(cfg.SessionTTL, time.Hour),
		ConnectTTL:  time.Minute,
		NonceWindow: 5 * time.Minute,
	})
	if err != nil {
		return err
	}
	h, m, err := newHandler(cfg, sc, logger, tokens)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.CleanupExpiredSessions(); n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
				tokens.CleanupExpiredNonces()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Listen, "codec", cfg.Codec, "scenario", sc.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
