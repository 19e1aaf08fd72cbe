package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keuin/daigunyun/internal/config"
	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/registry"
	"github.com/keuin/daigunyun/internal/relation"
	"github.com/keuin/daigunyun/internal/resolver"
	"github.com/keuin/daigunyun/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP resolver service",
	Long: `Serve loads the configuration, connects to every configured relation
and starts the HTTP query endpoint.

Startup is fail-fast: invalid configuration or an unreachable data
source aborts the process before any request is accepted.

Example:
  daigunyun serve --config daigunyun.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(logLevel, logFormat)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readers, err := buildReaders(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeReaders(readers, log)

	sources := make([]registry.Source, len(readers))
	for i, rd := range readers {
		sources[i] = rd
	}
	reg, err := registry.New(cfg.Fields, sources)
	if err != nil {
		return fmt.Errorf("failed to build field index: %w", err)
	}

	res := resolver.New(reg, log, resolver.Options{
		MaxDepth:      cfg.Resolver.MaxDepth,
		MaxConcurrent: cfg.Resolver.MaxConcurrentLookups,
		Timeout:       time.Duration(cfg.Resolver.QueryTimeoutSeconds) * time.Second,
	})

	log.Infow("resolver ready",
		"fields", len(cfg.Fields), "relations", len(readers), "max_depth", cfg.Resolver.MaxDepth)

	srv := server.New(res, log)
	if err := srv.Run(ctx, cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// buildReaders connects every configured relation. Any failure closes
// the readers opened so far and aborts startup.
func buildReaders(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]*relation.Reader, error) {
	readers := make([]*relation.Reader, 0, len(cfg.Relations))
	for _, rc := range cfg.Relations {
		rd, err := relation.New(ctx, rc, log)
		if err != nil {
			closeReaders(readers, log)
			return nil, fmt.Errorf("error loading relation %q: %w", rc.Name, err)
		}
		readers = append(readers, rd)
	}
	return readers, nil
}

func closeReaders(readers []*relation.Reader, log *logger.Logger) {
	for _, rd := range readers {
		if err := rd.Close(); err != nil {
			log.Warnw("failed to close relation", "relation", rd.Name(), "error", err)
		}
	}
}
