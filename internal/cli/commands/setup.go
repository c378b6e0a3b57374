package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/config"
	"github.com/medtra-labs/medquery/internal/query"
	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/stats"
	"github.com/medtra-labs/medquery/internal/store"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded configuration in a context for commands.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in a context for commands.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func getConfig(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{
		DatabasePath: config.DefaultDatabasePath,
		DraftsDir:    config.DefaultDraftsDir,
		PageSize:     config.DefaultPageSize,
		OutputFormat: config.DefaultOutput,
	}
}

func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1 << 30)}))
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	Store      *store.Store
	Engine     *query.Engine
	Aggregator *stats.Aggregator
}

// NewCommandContext opens the database and wires the query stack. Returns a
// cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig(cmd)
	logger := getLogger(cmd)

	if dir := filepath.Dir(cfg.DatabasePath); cfg.DatabasePath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	s := store.New(logger)
	if err := s.Open(cfg.DatabasePath); err != nil {
		return nil, nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	cleanup := func() { _ = s.Close() }
	return &CommandContext{
		Cfg:        cfg,
		Logger:     logger,
		Store:      s,
		Engine:     query.NewEngine(s, logger),
		Aggregator: stats.NewAggregator(s, logger),
	}, cleanup, nil
}

// parseFamily resolves a CLI argument to a family, accepting either the
// table key (thuoc_generic) or the display name (Thuốc Generic).
func parseFamily(arg string) (schema.Family, error) {
	f := schema.Family(arg)
	if schema.Valid(f) {
		return f, nil
	}
	f, err := schema.FromDisplayName(arg)
	if err != nil {
		return "", fmt.Errorf("unknown dataset %q, run 'medquery families' for the list", arg)
	}
	return f, nil
}

// outputFormat picks the per-command --format override over the configured
// default.
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	if cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return config.DefaultOutput
}
