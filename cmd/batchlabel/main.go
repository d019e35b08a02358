// cmd/batchlabel/main.go
//
// This is the entry point for the batchlabel CLI.
// Running `batchlabel` with no arguments opens the label form; the
// subcommands expose the same rules for scripts and quick checks.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/batchlabel/internal/config"
	"github.com/kingrea/batchlabel/internal/logging"
	"github.com/kingrea/batchlabel/internal/printing"
	"github.com/kingrea/batchlabel/internal/resolver"
	"github.com/kingrea/batchlabel/internal/tui"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	projectDir string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "batchlabel",
	Short: "Batch label generator for the production floor",
	Long: `batchlabel records production batches and prints their labels.

Enter a WIP code, mix name, prep date, supervisor and the QA-measured
quantity; batchlabel works out the use-by date and how many labels the
batch needs (one per started 20kg), then prints them.

Run without arguments to open the interactive form.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", "", "Directory holding .batchlabel (default: current)")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(printCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setup prepares .batchlabel, loads the config and opens the log file.
func setup(cmd *cobra.Command, args []string) error {
	dir := projectDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}
	if err := config.InitDir(dir); err != nil {
		return err
	}
	loaded, err := config.NewConfig(dir)
	if err != nil {
		return err
	}
	cfg = loaded
	logger, err = logging.New(cfg.LogsDir(), verbose)
	if err != nil {
		return err
	}
	logger.Debug("config loaded",
		zap.String("path", cfg.Path()),
		zap.String("backend", cfg.File.Print.Backend),
		zap.Int("codes", cfg.Table().Len()),
	)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newResolver builds the unknown-code resolver. Without an API key, or with
// the resolver switched off, every lookup answers with the fallback name.
func newResolver(ctx context.Context) resolver.Resolver {
	log := logging.OrNop(logger)
	opts := []resolver.Option{
		resolver.WithTimeout(cfg.ResolverTimeout()),
		resolver.WithLogger(log),
	}
	if !cfg.ResolverEnabled() {
		log.Info("resolver disabled by config")
		return resolver.Guard(resolver.Disabled, opts...)
	}
	key := cfg.ResolverAPIKey()
	if key == "" {
		log.Info("resolver disabled: no API key", zap.String("env", cfg.File.Resolver.APIKeyEnv))
		return resolver.Guard(resolver.Disabled, opts...)
	}
	gemini, err := resolver.NewGemini(ctx, key, cfg.File.Resolver.Model)
	if err != nil {
		log.Warn("resolver unavailable", zap.Error(err))
		return resolver.Guard(resolver.Disabled, opts...)
	}
	log.Info("resolver ready", zap.String("backend", gemini.Name()))
	return resolver.Guard(gemini, opts...)
}

// runTUI opens the interactive form in the alternate screen.
func runTUI(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	opts := []tui.AppOption{
		tui.WithResolver(newResolver(ctx)),
		tui.WithLogger(logger),
		tui.WithVersion(version),
	}

	// The terminal belongs to the form, so previews go to a file.
	if cfg.File.Print.Backend == printing.BackendPreview {
		if err := os.MkdirAll(cfg.LabelsDir(), 0o755); err != nil {
			return fmt.Errorf("ensure labels dir: %w", err)
		}
		path := filepath.Join(cfg.LabelsDir(), "preview.txt")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open preview file: %w", err)
		}
		defer f.Close()
		opts = append(opts, tui.WithPrinter(printing.NewPreview(f)))
	}

	app, err := tui.NewApp(cfg, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
