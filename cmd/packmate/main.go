package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/packmate/internal/config"
	"github.com/stellarlinkco/packmate/internal/llm"
)

// Options carries injectable dependencies so commands can run in tests.
type Options struct {
	ConfigPath string
	// Generator replaces the configured provider when set.
	Generator llm.Generator
	Now       func() time.Time
	LogWriter io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(Options{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:          "packmate",
		Short:        "packmate - plan events and the things they need",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "config file (default ~/.packmate/config.json)")

	// Commands read opts through the pointer so the --config flag is seen.
	o := &opts
	root.AddCommand(
		newServeCmd(o),
		newEventCmd(o),
		newInventoryCmd(o),
		newShopCmd(o),
		newSuggestCmd(o),
		newParseCmd(o),
		newExportCmd(o),
		newImportCmd(o),
		newDigestCmd(o),
		newOnboardCmd(o),
		newStatusCmd(o),
	)
	return root
}

func loadConfig(opts *Options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withApp loads config, opens the app for the duration of fn and closes it.
func withApp(cmd *cobra.Command, opts *Options, fn func(ctx context.Context, app *App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := NewApp(ctx, cfg, *opts)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
