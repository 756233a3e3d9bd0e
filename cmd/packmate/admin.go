package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/packmate/internal/config"
	"github.com/stellarlinkco/packmate/internal/digest"
	"github.com/stellarlinkco/packmate/internal/server"
)

func newServeCmd(opts *Options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live suggestions and the daily digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				cfg := app.Config
				if addr == "" {
					addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
				}

				if cfg.Digest.Enabled {
					d := digest.NewService(cfg.Digest.Schedule, app.Planner, app.Logger)
					d.Deliver = func(_ context.Context, dg digest.Digest) error {
						_, err := fmt.Fprint(cmd.OutOrStdout(), dg.Text())
						return err
					}
					if err := d.Start(ctx); err != nil {
						return err
					}
					defer d.Stop()
				}

				srv := server.New(server.Deps{
					Planner:  app.Planner,
					Parser:   app.Parser,
					Suggest:  app.Suggest,
					Debounce: cfg.Debounce(),
					Logger:   app.Logger,
				})
				return srv.Serve(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newOnboardCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Write a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard(cmd.OutOrStdout(), opts)
		},
	}
}

func runOnboard(out io.Writer, opts *Options) error {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveToPath(config.DefaultConfig(), cfgPath); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", cfgPath)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Edit %s to set provider.apiKey and ai.mode \"cloud\"\n", cfgPath)
	fmt.Fprintln(out, "  2. Or set PACKMATE_API_KEY / GROQ_API_KEY")
	fmt.Fprintln(out, "  3. Run 'packmate parse \"camping this weekend, bring a tent\"' to test")
	return nil
}

func newStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show packmate status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *Options) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(out, "Config: error (%v)\n", err)
		return nil
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Fprintf(out, "Config: %s\n", path)
	fmt.Fprintf(out, "Provider: %s\n", cfg.Provider.Type)
	fmt.Fprintf(out, "Model: %s\n", cfg.Provider.Model)
	fmt.Fprintf(out, "API Key: %s\n", maskKey(cfg.Provider.APIKey))
	fmt.Fprintf(out, "Mode: %s (cloud enabled=%v)\n", cfg.AI.Mode, cfg.CloudEnabled())
	fmt.Fprintf(out, "Storage: %s %s\n", cfg.Storage.Backend, cfg.Storage.Path)
	fmt.Fprintf(out, "Digest: enabled=%v schedule=%q\n", cfg.Digest.Enabled, cfg.Digest.Schedule)

	return withApp(cmd, opts, func(ctx context.Context, app *App) error {
		printStats(out, app.Planner.Statistics())
		fmt.Fprintf(out, "Inventory: %d item(s)\n", len(app.Planner.Inventory()))
		fmt.Fprintf(out, "Active lists: %d\n", len(app.Planner.ActiveShoppingLists()))
		return nil
	})
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) > 8:
		return key[:4] + "..." + key[len(key)-4:]
	default:
		return "set"
	}
}
