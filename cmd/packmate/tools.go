package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/packmate/internal/calendar"
	"github.com/stellarlinkco/packmate/internal/digest"
	"github.com/stellarlinkco/packmate/internal/suggest"
)

func newSuggestCmd(opts *Options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "suggest TITLE",
		Short: "Suggest items for an event title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				day, err := parseDay(date, app.Planner.Now())
				if err != nil {
					return err
				}
				title := strings.TrimSpace(strings.Join(args, " "))
				out := cmd.OutOrStdout()
				if len([]rune(title)) < suggest.MinTitleLength {
					fmt.Fprintln(out, "Title too short for suggestions.")
					return nil
				}
				for _, item := range app.Suggest.SuggestAll(ctx, title, day) {
					marker := "-"
					if app.Planner.HasItem(item) {
						marker = "x"
					}
					fmt.Fprintf(out, "%s %s\n", marker, item)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "event day, YYYY-MM-DD (default today)")
	return cmd
}

func newParseCmd(opts *Options) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "parse UTTERANCE...",
		Short: "Turn a spoken or typed sentence into an event draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				draft, source, err := app.Parser.Parse(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Title: %s\n", draft.Title)
				fmt.Fprintf(out, "Date: %s\n", draft.SuggestedDate.Format(dayLayout))
				if len(draft.Items) > 0 {
					fmt.Fprintf(out, "Items: %s\n", strings.Join(draft.Items, ", "))
				}
				fmt.Fprintf(out, "Source: %s\n", source)
				if !save {
					return nil
				}
				e, err := app.Planner.AddEvent(ctx, draft.ToEvent())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", e.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the draft as an event")
	return cmd
}

func newExportCmd(opts *Options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				body := calendar.Export(app.Planner.Events(), app.Planner.Now())
				if outPath == "" || outPath == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), body)
					return err
				}
				if err := os.WriteFile(outPath, []byte(body), 0644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *Options) *cobra.Command {
	var horizon time.Duration
	cmd := &cobra.Command{
		Use:   "import-ics FILE",
		Short: "Import events from an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				now := app.Planner.Now()
				res, err := calendar.Import(f, calendar.ImportOptions{Now: now, Horizon: horizon, Location: now.Location()})
				if err != nil {
					return err
				}
				for _, s := range res.Skipped {
					app.Logger.Warn().Str("uid", s.UID).Str("reason", s.Reason).Msg("vevent skipped")
				}
				added, err := app.Planner.ImportDrafts(ctx, res.Drafts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d event(s), skipped %d\n", added, len(res.Drafts), len(res.Skipped))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&horizon, "horizon", calendar.DefaultHorizon, "how far ahead to expand recurring events")
	return cmd
}

func newDigestCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print today's digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), digest.Build(app.Planner).Text())
				return err
			})
		},
	}
}
