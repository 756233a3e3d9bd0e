package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/packmate/internal/model"
	"github.com/stellarlinkco/packmate/internal/planner"
)

const dayLayout = "2006-01-02"

// parseDay reads YYYY-MM-DD in the location of now. Empty means now.
func parseDay(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(dayLayout, v, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

func printEvent(w io.Writer, e model.Event, now time.Time) {
	fmt.Fprintf(w, "%s  %s  %-10s  %s", e.ID, e.Date.Format(dayLayout), e.Status(now), e.Title)
	if len(e.Items) > 0 {
		fmt.Fprintf(w, "  [%s]", strings.Join(e.Items, ", "))
	}
	fmt.Fprintln(w)
}

func newEventCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create, list and complete events",
	}

	var date, details string
	var items []string
	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add an event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				day, err := parseDay(date, app.Planner.Now())
				if err != nil {
					return err
				}
				e, err := app.Planner.AddEvent(ctx, model.Event{
					Title:   strings.Join(args, " "),
					Date:    day,
					Items:   items,
					Details: details,
				})
				if err != nil {
					return err
				}
				printEvent(cmd.OutOrStdout(), e, app.Planner.Now())
				return nil
			})
		},
	}
	add.Flags().StringVar(&date, "date", "", "event day, YYYY-MM-DD (default today)")
	add.Flags().StringSliceVarP(&items, "item", "i", nil, "required item (repeatable or comma separated)")
	add.Flags().StringVar(&details, "details", "", "free-text details")

	var filter, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				var events []model.Event
				switch filter {
				case "all":
					events = app.Planner.SearchEvents(search)
				case "today":
					events = app.Planner.TodaysEvents()
				case "upcoming":
					events = app.Planner.UpcomingEvents(0)
				case "overdue":
					events = app.Planner.OverdueEvents()
				case "completed":
					events = app.Planner.CompletedEvents()
				default:
					return fmt.Errorf("unknown filter %q", filter)
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events.")
					return nil
				}
				for _, e := range events {
					printEvent(out, e, app.Planner.Now())
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&filter, "filter", "all", "all, today, upcoming, overdue or completed")
	list.Flags().StringVarP(&search, "search", "s", "", "match title, details or items")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				e, err := app.Planner.Event(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printEvent(out, e, app.Planner.Now())
				if e.Details != "" {
					fmt.Fprintf(out, "  %s\n", e.Details)
				}
				for _, item := range e.Items {
					mark := " "
					if app.Planner.HasItem(item) {
						mark = "x"
					}
					fmt.Fprintf(out, "  [%s] %s\n", mark, item)
				}
				return nil
			})
		},
	}

	setDone := func(use, short string, done bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, opts, func(ctx context.Context, app *App) error {
					e, err := app.Planner.SetEventCompleted(ctx, args[0], done)
					if err != nil {
						return err
					}
					if len(e.Items) > 0 && e.IsCompleted != done {
						fmt.Fprintln(cmd.OutOrStdout(), "Completion follows the inventory for events with items.")
					}
					printEvent(cmd.OutOrStdout(), e, app.Planner.Now())
					return nil
				})
			},
		}
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Planner.DeleteEvent(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show event statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				printStats(cmd.OutOrStdout(), app.Planner.Statistics())
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, show, setDone("done", "Mark an event without items as done", true),
		setDone("undone", "Mark an event without items as not done", false), del, stats)
	return cmd
}

func printStats(w io.Writer, s planner.Statistics) {
	fmt.Fprintf(w, "Total: %d\n", s.Total)
	fmt.Fprintf(w, "Today: %d\n", s.Today)
	fmt.Fprintf(w, "Upcoming: %d\n", s.Upcoming)
	fmt.Fprintf(w, "Completed: %d (%.0f%%)\n", s.Completed, s.CompletionRate()*100)
}
