package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/packmate/internal/model"
)

func printList(w io.Writer, l model.ShoppingList, detail bool) {
	fmt.Fprintf(w, "%s  %s  %s  (%d event(s))\n", l.ID, l.CreatedDate.Format(dayLayout), l.DisplayStatus(), len(l.EventIDs))
	if !detail {
		return
	}
	for _, item := range l.Items {
		mark := " "
		if l.IsCompleted() || l.Status.IsChecked(item) {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, item)
	}
}

func newShopCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Shopping lists built from events",
	}

	listRun := func(fn func(ctx context.Context, app *App, args []string) (model.ShoppingList, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				l, err := fn(ctx, app, args)
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), l, true)
				return nil
			})
		}
	}

	create := &cobra.Command{
		Use:   "create EVENT_ID...",
		Short: "Create a list from the items of the given events",
		Args:  cobra.MinimumNArgs(1),
		RunE: listRun(func(ctx context.Context, app *App, args []string) (model.ShoppingList, error) {
			return app.Planner.CreateShoppingList(ctx, args)
		}),
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a list",
		Args:  cobra.ExactArgs(1),
		RunE: listRun(func(ctx context.Context, app *App, args []string) (model.ShoppingList, error) {
			return app.Planner.ShoppingList(args[0])
		}),
	}

	check := &cobra.Command{
		Use:   "check ID ITEM",
		Short: "Check off an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: listRun(func(ctx context.Context, app *App, args []string) (model.ShoppingList, error) {
			return app.Planner.CheckItem(ctx, args[0], strings.Join(args[1:], " "))
		}),
	}

	uncheck := &cobra.Command{
		Use:   "uncheck ID ITEM",
		Short: "Uncheck an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: listRun(func(ctx context.Context, app *App, args []string) (model.ShoppingList, error) {
			return app.Planner.UncheckItem(ctx, args[0], strings.Join(args[1:], " "))
		}),
	}

	complete := &cobra.Command{
		Use:   "complete ID",
		Short: "Archive a list and add its checked items to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: listRun(func(ctx context.Context, app *App, args []string) (model.ShoppingList, error) {
			return app.Planner.CompleteShoppingList(ctx, args[0])
		}),
	}

	var completed bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List active (or completed) shopping lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				lists := app.Planner.ActiveShoppingLists()
				if completed {
					lists = app.Planner.CompletedShoppingLists()
				}
				out := cmd.OutOrStdout()
				if len(lists) == 0 {
					fmt.Fprintln(out, "No shopping lists.")
					return nil
				}
				for _, l := range lists {
					printList(out, l, false)
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&completed, "completed", false, "show archived lists")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Planner.DeleteShoppingList(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(create, show, check, uncheck, complete, list, del)
	return cmd
}
