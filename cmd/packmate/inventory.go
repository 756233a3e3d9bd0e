package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInventoryCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Manage the items you own",
	}

	add := &cobra.Command{
		Use:   "add ITEM...",
		Short: "Add items; events needing them may complete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				n, err := app.Planner.AddItems(ctx, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d item(s)\n", n)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove ITEM",
		Short: "Remove an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				name := strings.Join(args, " ")
				removed, err := app.Planner.RemoveItem(ctx, name)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%q is not in the inventory", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List owned items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				items := app.Planner.Inventory()
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Inventory is empty.")
					return nil
				}
				for _, item := range items {
					fmt.Fprintln(out, item)
				}
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				if err := app.Planner.ClearInventory(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Inventory cleared.")
				return nil
			})
		},
	}

	cmd.AddCommand(add, remove, list, clearCmd)
	return cmd
}
