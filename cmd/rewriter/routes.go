package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalvas/rewriter/routestore"
)

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage stored routes",
		Long: `Manage the stored route table directly. A running server picks up
changes on its next publish (POST /admin/publish) or restart.`,
	}

	cmd.AddCommand(
		newRoutesListCmd(opts),
		newRoutesAddCmd(opts),
		newRoutesUpdateCmd(opts),
		newRoutesDeleteCmd(opts),
		newRoutesDeleteAllCmd(opts),
	)

	return cmd
}

// withStore loads the config, opens the store and runs fn with it.
func withStore(cmd *cobra.Command, opts *rootOptions, fn func(*routestore.Store) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	store, closeFn, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(store)
}

func newRoutesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored routes in priority order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(store *routestore.Store) error {
				routes, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				table, err := tableOutput(out, opts.output)
				if err != nil {
					return err
				}
				if !table {
					return writeJSON(out, routes)
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "SLUG\tPATTERN\tTARGET\tUPDATED")
				for _, r := range routes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Slug, r.Pattern, r.Target, r.UpdatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func newRoutesAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <slug> <pattern> <target>",
		Short: "Append a route",
		Example: `  rewriter routes add shop-product 'shop/products/([^/]+)/?$' \
    'route=products&action=detail&slug=$1'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := routestore.SanitizeSlug(args[0])

			return withStore(cmd, opts, func(store *routestore.Store) error {
				if err := store.Add(cmd.Context(), slug, args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "route %s added\n", slug)
				return nil
			})
		},
	}
}

func newRoutesUpdateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <slug> <pattern> <target>",
		Short: "Replace the pattern and target of a route",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store *routestore.Store) error {
				if err := store.Update(cmd.Context(), args[0], args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "route %s updated\n", args[0])
				return nil
			})
		},
	}
}

func newRoutesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <slug>",
		Aliases: []string{"rm"},
		Short:   "Delete a route",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store *routestore.Store) error {
				deleted, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("%w: %s", routestore.ErrNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "route %s deleted\n", args[0])
				return nil
			})
		},
	}
}

func newRoutesDeleteAllCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every stored route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all routes without --yes")
			}

			return withStore(cmd, opts, func(store *routestore.Store) error {
				deleted, err := store.DeleteAll(cmd.Context())
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintln(cmd.OutOrStdout(), "no routes to delete")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all routes deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")

	return cmd
}
