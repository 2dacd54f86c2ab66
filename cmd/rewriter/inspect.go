package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalvas/rewriter/admin"
	"github.com/vitalvas/rewriter/internal/logging"
	"github.com/vitalvas/rewriter/router"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every stored route compiles into the table",
		Long: `verify builds the route table from the configured store and reports
every built-in and stored route that did not make it into the table.
It exits non-zero unless the status is success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			reg, closeFn, err := buildRegistry(cmd.Context(), cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer closeFn()

			v, err := reg.Verify(cmd.Context())
			if err != nil {
				return err
			}

			if err := printVerification(cmd.OutOrStdout(), opts.output, v); err != nil {
				return err
			}

			if v.Status != router.StatusSuccess {
				return fmt.Errorf("verification %s: %s", v.Status, v.Message)
			}
			return nil
		},
	}
}

func printVerification(w io.Writer, format string, v router.Verification) error {
	table, err := tableOutput(w, format)
	if err != nil {
		return err
	}
	if !table {
		return writeJSON(w, v)
	}

	fmt.Fprintf(w, "%s: %s\n\n", v.Status, v.Message)

	tw := newTable(w)
	fmt.Fprintln(tw, "SLUG\tPATTERN\tBUILTIN\tREGISTERED")
	for _, r := range v.Rules {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", r.Slug, r.Pattern, r.BuiltIn, r.Registered)
	}
	return tw.Flush()
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match <path>",
		Short: "Show which route a path resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			reg, closeFn, err := buildRegistry(cmd.Context(), cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer closeFn()

			m, ok := reg.Match(args[0])
			if !ok {
				return fmt.Errorf("no route matches %q", args[0])
			}

			out := cmd.OutOrStdout()
			table, err := tableOutput(out, opts.output)
			if err != nil {
				return err
			}
			if !table {
				return writeJSON(out, map[string]any{
					"path":    args[0],
					"slug":    m.Rule.Slug,
					"builtin": m.Rule.BuiltIn,
					"pattern": m.Rule.Pattern.String(),
					"query":   m.Query(),
				})
			}

			tw := newTable(out)
			fmt.Fprintf(tw, "slug\t%s\n", m.Rule.Slug)
			fmt.Fprintf(tw, "builtin\t%t\n", m.Rule.BuiltIn)
			fmt.Fprintf(tw, "pattern\t%s\n", m.Rule.Pattern)
			fmt.Fprintf(tw, "query\t%s\n", m.Query())
			return tw.Flush()
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user> <action>",
		Short: "Issue an admin action token",
		Long: `token prints an action token for scripted admin API calls. The token is
valid for between half and all of admin.token_lifetime.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, action := args[0], args[1]

			if !admin.KnownAction(action) {
				return fmt.Errorf("unknown action %q", action)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if _, ok := cfg.Admin.Users[user]; !ok {
				return fmt.Errorf("unknown admin user %q", user)
			}

			tokens, err := admin.NewTokens(cfg.Admin.TokenSecret, cfg.Admin.TokenLifetime)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table, err := tableOutput(out, opts.output)
			if err != nil {
				return err
			}
			token := tokens.Issue(user, action)
			if table {
				fmt.Fprintln(out, token)
				return nil
			}

			return writeJSON(out, map[string]any{
				"user":       user,
				"action":     action,
				"token":      token,
				"expires_in": int(tokens.Lifetime() / time.Second),
			})
		},
	}
}
