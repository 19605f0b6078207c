package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Database string
	Now      string
	User     string
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name> <query>...",
		Short: "Save a named query",
		Long: `Convert a query and store it under a name for later reuse with
"quarry saved run". Saving the same name again overwrites the stored
query.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "saved-query database (default: configured database)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "anchor for relative dates, YYYY-MM-DD or RFC 3339 (default: current time)")
	cmd.Flags().StringVar(&opts.User, "user", "@Me", "current-user token bound for \"assigned to me\"")

	return cmd
}

func runSave(opts *SaveOptions, name, query string, cmd *cobra.Command) error {
	result, err := convertQuery(opts.RootOptions, query, opts.Now, opts.User)
	if err != nil {
		return err
	}
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	printDiagnostics(f, result.Diagnostics)

	s, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	saved, err := s.Save(cmd.Context(), name, query, result.WIQL)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to save query", err)
	}

	if opts.Format == "json" {
		return f.Success(savedQueryResponse(saved))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %q.\n", saved.Name)
	return nil
}

// SavedOptions holds flags shared by the saved subcommands.
type SavedOptions struct {
	*RootOptions
	Database string
}

// NewSavedCommand creates the saved command and its subcommands.
func NewSavedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SavedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "saved",
		Short:         "Work with saved queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "saved-query database (default: configured database)")

	cmd.AddCommand(&cobra.Command{
		Use:           "show <name>",
		Short:         "Show one saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedShow(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedDelete(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(newSavedRunCommand(opts))

	return cmd
}

func runSavedList(opts *SavedOptions, cmd *cobra.Command) error {
	s, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	queries, err := s.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list saved queries", err)
	}

	if opts.Format == "json" {
		out := make([]map[string]any, len(queries))
		for i, q := range queries {
			out[i] = savedQueryResponse(q)
		}
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(out)
	}

	if len(queries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved queries.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUPDATED\tQUERY")
	for _, q := range queries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", q.Name, q.UpdatedAt.Format("2006-01-02"), q.Query)
	}
	return w.Flush()
}

func runSavedShow(opts *SavedOptions, name string, cmd *cobra.Command) error {
	s, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	q, err := s.Get(cmd.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("no saved query named %q", name))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load saved query", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(savedQueryResponse(q))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n  query: %s\n  wiql:  %s\n", q.Name, q.Query, q.WIQL)
	return nil
}

func runSavedDelete(opts *SavedOptions, name string, cmd *cobra.Command) error {
	s, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(cmd.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("no saved query named %q", name))
		}
		return WrapExitError(ExitFailure, "failed to delete saved query", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", name)
	return nil
}

func newSavedRunCommand(opts *SavedOptions) *cobra.Command {
	var (
		project string
		top     int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:           "run <name>",
		Short:         "Execute a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(opts.RootOptions, opts.Database)
			if err != nil {
				return err
			}
			defer s.Close()

			q, err := s.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return NewExitError(ExitFailure, fmt.Sprintf("no saved query named %q", args[0]))
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load saved query", err)
			}

			client, cfg, err := newClient(opts.RootOptions)
			if err != nil {
				return err
			}
			if project == "" {
				project = cfg.Project
			}

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			qr, err := client.QueryWorkItems(ctx, q.WIQL, project, top)
			if err != nil {
				return WrapExitError(ExitFailure, "query failed", err)
			}

			if opts.Format == "json" {
				f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(runResponse{
					Query: q.Query,
					WIQL:  q.WIQL,
					Count: qr.Total,
					Items: qr.Items,
				})
			}
			printWorkItems(cmd, qr.Items)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project to query (default: configured project)")
	cmd.Flags().IntVar(&top, "top", 0, "maximum results to fetch (default 100)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall request timeout")
	return cmd
}

// openStore opens the saved-query database named by the flag or the
// configuration default.
func openStore(opts *RootOptions, dbFlag string) (*store.Store, error) {
	path := dbFlag
	if path == "" {
		cfg, err := LoadConfig(opts.ConfigFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.Database
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return s, nil
}

func savedQueryResponse(q store.SavedQuery) map[string]any {
	return map[string]any{
		"id":         q.ID,
		"name":       q.Name,
		"query":      q.Query,
		"wiql":       q.WIQL,
		"created_at": q.CreatedAt.Format(time.RFC3339),
		"updated_at": q.UpdatedAt.Format(time.RFC3339),
	}
}
