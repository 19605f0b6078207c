package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ProjectsOptions holds flags for the projects command.
type ProjectsOptions struct {
	*RootOptions
	Teams   string
	Check   bool
	Timeout time.Duration
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects in the configured organization",
		Long: `List the organization's projects. With --teams, list the teams
of one project instead; with --check, just verify connectivity and
credentials.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Teams, "teams", "", "list teams of the given project")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "test the connection and exit")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall request timeout")

	return cmd
}

func runProjects(opts *ProjectsOptions, cmd *cobra.Command) error {
	client, _, err := newClient(opts.RootOptions)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, opts.Timeout)
	defer cancel()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Check {
		n, err := client.TestConnection(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "connection check failed", err)
		}
		if opts.Format == "json" {
			return f.Success(map[string]any{"organization": client.Organization(), "projects": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (%d projects).\n", client.Organization(), n)
		return nil
	}

	if opts.Teams != "" {
		teams, err := client.GetTeams(ctx, opts.Teams)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list teams", err)
		}
		if opts.Format == "json" {
			return f.Success(teams)
		}
		for _, t := range teams {
			fmt.Fprintln(cmd.OutOrStdout(), t.Name)
		}
		return nil
	}

	projects, err := client.ListProjects(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list projects", err)
	}
	if opts.Format == "json" {
		return f.Success(projects)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tVISIBILITY")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.State, p.Visibility)
	}
	return w.Flush()
}
