package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/ado"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Now     string
	User    string
	Project string
	Top     int
	Timeout time.Duration
}

// runResponse is the JSON payload for executed queries.
type runResponse struct {
	Query       string         `json:"query"`
	WIQL        string         `json:"wiql"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Count       int            `json:"count"`
	Items       []ado.WorkItem `json:"items"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query>...",
		Short: "Convert a query and execute it",
		Long: `Convert a free-form request to WIQL and execute it against the
configured organization.

Needs QUARRY_ORG and QUARRY_PAT (or a config file); the project comes
from --project or QUARRY_PROJECT.

Example:
  quarry run high priority bugs assigned to me
  quarry run --top 5 "tasks created this week"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Now, "now", "", "anchor for relative dates, YYYY-MM-DD or RFC 3339 (default: current time)")
	cmd.Flags().StringVar(&opts.User, "user", "@Me", "current-user token bound for \"assigned to me\"")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project to query (default: configured project)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "maximum results to fetch (default 100)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall request timeout")

	return cmd
}

func runQuery(opts *RunOptions, query string, cmd *cobra.Command) error {
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
	f.VerboseLog("wiql: %s", result.WIQL)

	client, cfg, err := newClient(opts.RootOptions)
	if err != nil {
		return err
	}
	project := opts.Project
	if project == "" {
		project = cfg.Project
	}

	top := opts.Top
	if top == 0 {
		top = result.Intent.Limit
	}

	ctx, cancel := commandContext(cmd, opts.Timeout)
	defer cancel()

	qr, err := client.QueryWorkItems(ctx, result.WIQL, project, top)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	f.VerboseLog("fetched %d items in %s", qr.Total, qr.Elapsed.Round(time.Millisecond))

	if opts.Format == "json" {
		return f.Success(runResponse{
			Query:       query,
			WIQL:        result.WIQL,
			Diagnostics: result.Diagnostics,
			Count:       qr.Total,
			Items:       qr.Items,
		})
	}
	printWorkItems(cmd, qr.Items)
	return nil
}

// newClient builds the service client from configuration.
func newClient(opts *RootOptions) (*ado.Client, Config, error) {
	cfg, err := LoadConfig(opts.ConfigFile)
	if err != nil {
		return nil, Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.requireRemote(); err != nil {
		return nil, Config{}, err
	}
	return ado.NewClient(cfg.Organization, cfg.PAT, ado.WithProject(cfg.Project)), cfg, nil
}

// commandContext derives the request context, honoring a context the
// caller (or a test) put on the command.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// printWorkItems renders a fixed-column listing.
func printWorkItems(cmd *cobra.Command, items []ado.WorkItem) {
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No work items found.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATE\tASSIGNED TO\tTITLE")
	for _, item := range items {
		assignee := ""
		if item.AssignedTo != nil {
			assignee = item.AssignedTo.DisplayName
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			item.ID, item.Type, item.State, assignee, item.Title)
	}
	w.Flush()
}
