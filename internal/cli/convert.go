package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/nlq"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Now  string
	User string
}

// convertResponse is the JSON payload for convert and the conversion
// half of run.
type convertResponse struct {
	Query       string   `json:"query"`
	WIQL        string   `json:"wiql"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <query>...",
		Short: "Convert a natural-language query to WIQL",
		Long: `Convert a free-form request into a WIQL query string.

The WIQL goes to stdout; diagnostics about fragments that degraded to
free-text search go to stderr as warnings.

Example:
  quarry convert high priority bugs assigned to me
  quarry convert --now 2024-01-10 "tasks created this week"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Now, "now", "", "anchor for relative dates, YYYY-MM-DD or RFC 3339 (default: current time)")
	cmd.Flags().StringVar(&opts.User, "user", "@Me", "current-user token bound for \"assigned to me\"")

	return cmd
}

func runConvert(opts *ConvertOptions, query string, cmd *cobra.Command) error {
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

	if opts.Format == "json" {
		return f.Success(convertResponse{
			Query:       query,
			WIQL:        result.WIQL,
			Diagnostics: result.Diagnostics,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.WIQL)
	return nil
}

// convertQuery runs a conversion with the root-level table and
// vocabulary flags applied.
func convertQuery(opts *RootOptions, query, nowFlag, user string) (nlq.Result, error) {
	table, err := loadTable(opts)
	if err != nil {
		return nlq.Result{}, err
	}
	states, err := loadStates(opts)
	if err != nil {
		return nlq.Result{}, err
	}
	now, err := parseNow(nowFlag)
	if err != nil {
		return nlq.Result{}, err
	}

	result, err := nlq.Convert(query, nlq.Options{
		Now:         now,
		CurrentUser: user,
		Table:       table,
		States:      states,
	})
	if err != nil {
		return nlq.Result{}, WrapExitError(ExitFailure, "conversion failed", err)
	}
	return result, nil
}

// parseNow resolves the --now flag, defaulting to the wall clock. The
// flag exists so scripted conversions are reproducible.
func parseNow(flag string) (time.Time, error) {
	if flag == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse("2006-01-02", flag); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, flag); err == nil {
		return t, nil
	}
	return time.Time{}, NewExitError(ExitCommandError,
		fmt.Sprintf("cannot parse --now %q (want YYYY-MM-DD or RFC 3339)", flag))
}

// printDiagnostics writes advisory warnings to stderr so stdout stays
// pipeable.
func printDiagnostics(f *OutputFormatter, diags []string) {
	for _, d := range diags {
		fmt.Fprintf(f.GetErrWriter(), "warning: %s\n", d)
	}
}
