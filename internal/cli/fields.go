package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/intent"
)

// FieldsOptions holds flags for the fields command.
type FieldsOptions struct {
	*RootOptions
	ForRef string
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FieldsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List field aliases",
		Long: `List the aliases the converter understands and the canonical
references they map to. With --for-ref, reverse-look-up the aliases
bound to one canonical reference.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ForRef, "for-ref", "", "show aliases for one canonical reference")

	return cmd
}

func runFields(opts *FieldsOptions, cmd *cobra.Command) error {
	table, err := loadTable(opts.RootOptions)
	if err != nil {
		return err
	}

	if opts.ForRef != "" {
		aliases := table.AliasesFor(intent.FieldRef(opts.ForRef))
		if len(aliases) == 0 {
			return NewExitError(ExitFailure,
				fmt.Sprintf("no aliases bound to %q", opts.ForRef))
		}
		if opts.Format == "json" {
			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(map[string]any{"ref": opts.ForRef, "aliases": aliases})
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(aliases, "\n"))
		return nil
	}

	if opts.Format == "json" {
		byRef := make(map[string][]string)
		for _, ref := range table.Refs() {
			byRef[string(ref)] = table.AliasesFor(ref)
		}
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(byRef)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tALIASES")
	for _, ref := range table.Refs() {
		fmt.Fprintf(w, "%s\t%s\n", ref, strings.Join(table.AliasesFor(ref), ", "))
	}
	return w.Flush()
}
