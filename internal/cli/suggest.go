package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/nlq"
)

// SuggestOptions holds flags for the suggest command.
type SuggestOptions struct {
	*RootOptions
	Max int
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuggestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suggest [partial]...",
		Short: "Suggest query completions",
		Long: `Propose completions for a partial query, drawn from the field
aliases, extractor vocabularies, and the canned templates. With no
argument, lists the templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Max, "max", 10, "maximum number of suggestions")

	return cmd
}

func runSuggest(opts *SuggestOptions, partial string, cmd *cobra.Command) error {
	table, err := loadTable(opts.RootOptions)
	if err != nil {
		return err
	}
	states, err := loadStates(opts.RootOptions)
	if err != nil {
		return err
	}

	got := nlq.Suggest(partial, nlq.Options{Table: table, States: states}, opts.Max)

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(map[string]any{"partial": partial, "suggestions": got})
	}
	for _, s := range got {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}
