package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/nlq"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigFile  string
	FieldsTable string // CUE field-table path, layered over the defaults
	StatesFile  string // YAML state-vocabulary path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quarry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "quarry - natural language work-item queries",
		Long: `Convert free-form requests about work items into WIQL and run
them against Azure DevOps.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $HOME/.quarry.yaml)")
	cmd.PersistentFlags().StringVar(&opts.FieldsTable, "fields-table", "", "CUE field table layered over the built-in one")
	cmd.PersistentFlags().StringVar(&opts.StatesFile, "states", "", "YAML state vocabulary layered over the built-in one")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewSavedCommand(opts))
	cmd.AddCommand(NewProjectsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadTable builds the active field table, layering a user-supplied
// CUE table over the defaults when one is given.
func loadTable(opts *RootOptions) (*fields.Table, error) {
	if opts.FieldsTable == "" {
		return fields.Default(), nil
	}
	t, err := fields.LoadFile(opts.FieldsTable)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load field table", err)
	}
	return t, nil
}

// loadStates builds the active state vocabulary.
func loadStates(opts *RootOptions) (nlq.StateVocabulary, error) {
	if opts.StatesFile == "" {
		return nil, nil // converter falls back to its defaults
	}
	vocab, err := nlq.LoadStateVocabulary(opts.StatesFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load state vocabulary", err)
	}
	return vocab, nil
}
