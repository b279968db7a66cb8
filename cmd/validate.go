package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/draftgrid/bigboard/internal/board"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the prebuild QA pass without building a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := board.LoadSeed(cfg.Sources.Seed)
		if err != nil {
			return err
		}

		loaded, err := board.LoadSignals(cmd.Context(), cfg.Sources.Paths())
		if err != nil {
			return err
		}

		report := board.Validate(seed, loaded.CombineRows, loaded.CombineMeta)
		printReport(report)

		if report.Failed() {
			return eris.Errorf("validation failed with %d error(s)", len(report.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
