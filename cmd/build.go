package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/draftgrid/bigboard/internal/board"
	"github.com/draftgrid/bigboard/internal/store"
	"github.com/draftgrid/bigboard/internal/teamfit"
)

var buildNoSnapshot bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Validate, load all sources, and build the big board",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seed, err := board.LoadSeed(cfg.Sources.Seed)
		if err != nil {
			return err
		}

		loaded, err := board.LoadSignals(ctx, cfg.Sources.Paths())
		if err != nil {
			return err
		}

		// QA runs on the raw seed: an identity collision halts the build
		// rather than being collapsed silently. Cleanup is the explicit
		// `seed dedupe` command.
		report := board.Validate(seed, loaded.CombineRows, loaded.CombineMeta)
		if report.Failed() {
			printReport(report)
			return eris.Errorf("validation failed with %d error(s); board not built", len(report.Errors))
		}

		teams, err := teamfit.LoadProfiles(cfg.Sources.TeamProfiles)
		if err != nil {
			return err
		}

		entries, err := board.Build(ctx, board.Input{
			Seed:    seed,
			Signals: loaded.Signals,
			Teams:   teams,
		})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", cfg.Output.Dir)
		}
		if err := board.WriteCSV(filepath.Join(cfg.Output.Dir, "big_board.csv"), entries); err != nil {
			return err
		}
		if err := board.WriteJSON(filepath.Join(cfg.Output.Dir, "big_board.json"), entries); err != nil {
			return err
		}
		if err := board.WriteMarkdown(filepath.Join(cfg.Output.Dir, "big_board.md"), entries); err != nil {
			return err
		}

		if !buildNoSnapshot {
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.SaveSnapshot(ctx, store.Snapshot{
				Season:     cfg.Sources.Season,
				Validation: report,
				Entries:    entries,
			})
			if err != nil {
				return err
			}
			zap.L().Info("snapshot saved", zap.String("run_id", run.ID))
		}

		zap.L().Info("board written",
			zap.Int("players", len(entries)),
			zap.String("dir", cfg.Output.Dir))
		return nil
	},
}

func printReport(report board.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoSnapshot, "no-snapshot", false, "skip persisting the build to the snapshot store")
	rootCmd.AddCommand(buildCmd)
}
