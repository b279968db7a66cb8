package main

import (
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/draftgrid/bigboard/internal/board"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed file maintenance",
}

var seedDedupeOut string

var seedDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Collapse seed rows that share an identity key",
	Long:  "Keeps the row with the best rank_seed per (name, position); ties keep the lowest seed_row_id. Writes the cleaned file rather than editing the curated input in place.",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := board.LoadSeed(cfg.Sources.Seed)
		if err != nil {
			return err
		}

		kept, drops := board.DedupeSeed(seed)
		for _, d := range drops {
			zap.L().Info("duplicate seed row",
				zap.Int("kept_row", d.Kept.SeedRowID),
				zap.Int("dropped_row", d.Dropped.SeedRowID),
				zap.String("player", d.Kept.Name))
		}

		out := seedDedupeOut
		if out == "" {
			out = filepath.Join(cfg.Output.Dir, "seed_deduped.csv")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return eris.Wrapf(err, "create output dir for %s", out)
		}

		data, err := csvutil.Marshal(kept)
		if err != nil {
			return eris.Wrap(err, "marshal seed csv")
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}

		zap.L().Info("seed deduped",
			zap.Int("rows_in", len(seed)),
			zap.Int("rows_out", len(kept)),
			zap.Int("dropped", len(drops)),
			zap.String("out", out))
		return nil
	},
}

func init() {
	seedDedupeCmd.Flags().StringVar(&seedDedupeOut, "out", "", "output path for the cleaned seed file")
	seedCmd.AddCommand(seedDedupeCmd)
	rootCmd.AddCommand(seedCmd)
}
