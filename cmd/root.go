package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/draftgrid/bigboard/internal/config"
	"github.com/draftgrid/bigboard/internal/grade"
	"github.com/draftgrid/bigboard/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bigboard",
	Short: "NFL draft prospect board builder",
	Long:  "Joins consensus boards, analyst ranks, scouting reports, combine testing, and college production into one graded, team-fitted big board.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		// Weight tables are contract values; a table that stops summing
		// to 1.0 is a programming error worth failing fast on.
		if err := grade.ValidateWeights(); err != nil {
			return err
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the snapshot database and applies migrations.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
