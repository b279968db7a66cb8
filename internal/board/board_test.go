package board

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgrid/bigboard/internal/aggregate"
	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/loader"
	"github.com/draftgrid/bigboard/internal/model"
	"github.com/draftgrid/bigboard/internal/teamfit"
)

func seedRow(id, rank int, name, pos, height string, weight int, class string) model.SeedRow {
	return model.SeedRow{
		SeedRowID: id, RankSeed: rank, Name: name, PosRaw: pos,
		School: "State", Height: height, WeightLb: weight, ClassYear: class,
	}
}

func TestDedupeSeed_KeepsBestRankSeed(t *testing.T) {
	rows := []model.SeedRow{
		seedRow(10, 50, "Case Duplicate", "WR", `6'1"`, 195, "SR"),
		seedRow(11, 48, "Case Duplicate", "WR", `6'1"`, 195, "SR"),
	}

	kept, drops := DedupeSeed(rows)
	require.Len(t, kept, 1)
	assert.Equal(t, 11, kept[0].SeedRowID)
	require.Len(t, drops, 1)
	assert.Equal(t, 10, drops[0].Dropped.SeedRowID)
	assert.Equal(t, 11, drops[0].Kept.SeedRowID)
}

func TestDedupeSeed_RankTieKeepsLowestRowID(t *testing.T) {
	rows := []model.SeedRow{
		seedRow(22, 30, "Tie Case", "CB", `5'11"`, 185, "SR"),
		seedRow(7, 30, "Tie Case", "CB", `5'11"`, 185, "SR"),
	}

	kept, drops := DedupeSeed(rows)
	require.Len(t, kept, 1)
	assert.Equal(t, 7, kept[0].SeedRowID)
	assert.Equal(t, 22, drops[0].Dropped.SeedRowID)
}

func TestDedupeSeed_PreservesOrderOfDistinctRows(t *testing.T) {
	rows := []model.SeedRow{
		seedRow(1, 5, "Alpha One", "QB", `6'4"`, 220, "JR"),
		seedRow(2, 9, "Beta Two", "WR", `6'0"`, 190, "SR"),
		seedRow(3, 2, "Gamma Three", "EDGE", `6'5"`, 255, "JR"),
	}

	kept, drops := DedupeSeed(rows)
	require.Len(t, kept, 3)
	assert.Empty(t, drops)
	assert.Equal(t, []int{1, 2, 3}, []int{kept[0].SeedRowID, kept[1].SeedRowID, kept[2].SeedRowID})
}

func TestValidate_Pass(t *testing.T) {
	seed := []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}
	r := Validate(seed, nil, loader.Meta{Status: loader.StatusOK})

	assert.Equal(t, StatusPass, r.Status)
	assert.False(t, r.Failed())
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestValidate_IdentityCollisionFails(t *testing.T) {
	seed := []model.SeedRow{
		seedRow(10, 50, "Case Duplicate", "WR", `6'1"`, 195, "SR"),
		seedRow(11, 48, "Case Duplicate", "WR", `6'1"`, 195, "SR"),
	}
	r := Validate(seed, nil, loader.Meta{Status: loader.StatusOK})

	require.True(t, r.Failed())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "identity_collision", r.Errors[0].Code)
}

func TestValidate_CollisionWithSchoolDisagreementWarns(t *testing.T) {
	a := seedRow(10, 50, "Case Duplicate", "WR", `6'1"`, 195, "SR")
	b := seedRow(11, 48, "Case Duplicate", "WR", `6'1"`, 195, "SR")
	b.School = "Other State"
	r := Validate([]model.SeedRow{a, b}, nil, loader.Meta{Status: loader.StatusOK})

	require.True(t, r.Failed())
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "school_conflict", r.Warnings[0].Code)
}

func TestValidate_PhysicalBounds(t *testing.T) {
	seed := []model.SeedRow{
		seedRow(1, 5, "Short Stack", "RB", `5'2"`, 190, "SR"),      // 62in
		seedRow(2, 6, "Feather Weight", "WR", `6'0"`, 140, "SR"),   // 140lb
		seedRow(3, 7, "No Height", "TE", `tall`, 250, "SR"),        // unparseable
		seedRow(4, 8, "Fine Player", "CB", `5'11"`, 190, "SR"),     // clean
	}
	r := Validate(seed, nil, loader.Meta{Status: loader.StatusOK})

	require.True(t, r.Failed())
	codes := make(map[string]int)
	for _, issue := range r.Errors {
		codes[issue.Code]++
	}
	assert.Equal(t, 1, codes["height_out_of_range"])
	assert.Equal(t, 1, codes["weight_out_of_range"])
	assert.Equal(t, 1, codes["unparseable_height"])
}

func TestValidate_InvalidPositionFails(t *testing.T) {
	seed := []model.SeedRow{seedRow(1, 5, "Leg Specialist", "K", `6'0"`, 195, "SR")}
	r := Validate(seed, nil, loader.Meta{Status: loader.StatusOK})

	require.True(t, r.Failed())
	assert.Equal(t, "invalid_position", r.Errors[0].Code)
}

func TestValidate_CombineFindings(t *testing.T) {
	seed := []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}
	forty := 3.9 // faster than physically plausible
	rows := map[identity.Key]loader.CombineRow{
		identity.KeyOf("Trevor Example", "QB"): {
			Name: "Trevor Example", Pos: "QB", School: "Tech",
			Measurables: loader.Measurables{Forty: &forty},
		},
	}
	r := Validate(seed, rows, loader.Meta{Status: loader.StatusOK})

	require.True(t, r.Failed())
	assert.Equal(t, "combine_out_of_range", r.Errors[0].Code)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "school_conflict", r.Warnings[0].Code)
}

func TestValidate_MissingCombineWarns(t *testing.T) {
	seed := []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}
	r := Validate(seed, nil, loader.Meta{Status: loader.StatusMissing, Path: "combine.csv"})

	assert.Equal(t, StatusWarn, r.Status)
	assert.False(t, r.Failed())
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "missing_combine", r.Warnings[0].Code)
}

// The no-signal anchor scenario: a rank-5 junior QB graded purely from
// proxies must land at the top of the board as a Round 1 projection.
func TestBuild_NoSignalAnchorScenario(t *testing.T) {
	seed := []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}

	entries, err := Build(context.Background(), Input{Seed: seed})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "1-trevor-example", e.PlayerUID)
	assert.Equal(t, 76, e.HeightIn)
	assert.Equal(t, 1, e.ConsensusRank)
	// 0.70·(301−5) + 0.30·50 (neutral analyst aggregate)
	assert.InDelta(t, 222.2, e.ConsensusScore, 1e-9)
	assert.InDelta(t, 96.375, e.TraitScore, 1e-9)
	assert.InDelta(t, 91.6075, e.FinalGrade, 1e-4)
	assert.Equal(t, "Round 1-2", e.RoundValue)
	assert.Equal(t, "Round 1", e.RoundProjected)
	assert.False(t, e.FilmTraitCharted)

	// Neutral audit columns when no source loaded.
	assert.Equal(t, 50.0, e.ConsensusSignal)
	assert.Equal(t, 50.0, e.AnalystAggregate)
	assert.Equal(t, 50.0, e.ReportComposite)
	assert.Equal(t, 70.0, e.AthleticSignal)
	assert.Equal(t, 55.0, e.ProductionSignal)
	assert.False(t, e.RiskFlag)
}

func TestBuild_RanksAreContiguousAndOrdered(t *testing.T) {
	seed := []model.SeedRow{
		seedRow(1, 40, "Delta Player", "WR", `6'0"`, 190, "SR"),
		seedRow(2, 3, "Alpha Player", "QB", `6'4"`, 222, "JR"),
		seedRow(3, 120, "Echo Player", "LB", `6'2"`, 235, "SR"),
		seedRow(4, 12, "Bravo Player", "EDGE", `6'5"`, 255, "JR"),
	}

	entries, err := Build(context.Background(), Input{Seed: seed})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for i, e := range entries {
		assert.Equal(t, i+1, e.ConsensusRank)
		if i > 0 {
			assert.GreaterOrEqual(t, entries[i-1].ConsensusScore, e.ConsensusScore)
		}
	}
	assert.Equal(t, "Alpha Player", entries[0].Name)
	assert.Equal(t, "Echo Player", entries[3].Name)
}

func TestBuild_TieBreaksOnRankSeedThenName(t *testing.T) {
	// Same rank_seed, no signals: identical consensus scores.
	seed := []model.SeedRow{
		seedRow(2, 10, "Zed Same", "WR", `6'0"`, 190, "SR"),
		seedRow(1, 10, "Abe Same", "CB", `5'11"`, 190, "SR"),
	}

	entries, err := Build(context.Background(), Input{Seed: seed})
	require.NoError(t, err)
	assert.Equal(t, "Abe Same", entries[0].Name)
	assert.Equal(t, "Zed Same", entries[1].Name)
}

func TestBuild_UsesLoadedSignals(t *testing.T) {
	key := identity.KeyOf("Sam Sample", "EDGE")
	seed := []model.SeedRow{seedRow(9, 60, "Sam Sample", "EDGE", `6'4"`, 252, "SR")}
	signals := aggregate.Signals{
		Analyst: map[identity.Key]loader.AnalystSignal{
			key: {Aggregate: 90.0, BestRank: 11},
		},
		Reports: map[identity.Key]loader.ReportSignal{
			key: {Composite: 71.0, RiskFlag: true},
		},
	}

	entries, err := Build(context.Background(), Input{Seed: seed, Signals: signals})
	require.NoError(t, err)

	e := entries[0]
	// 0.70·(301−60) + 0.30·90
	assert.InDelta(t, 195.7, e.ConsensusScore, 1e-9)
	assert.Equal(t, 90.0, e.AnalystAggregate)
	assert.Equal(t, 71.0, e.ReportComposite)
	assert.True(t, e.RiskFlag)
}

func TestBuild_TeamFitColumns(t *testing.T) {
	teams := []teamfit.Profile{
		{Team: "SEA", Needs: []string{"QB", "OT", "CB"}, OffScheme: "shanahan", DefScheme: "3-4", GMProfile: "reset_qb"},
		{Team: "DAL", Needs: []string{"EDGE", "WR", "S"}, OffScheme: "spread", DefScheme: "4-3", GMProfile: "trench_focus"},
	}
	seed := []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}

	entries, err := Build(context.Background(), Input{Seed: seed, Teams: teams})
	require.NoError(t, err)
	assert.Equal(t, "SEA", entries[0].FitTeam)
	assert.InDelta(t, 87.75, entries[0].FitScore, 1e-9)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, Input{Seed: []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProjectRound(t *testing.T) {
	// Rank pulls earlier, capped at two bands inside the top 8.
	assert.Equal(t, "Round 2-3", projectRound(5, "Round 4-5"))
	// One band inside the top 40.
	assert.Equal(t, "Round 3-4", projectRound(30, "Round 4-5"))
	// No uplift past rank 40.
	assert.Equal(t, "Round 4-5", projectRound(150, "Round 4-5"))
	// A late consensus rank never drags a strong grade down.
	assert.Equal(t, "Round 1", projectRound(200, "Round 1"))
	// The anchor case: top-of-board rank lifts Round 1-2 into Round 1.
	assert.Equal(t, "Round 1", projectRound(1, "Round 1-2"))
	// Agreement is a no-op.
	assert.Equal(t, "Round 2-3", projectRound(40, "Round 2-3"))
}

func TestLoadSignals_AllSourcesMissing(t *testing.T) {
	dir := t.TempDir()
	paths := SourcePaths{
		Consensus:  filepath.Join(dir, "consensus.csv"),
		Analyst:    filepath.Join(dir, "analyst.csv"),
		Reports:    filepath.Join(dir, "reports.csv"),
		Reference:  filepath.Join(dir, "reference.csv"),
		Combine:    filepath.Join(dir, "combine.csv"),
		Production: filepath.Join(dir, "production.csv"),
		Film:       filepath.Join(dir, "film.csv"),
	}

	loaded, err := LoadSignals(context.Background(), paths)
	require.NoError(t, err)

	for _, meta := range loaded.Metas {
		assert.Equal(t, loader.StatusMissing, meta.Status, meta.Source)
	}
	assert.Empty(t, loaded.Signals.Consensus)
	assert.Empty(t, loaded.CombineRows)

	// A board still builds, entirely on neutral defaults.
	entries, err := Build(context.Background(), Input{
		Seed:    []model.SeedRow{seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR")},
		Signals: loaded.Signals,
	})
	require.NoError(t, err)
	assert.Equal(t, "Round 1", entries[0].RoundProjected)
}

func TestExportRoundTrip(t *testing.T) {
	seed := []model.SeedRow{
		seedRow(1, 5, "Trevor Example", "QB", `6'4"`, 220, "JR"),
		seedRow(2, 33, "Sam Sample", "EDGE", `6'4"`, 252, "SR"),
	}
	entries, err := Build(context.Background(), Input{Seed: seed})
	require.NoError(t, err)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "board.csv")
	jsonPath := filepath.Join(dir, "board.json")
	mdPath := filepath.Join(dir, "board.md")

	require.NoError(t, WriteCSV(csvPath, entries))
	require.NoError(t, WriteJSON(jsonPath, entries))
	require.NoError(t, WriteMarkdown(mdPath, entries))

	csvRaw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	var fromCSV []model.BoardEntry
	require.NoError(t, csvutil.Unmarshal(csvRaw, &fromCSV))
	assert.Equal(t, entries, fromCSV)

	jsonRaw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []model.BoardEntry
	require.NoError(t, json.Unmarshal(jsonRaw, &fromJSON))
	assert.Equal(t, entries, fromJSON)

	// The published round column carries the hybrid projection; the
	// grade-only label rides alongside it under its own name.
	assert.Contains(t, string(jsonRaw), `"round_value": "Round 1"`)
	assert.Contains(t, string(jsonRaw), `"round_value_grade_only": "Round 1-2"`)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Trevor Example")
}
