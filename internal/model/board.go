package model

import (
	"strconv"
	"strings"

	"github.com/draftgrid/bigboard/internal/identity"
)

// BoardEntry is one finished row of the big board. CSV and JSON exports
// share this struct so the two files always carry the same field set.
type BoardEntry struct {
	PlayerUID string `csv:"player_uid" json:"player_uid"`
	SeedRowID int    `csv:"seed_row_id" json:"seed_row_id"`
	RankSeed  int    `csv:"rank_seed" json:"rank_seed"`

	Name      string            `csv:"player_name" json:"player_name"`
	Pos       identity.Position `csv:"position" json:"position"`
	School    string            `csv:"school" json:"school"`
	HeightIn  int               `csv:"height_in" json:"height_in"`
	WeightLb  int               `csv:"weight_lb" json:"weight_lb"`
	ClassYear string            `csv:"class_year" json:"class_year"`

	ConsensusRank  int     `csv:"consensus_rank" json:"consensus_rank"`
	ConsensusScore float64 `csv:"consensus_score" json:"consensus_score"`

	GradeResult

	// RoundProjected is the hybrid projection: the grade-derived round
	// label, uplifted at most a capped number of bands by consensus rank.
	// It publishes as round_value; the grade-only label exports alongside
	// it as round_value_grade_only.
	RoundProjected string `csv:"round_value" json:"round_value"`

	FitTeam  string  `csv:"best_team_fit" json:"best_team_fit"`
	FitScore float64 `csv:"best_team_fit_score" json:"best_team_fit_score"`

	Archetype      string `csv:"archetype" json:"archetype"`
	CompPlayers    string `csv:"comp_players" json:"comp_players"`
	CompConfidence string `csv:"comp_confidence" json:"comp_confidence"`
	ScoutingNote   string `csv:"scouting_note" json:"scouting_note"`

	// Audit columns: the raw per-family signals that fed the grade, kept
	// on the row so a surprising grade can be traced without re-running.
	ConsensusSignal  float64 `csv:"consensus_signal" json:"consensus_signal"`
	AnalystAggregate float64 `csv:"analyst_aggregate" json:"analyst_aggregate"`
	ReportComposite  float64 `csv:"report_composite" json:"report_composite"`
	AthleticSignal   float64 `csv:"athletic_signal" json:"athletic_signal"`
	ProductionSignal float64 `csv:"production_signal" json:"production_signal"`
	RiskFlag         bool    `csv:"risk_flag" json:"risk_flag"`
}

// PlayerUID builds the stable export id for a seed row:
// "{seed_row_id}-{name lowercased, spaces hyphenated}".
func PlayerUID(seedRowID int, name string) string {
	slug := strings.ReplaceAll(identity.NormalizeName(name), " ", "-")
	return strconv.Itoa(seedRowID) + "-" + slug
}
