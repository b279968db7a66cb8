// Package model defines the typed records passed between pipeline stages.
package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/draftgrid/bigboard/internal/identity"
)

// SeedRow is one human-curated prospect row, the root entity for a draft
// class. seed_row_id is the only persisted primary key; the canonical
// identity key is recomputed on every load.
type SeedRow struct {
	SeedRowID int    `csv:"seed_row_id" json:"seed_row_id"`
	RankSeed  int    `csv:"rank_seed" json:"rank_seed"`
	Name      string `csv:"player_name" json:"player_name"`
	PosRaw    string `csv:"pos_raw" json:"pos_raw"`
	School    string `csv:"school" json:"school"`
	Height    string `csv:"height" json:"height"`
	WeightLb  int    `csv:"weight_lb" json:"weight_lb"`
	ClassYear string `csv:"class_year" json:"class_year"`
}

// Key returns the canonical identity key for this row.
func (r SeedRow) Key() identity.Key {
	return identity.KeyOf(r.Name, r.PosRaw)
}

// Position returns the normalized position for this row.
func (r SeedRow) Position() identity.Position {
	return identity.NormalizePosition(r.PosRaw)
}

// HeightIn parses the row's F'II" height string into total inches.
func (r SeedRow) HeightIn() (int, error) {
	return ParseHeight(r.Height)
}

// Underclass reports whether the class year marks an early-entry candidate.
func Underclass(classYear string) bool {
	switch strings.ToUpper(strings.TrimSpace(classYear)) {
	case "SO", "RSO", "FR", "RFR":
		return true
	}
	return false
}

// ParseHeight converts a height like `6'4"` into total inches.
func ParseHeight(height string) (int, error) {
	txt := strings.TrimSpace(strings.ReplaceAll(height, `"`, ""))
	feet, inches, ok := strings.Cut(txt, "'")
	if !ok {
		return 0, eris.Errorf("model: height %q not in F'II\" form", height)
	}
	f, err := strconv.Atoi(strings.TrimSpace(feet))
	if err != nil {
		return 0, eris.Wrapf(err, "model: height feet %q", height)
	}
	i, err := strconv.Atoi(strings.TrimSpace(inches))
	if err != nil {
		return 0, eris.Wrapf(err, "model: height inches %q", height)
	}
	return f*12 + i, nil
}

// FormatHeight renders total inches back into the seed file's F'II" form.
func FormatHeight(totalIn int) string {
	return strconv.Itoa(totalIn/12) + "'" + strconv.Itoa(totalIn%12) + `"`
}
