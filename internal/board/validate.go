package board

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/loader"
	"github.com/draftgrid/bigboard/internal/model"
)

// Validation statuses. Fail blocks the build; warn does not.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// Issue is one validation finding, tied back to the seed row it came from
// where one applies.
type Issue struct {
	Severity  string `json:"severity"` // "error" or "warning"
	Code      string `json:"code"`
	SeedRowID int    `json:"seed_row_id,omitempty"`
	Detail    string `json:"detail"`
}

// Report is the structured prebuild-QA result.
type Report struct {
	Status   string  `json:"status"`
	SeedRows int     `json:"seed_rows"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Failed reports whether the findings block a board build.
func (r Report) Failed() bool { return r.Status == StatusFail }

// Plausible physical bounds for seed rows.
const (
	minHeightIn = 64
	maxHeightIn = 84
	minWeightLb = 150
	maxWeightLb = 420
)

// combineBounds are plausible physical bounds per combine metric. A value
// outside its band is an entry error, not an outlier athlete.
var combineBounds = map[string][2]float64{
	"height_in":  {minHeightIn, maxHeightIn},
	"weight_lb":  {minWeightLb, maxWeightLb},
	"arm_in":     {28, 38},
	"hand_in":    {7.5, 11.5},
	"forty":      {4.2, 6.2},
	"ten_split":  {1.4, 2.2},
	"vertical":   {20, 46},
	"broad":      {90, 145},
	"three_cone": {6.3, 8.8},
	"shuttle":    {3.8, 5.4},
	"bench":      {5, 50},
}

// Validate runs the prebuild QA pass over the deduped seed and the loaded
// combine rows. Identity collisions and out-of-range physicals are errors;
// school disagreements and a missing combine file are warnings.
func Validate(seed []model.SeedRow, combineRows map[identity.Key]loader.CombineRow, combineMeta loader.Meta) Report {
	r := Report{SeedRows: len(seed)}
	addErr := func(code string, rowID int, format string, args ...any) {
		r.Errors = append(r.Errors, Issue{Severity: "error", Code: code, SeedRowID: rowID, Detail: fmt.Sprintf(format, args...)})
	}
	addWarn := func(code string, rowID int, format string, args ...any) {
		r.Warnings = append(r.Warnings, Issue{Severity: "warning", Code: code, SeedRowID: rowID, Detail: fmt.Sprintf(format, args...)})
	}

	byKey := make(map[identity.Key][]model.SeedRow, len(seed))
	for _, row := range seed {
		if !row.Position().Known() {
			addErr("invalid_position", row.SeedRowID, "position %q does not map to the canonical set", row.PosRaw)
		}
		if key := row.Key(); key.Valid() {
			byKey[key] = append(byKey[key], row)
		}

		h, err := row.HeightIn()
		switch {
		case err != nil:
			addErr("unparseable_height", row.SeedRowID, "height %q is not F'II\" form", row.Height)
		case h < minHeightIn || h > maxHeightIn:
			addErr("height_out_of_range", row.SeedRowID, "height %din outside [%d, %d]", h, minHeightIn, maxHeightIn)
		}
		if row.WeightLb < minWeightLb || row.WeightLb > maxWeightLb {
			addErr("weight_out_of_range", row.SeedRowID, "weight %dlb outside [%d, %d]", row.WeightLb, minWeightLb, maxWeightLb)
		}
	}

	keys := make([]identity.Key, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Pos < keys[j].Pos
	})
	for _, key := range keys {
		rows := byKey[key]
		if len(rows) < 2 {
			continue
		}
		ids := make([]int, len(rows))
		schools := make(map[string]bool, len(rows))
		for i, row := range rows {
			ids[i] = row.SeedRowID
			schools[row.School] = true
		}
		addErr("identity_collision", 0, "seed rows %v collide on (%s, %s)", ids, key.Name, key.Pos)
		if len(schools) > 1 {
			addWarn("school_conflict", 0, "colliding rows for (%s, %s) disagree on school", key.Name, key.Pos)
		}
	}

	if combineMeta.Status == loader.StatusMissing {
		addWarn("missing_combine", 0, "combine file %s absent; athletic scores fall back to neutral", combineMeta.Path)
	}
	for _, row := range seed {
		combine, ok := combineRows[row.Key()]
		if !ok {
			continue
		}
		if combine.School != "" && row.School != "" && combine.School != row.School {
			addWarn("school_conflict", row.SeedRowID, "seed school %q vs combine school %q", row.School, combine.School)
		}
		for metric, v := range combine.Values() {
			b, ok := combineBounds[metric]
			if !ok {
				continue
			}
			if v < b[0] || v > b[1] {
				addErr("combine_out_of_range", row.SeedRowID, "%s %.2f outside [%.2f, %.2f]", metric, v, b[0], b[1])
			}
		}
	}

	switch {
	case len(r.Errors) > 0:
		r.Status = StatusFail
	case len(r.Warnings) > 0:
		r.Status = StatusWarn
	default:
		r.Status = StatusPass
	}

	if r.Status != StatusPass {
		zap.L().Warn("seed validation finished with findings",
			zap.String("status", r.Status),
			zap.Int("errors", len(r.Errors)),
			zap.Int("warnings", len(r.Warnings)))
	}
	return r
}
