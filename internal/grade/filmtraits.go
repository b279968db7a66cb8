package grade

import (
	"math"
	"sort"

	"github.com/draftgrid/bigboard/internal/identity"
)

// filmTraitWeights are the per-position charting rubrics. Scouts score
// each sub-trait 0-100; weights within a position sum to 1.0.
var filmTraitWeights = map[identity.Position]map[string]float64{
	identity.QB: {
		"processing":          0.22,
		"accuracy":            0.20,
		"arm_talent":          0.14,
		"creation":            0.14,
		"pocket_presence":     0.15,
		"situational_command": 0.15,
	},
	identity.RB: {
		"vision":          0.22,
		"burst":           0.16,
		"contact_balance": 0.20,
		"lateral_agility": 0.12,
		"pass_pro":        0.15,
		"receiving":       0.15,
	},
	identity.WR: {
		"release":       0.18,
		"route_running": 0.21,
		"separation":    0.22,
		"ball_skills":   0.16,
		"yac":           0.13,
		"play_strength": 0.10,
	},
	identity.TE: {
		"release":         0.12,
		"route_running":   0.17,
		"ball_skills":     0.17,
		"yac":             0.14,
		"inline_blocking": 0.22,
		"pass_pro":        0.18,
	},
	identity.OT: {
		"pass_set":     0.20,
		"anchor":       0.18,
		"hand_usage":   0.18,
		"recovery":     0.14,
		"run_blocking": 0.16,
		"processing":   0.14,
	},
	identity.IOL: {
		"leverage":        0.18,
		"anchor":          0.18,
		"hand_usage":      0.16,
		"processing":      0.18,
		"lateral_agility": 0.12,
		"run_blocking":    0.18,
	},
	identity.EDGE: {
		"get_off":       0.17,
		"bend":          0.19,
		"hand_usage":    0.16,
		"rush_plan":     0.15,
		"counter_moves": 0.13,
		"run_defense":   0.20,
	},
	identity.DT: {
		"get_off":     0.15,
		"power":       0.20,
		"hand_usage":  0.16,
		"leverage":    0.18,
		"pass_rush":   0.15,
		"run_defense": 0.16,
	},
	identity.LB: {
		"processing":           0.21,
		"trigger":              0.16,
		"range":                0.18,
		"block_deconstruction": 0.14,
		"coverage":             0.16,
		"tackling":             0.15,
	},
	identity.CB: {
		"press":          0.15,
		"footwork":       0.16,
		"recovery_speed": 0.17,
		"processing":     0.16,
		"ball_skills":    0.19,
		"tackling":       0.17,
	},
	identity.S: {
		"processing":    0.20,
		"range":         0.18,
		"man_coverage":  0.14,
		"tackling":      0.16,
		"angles":        0.16,
		"communication": 0.16,
	},
}

// FilmTraitNames lists the charted sub-traits for a position, sorted.
func FilmTraitNames(pos identity.Position) []string {
	weights := filmTraitWeights[pos]
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilmEval is the weighted film-chart score with the coverage metadata
// used to pick the trait blend weight.
type FilmEval struct {
	Charted      bool    // false when no rubric or nothing covered
	Score        float64 // [0,100], sparse penalty applied
	Raw          float64 // [0,100], before sparse penalty
	Coverage     float64 // covered rubric weight, [0,1]
	MissingCount int
}

// ScoreFilmTraits reduces a partial sub-trait chart to one score. Charts
// that cover under 65% of the rubric weight take a sparse penalty so a
// two-trait chart can't dominate a grade.
func ScoreFilmTraits(pos identity.Position, subtraits map[string]float64) FilmEval {
	weights := filmTraitWeights[pos]
	if len(weights) == 0 {
		return FilmEval{}
	}

	var weightedSum, covered float64
	missing := 0
	for trait, weight := range weights {
		raw, ok := subtraits[trait]
		if !ok {
			missing++
			continue
		}
		weightedSum += clamp(raw, 0, 100) * weight
		covered += weight
	}
	if covered == 0 {
		return FilmEval{MissingCount: len(weights)}
	}

	rawScore := weightedSum / covered
	penalty := math.Max(0, (0.65-covered)*8)

	return FilmEval{
		Charted:      true,
		Score:        clamp(rawScore-penalty, 0, 100),
		Raw:          rawScore,
		Coverage:     covered,
		MissingCount: missing,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
