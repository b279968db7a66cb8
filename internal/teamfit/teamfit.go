// Package teamfit scores how well a prospect projects onto each team,
// from a YAML profile of every team's top needs, schemes, and front-office
// tendencies.
package teamfit

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/draftgrid/bigboard/internal/identity"
)

// Need slot weights, first listed need down.
var needWeights = [3]float64{1.0, 0.72, 0.48}

const (
	needFloor = 0.15 // position not among the team's listed needs

	// Fit component weights. The 0.15 slot is a flat trait baseline:
	// team-specific trait preferences are not modeled, so every team
	// contributes the same 0.75 there.
	needWeight     = 0.50
	schemeWeight   = 0.25
	traitWeight    = 0.15
	traitBaseline  = 0.75
	tendencyWeight = 0.10
)

// Profile is one team's draft posture for the cycle.
type Profile struct {
	Team      string   `yaml:"team"`
	Needs     []string `yaml:"needs"`
	OffScheme string   `yaml:"off_scheme"`
	DefScheme string   `yaml:"def_scheme"`
	GMProfile string   `yaml:"gm_profile"`
}

type profileFile struct {
	Teams []Profile `yaml:"teams"`
}

// LoadProfiles reads the team-profile YAML file. Every entry must name a
// team; needs must be mappable positions.
func LoadProfiles(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "teamfit: read %s", path)
	}

	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "teamfit: parse %s", path)
	}

	for _, p := range file.Teams {
		if p.Team == "" {
			return nil, eris.New("teamfit: profile with empty team name")
		}
		for _, need := range p.Needs {
			if !identity.NormalizePosition(need).Known() {
				return nil, eris.Errorf("teamfit: team %s lists unknown need %q", p.Team, need)
			}
		}
	}
	return file.Teams, nil
}

// NeedScore weights how urgently the team needs the position.
func NeedScore(p Profile, pos identity.Position) float64 {
	for i, need := range p.Needs {
		if i >= len(needWeights) {
			break
		}
		if identity.NormalizePosition(need) == pos {
			return needWeights[i]
		}
	}
	return needFloor
}

var offensePositions = map[identity.Position]bool{
	"QB": true, "WR": true, "OT": true, "TE": true, "RB": true, "IOL": true,
}

var defensePositions = map[identity.Position]bool{
	"EDGE": true, "DT": true, "LB": true, "CB": true, "S": true,
}

// SchemeScore weights scheme alignment between the team and the position.
func SchemeScore(p Profile, pos identity.Position) float64 {
	if offensePositions[pos] {
		switch p.OffScheme {
		case "shanahan", "wide_zone":
			if pos == "OT" || pos == "TE" || pos == "RB" {
				return 0.92
			}
		case "spread", "shotgun_spread", "vertical":
			if pos == "QB" || pos == "WR" {
				return 0.9
			}
		}
		return 0.7
	}

	if defensePositions[pos] {
		switch p.DefScheme {
		case "3-4", "multiple":
			if pos == "EDGE" || pos == "LB" || pos == "CB" || pos == "S" {
				return 0.9
			}
		case "4-3", "4-2-5":
			if pos == "DT" || pos == "EDGE" || pos == "CB" || pos == "S" {
				return 0.88
			}
		}
		return 0.68
	}

	return 0.7
}

// TendencyScore weights the front office's historical draft leanings.
func TendencyScore(p Profile, pos identity.Position) float64 {
	switch p.GMProfile {
	case "trench_focus", "bpa_trenches":
		if pos == "OT" || pos == "IOL" || pos == "EDGE" || pos == "DT" {
			return 0.9
		}
	case "speed_priority", "traits_speed":
		if pos == "WR" || pos == "CB" || pos == "EDGE" || pos == "RB" {
			return 0.88
		}
	case "reset_qb", "offense_first":
		if pos == "QB" || pos == "WR" || pos == "OT" {
			return 0.9
		}
	}
	return 0.72
}

// Fit scores one (team, position) pairing on a 0-100 scale.
func Fit(p Profile, pos identity.Position) float64 {
	score := needWeight*NeedScore(p, pos) +
		schemeWeight*SchemeScore(p, pos) +
		traitWeight*traitBaseline +
		tendencyWeight*TendencyScore(p, pos)
	return round2(score * 100.0)
}

// FitWithRole is Fit with the need component blended 60/40 against a
// role-pressure signal in [0, 1], for callers that model positional
// scarcity on the board.
func FitWithRole(p Profile, pos identity.Position, rolePressure float64) float64 {
	need := 0.60*NeedScore(p, pos) + 0.40*clamp01(rolePressure)
	score := needWeight*need +
		schemeWeight*SchemeScore(p, pos) +
		traitWeight*traitBaseline +
		tendencyWeight*TendencyScore(p, pos)
	return round2(score * 100.0)
}

// BestFit returns the highest-scoring team for a position. Ties keep the
// first profile in file order.
func BestFit(profiles []Profile, pos identity.Position) (string, float64) {
	bestTeam := ""
	bestScore := -1.0
	for _, p := range profiles {
		if score := Fit(p, pos); score > bestScore {
			bestTeam, bestScore = p.Team, score
		}
	}
	return bestTeam, bestScore
}

// PickNeeds maps each team to its listed needs, in priority order.
func PickNeeds(profiles []Profile) map[string][]identity.Position {
	out := make(map[string][]identity.Position, len(profiles))
	for _, p := range profiles {
		needs := make([]identity.Position, 0, len(p.Needs))
		for _, need := range p.Needs {
			needs = append(needs, identity.NormalizePosition(need))
		}
		out[p.Team] = needs
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
