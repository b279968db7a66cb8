// Package grade turns a player's seed rank, frame, and film chart into a
// position-weighted grade. Every sub-score clamps to its range, so grading
// never fails; bad inputs surface upstream in validation.
package grade

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/model"
)

// Weights splits a final grade across the five sub-scores. Per position
// they must sum to 1.0; ValidateWeights enforces this instead of silently
// renormalizing, so a table typo fails loudly.
type Weights struct {
	Trait      float64
	Production float64
	Athletic   float64
	Size       float64
	Context    float64
}

var positionWeights = map[identity.Position]Weights{
	identity.QB:   {Trait: 0.40, Production: 0.25, Athletic: 0.15, Size: 0.10, Context: 0.10},
	identity.RB:   {Trait: 0.33, Production: 0.30, Athletic: 0.20, Size: 0.07, Context: 0.10},
	identity.WR:   {Trait: 0.35, Production: 0.30, Athletic: 0.20, Size: 0.05, Context: 0.10},
	identity.TE:   {Trait: 0.35, Production: 0.25, Athletic: 0.20, Size: 0.10, Context: 0.10},
	identity.OT:   {Trait: 0.40, Production: 0.20, Athletic: 0.15, Size: 0.15, Context: 0.10},
	identity.IOL:  {Trait: 0.40, Production: 0.20, Athletic: 0.12, Size: 0.18, Context: 0.10},
	identity.EDGE: {Trait: 0.36, Production: 0.28, Athletic: 0.20, Size: 0.08, Context: 0.08},
	identity.DT:   {Trait: 0.36, Production: 0.26, Athletic: 0.15, Size: 0.15, Context: 0.08},
	identity.LB:   {Trait: 0.35, Production: 0.25, Athletic: 0.20, Size: 0.10, Context: 0.10},
	identity.CB:   {Trait: 0.38, Production: 0.25, Athletic: 0.22, Size: 0.05, Context: 0.10},
	identity.S:    {Trait: 0.35, Production: 0.25, Athletic: 0.20, Size: 0.08, Context: 0.12},
}

// frame is the positional minimum height/weight used by both the size
// score and the athletic frame bonus.
type frame struct {
	MinHeightIn int
	MinWeightLb int
}

var athleticThresholds = map[identity.Position]frame{
	identity.QB:   {74, 215},
	identity.RB:   {69, 200},
	identity.WR:   {70, 185},
	identity.TE:   {76, 245},
	identity.OT:   {77, 310},
	identity.IOL:  {74, 300},
	identity.EDGE: {75, 250},
	identity.DT:   {74, 290},
	identity.LB:   {73, 225},
	identity.CB:   {70, 185},
	identity.S:    {71, 200},
}

var coreStatByPos = map[identity.Position]string{
	identity.QB:   "Decision Velocity Index",
	identity.RB:   "Contact Balance Density",
	identity.WR:   "Separation Threat Index",
	identity.TE:   "Mismatch Conversion Rate",
	identity.OT:   "Pass-Set Stability Score",
	identity.IOL:  "Pocket Integrity Rate",
	identity.EDGE: "Disruption Conversion Score",
	identity.DT:   "Interior Shock Index",
	identity.LB:   "Trigger Range Index",
	identity.CB:   "Coverage Disruption Rate",
	identity.S:    "Conflict Resolver Index",
}

var schemeFitByPos = map[identity.Position]string{
	identity.QB:   "spread_timing",
	identity.RB:   "wide_zone",
	identity.WR:   "spread_vertical",
	identity.TE:   "multiple_attach_detach",
	identity.OT:   "zone_power_hybrid",
	identity.IOL:  "inside_zone_gap",
	identity.EDGE: "multiple_front_pass_rush",
	identity.DT:   "one_gap_attack",
	identity.LB:   "match_zone_blitz",
	identity.CB:   "press_match",
	identity.S:    "split_safety_multiplicity",
}

var roleByPos = map[identity.Position]string{
	identity.QB:   "Franchise or high-end distributor",
	identity.RB:   "Primary committee back with passing-down utility",
	identity.WR:   "Alignment-flexible target earner",
	identity.TE:   "In-line + move mismatch",
	identity.OT:   "Starting tackle with pass-pro floor",
	identity.IOL:  "Starter with interior pocket-control value",
	identity.EDGE: "Three-down pressure creator",
	identity.DT:   "Early-down anchor with interior rush upside",
	identity.LB:   "Run-and-hit communicator",
	identity.CB:   "Outside starter with matchup flexibility",
	identity.S:    "Coverage-adjustment back-end starter",
}

// ValidateWeights checks every position's weight row sums to 1.0.
func ValidateWeights() error {
	for pos, w := range positionWeights {
		sum := w.Trait + w.Production + w.Athletic + w.Size + w.Context
		if math.Abs(sum-1.0) > 1e-9 {
			return eris.Errorf("grade: %s weights sum to %.4f, want 1.0", pos, sum)
		}
	}
	return nil
}

func sizeScore(pos identity.Position, heightIn, weightLb int) float64 {
	f, ok := athleticThresholds[pos]
	if !ok {
		f = frame{72, 200}
	}

	// Tolerance band above the minimum before mild penalties kick in.
	hSoft := f.MinHeightIn + 4
	wSoft := f.MinWeightLb + 35

	hBelow := max(0, f.MinHeightIn-heightIn)
	hAbove := max(0, heightIn-hSoft)
	wBelow := max(0, f.MinWeightLb-weightLb)
	wAbove := max(0, weightLb-wSoft)

	score := 90.0 - 1.5*float64(hBelow) - 0.35*float64(hAbove) -
		0.12*float64(wBelow) - 0.02*float64(wAbove)
	return clamp(score, 62, 95)
}

func athleticProxy(pos identity.Position, rankSeed, heightIn, weightLb int) float64 {
	base := 90.0 - float64(rankSeed)*0.09

	f, ok := athleticThresholds[pos]
	if !ok {
		f = frame{72, 220}
	}
	frameBonus := float64(heightIn-f.MinHeightIn)*0.28 + float64(weightLb-f.MinWeightLb)*0.008

	posMod := map[identity.Position]float64{
		identity.QB:   1.5,
		identity.RB:   0.8,
		identity.WR:   1.0,
		identity.TE:   0.9,
		identity.OT:   0.7,
		identity.IOL:  0.4,
		identity.EDGE: 1.2,
		identity.DT:   0.8,
		identity.LB:   1.0,
		identity.CB:   1.1,
		identity.S:    1.0,
	}
	mod, ok := posMod[pos]
	if !ok {
		mod = 0.8
	}
	return clamp(base+frameBonus*mod, 60, 95)
}

func traitProxyScore(pos identity.Position, rankSeed int) float64 {
	posBonus := map[identity.Position]float64{
		identity.QB:   1.8,
		identity.OT:   1.2,
		identity.EDGE: 1.0,
		identity.CB:   0.9,
		identity.WR:   0.8,
	}
	bonus, ok := posBonus[pos]
	if !ok {
		bonus = 0.5
	}
	return clamp(95.0-float64(rankSeed)*0.085+bonus, 60, 97)
}

// filmBlendWeight gives higher-coverage charts more authority over the
// rank-derived trait proxy.
func filmBlendWeight(coverage float64) float64 {
	switch {
	case coverage >= 0.90:
		return 0.55
	case coverage >= 0.75:
		return 0.45
	case coverage >= 0.50:
		return 0.35
	default:
		return 0.25
	}
}

func productionScore(classYear string, rankSeed int) float64 {
	expBonus := 0.5
	switch {
	case classYear == "SO" || classYear == "RSO":
		expBonus = 0.2
	case len(classYear) >= 2 && classYear[len(classYear)-2:] == "SR":
		expBonus = 1.2
	}
	return clamp(92.0-float64(rankSeed)*0.08+expBonus, 58, 95)
}

func contextScore(rankSeed int) float64 {
	return clamp(90.0-float64(rankSeed)*0.07, 62, 93)
}

func riskPenalty(classYear string, rankSeed int) float64 {
	earlyEntry := 0.9
	if model.Underclass(classYear) {
		earlyEntry = 1.8
	}
	uncertainty := 0.6
	if rankSeed > 180 {
		uncertainty = 1.4
	}
	return earlyEntry + uncertainty
}

// Player grades one prospect. filmSubtraits may be nil; when a chart is
// present its score blends into the trait proxy with coverage-scaled
// weight.
func Player(pos identity.Position, rankSeed int, classYear string, heightIn, weightLb int, filmSubtraits map[string]float64) model.GradeResult {
	weights := positionWeights[pos]

	traitProxy := traitProxyScore(pos, rankSeed)
	film := ScoreFilmTraits(pos, filmSubtraits)

	trait := traitProxy
	filmWeight := 0.0
	if film.Charted {
		filmWeight = filmBlendWeight(film.Coverage)
		trait = (1-filmWeight)*traitProxy + filmWeight*film.Score
	}

	prod := productionScore(classYear, rankSeed)
	ath := athleticProxy(pos, rankSeed, heightIn, weightLb)
	size := sizeScore(pos, heightIn, weightLb)
	context := contextScore(rankSeed)
	risk := riskPenalty(classYear, rankSeed)

	final := weights.Trait*trait +
		weights.Production*prod +
		weights.Athletic*ath +
		weights.Size*size +
		weights.Context*context -
		risk

	psi := 0.45*trait + 0.30*prod + 0.15*ath + 0.10*size

	ceilingBump := 1.5
	switch classYear {
	case "SO", "RSO", "JR":
		ceilingBump = 2.2
	}

	coreStat, ok := coreStatByPos[pos]
	if !ok {
		coreStat = "Prospect Signature Index"
	}
	role, ok := roleByPos[pos]
	if !ok {
		role = "Depth and developmental value"
	}
	scheme, ok := schemeFitByPos[pos]
	if !ok {
		scheme = "multiple"
	}

	return model.GradeResult{
		TraitScore:      trait,
		TraitProxyScore: traitProxy,

		FilmTraitScore:       film.Score,
		FilmTraitCoverage:    film.Coverage,
		FilmTraitBlendWeight: filmWeight,
		FilmTraitCharted:     film.Charted,

		ProductionScore: prod,
		AthleticScore:   ath,
		SizeScore:       size,
		ContextScore:    context,

		RiskPenalty:  risk,
		FinalGrade:   final,
		FloorGrade:   final - math.Max(1.5, risk),
		CeilingGrade: final + ceilingBump,
		PSI:          psi,
		RoundValue:   model.RoundFromGrade(final),

		CoreStatName:  coreStat,
		CoreStatValue: 50.0 + (psi-70.0)*1.4 + float64(100-rankSeed)*0.08,
		BestRole:      role,
		BestSchemeFit: scheme,
	}
}

// ScoutingNote renders the one-line report card blurb for a graded player.
func ScoutingNote(pos identity.Position, finalGrade float64, rankSeed int) string {
	tier := "developmental contributor"
	switch {
	case finalGrade >= 88:
		tier = "instant starter"
	case finalGrade >= 82:
		tier = "early contributor"
	}

	lens, ok := map[identity.Position]string{
		identity.QB:   "wins with timing and structure while retaining off-script creation",
		identity.RB:   "creates hidden yards and stays on schedule",
		identity.WR:   "creates separation and finishes at the catch point",
		identity.TE:   "projects as a mismatch in multiple alignments",
		identity.OT:   "has playable pass-pro mechanics with growth runway",
		identity.IOL:  "stabilizes interior pocket depth and run fits",
		identity.EDGE: "produces pressure through get-off and counters",
		identity.DT:   "controls interior gaps and collapses pocket",
		identity.LB:   "processes quickly and closes efficiently",
		identity.CB:   "matches routes with disciplined leverage",
		identity.S:    "eliminates explosives with range and communication",
	}[pos]
	if !ok {
		lens = "has translatable NFL tools"
	}
	return fmt.Sprintf("%s profile; %s. Seed rank %d indicates current market confidence with developmental upside still available.", tier, lens, rankSeed)
}

// Archetype is the rank-band style comp attached to every board row.
type Archetype struct {
	Comp       string
	Style      string
	Confidence string // A/B/C by seed-rank band
}

var archetypeComps = map[identity.Position][2]Archetype{
	identity.QB:   {{Comp: "Justin Herbert-style", Style: "arm-talent vertical distributor"}, {Comp: "Brock Purdy-style", Style: "timing/processing distributor"}},
	identity.RB:   {{Comp: "Josh Jacobs-style", Style: "contact and volume runner"}, {Comp: "Alvin Kamara-style", Style: "space and receiving mismatch"}},
	identity.WR:   {{Comp: "CeeDee Lamb-style", Style: "all-level separator"}, {Comp: "Mike Evans-style", Style: "size/ball-skill winner"}},
	identity.TE:   {{Comp: "Sam LaPorta-style", Style: "move mismatch YAC profile"}, {Comp: "George Kittle-style", Style: "in-line force plus run after catch"}},
	identity.OT:   {{Comp: "Tristan Wirfs-style", Style: "athletic pass-protecting tackle"}, {Comp: "Kolton Miller-style", Style: "length/footwork pass blocker"}},
	identity.IOL:  {{Comp: "Creed Humphrey-style", Style: "anchor + processing center"}, {Comp: "Joe Thuney-style", Style: "versatile pass-game stabilizer"}},
	identity.EDGE: {{Comp: "Micah Parsons-style", Style: "explosive alignment-flex rusher"}, {Comp: "Trey Hendrickson-style", Style: "counter-heavy pressure producer"}},
	identity.DT:   {{Comp: "Chris Jones-style", Style: "interior rush disruptor"}, {Comp: "Vita Vea-style", Style: "power anchor with pocket push"}},
	identity.LB:   {{Comp: "Fred Warner-style", Style: "range and processing MIKE"}, {Comp: "Matt Milano-style", Style: "quick-trigger pursuit LB"}},
	identity.CB:   {{Comp: "Patrick Surtain II-style", Style: "press-man technician"}, {Comp: "Sauce Gardner-style", Style: "length and disruption outside"}},
	identity.S:    {{Comp: "Kyle Hamilton-style", Style: "multiplicity chess-piece safety"}, {Comp: "Antoine Winfield Jr.-style", Style: "instinctive conflict resolver"}},
}

// AssignArchetype picks the style comp for a seed-rank band: the first
// comp through rank 120, the second after.
func AssignArchetype(pos identity.Position, rankSeed int) Archetype {
	comps, ok := archetypeComps[pos]
	if !ok {
		comps = [2]Archetype{
			{Comp: "Generic Pro", Style: "balanced profile"},
			{Comp: "Generic Pro", Style: "balanced profile"},
		}
	}
	idx := 0
	if rankSeed > 120 {
		idx = 1
	}
	a := comps[idx]
	switch {
	case rankSeed <= 64:
		a.Confidence = "A"
	case rankSeed <= 180:
		a.Confidence = "B"
	default:
		a.Confidence = "C"
	}
	return a
}
