package model

// GradeResult is the pure-function output of the grading engine for one
// player. Every score is clamped to its documented range before it lands
// here; there is no failure mode.
type GradeResult struct {
	TraitScore      float64 `csv:"trait_score" json:"trait_score"`
	TraitProxyScore float64 `csv:"trait_proxy_score" json:"trait_proxy_score"`

	FilmTraitScore       float64 `csv:"film_trait_score" json:"film_trait_score"`
	FilmTraitCoverage    float64 `csv:"film_trait_coverage" json:"film_trait_coverage"`
	FilmTraitBlendWeight float64 `csv:"film_trait_blend_weight" json:"film_trait_blend_weight"`
	FilmTraitCharted     bool    `csv:"film_trait_charted" json:"film_trait_charted"`

	ProductionScore float64 `csv:"production_score" json:"production_score"`
	AthleticScore   float64 `csv:"athletic_score" json:"athletic_score"`
	SizeScore       float64 `csv:"size_score" json:"size_score"`
	ContextScore    float64 `csv:"context_score" json:"context_score"`

	RiskPenalty  float64 `csv:"risk_penalty" json:"risk_penalty"`
	FinalGrade   float64 `csv:"final_grade" json:"final_grade"`
	FloorGrade   float64 `csv:"floor_grade" json:"floor_grade"`
	CeilingGrade float64 `csv:"ceiling_grade" json:"ceiling_grade"`
	PSI          float64 `csv:"psi" json:"psi"`
	RoundValue   string  `csv:"round_value_grade_only" json:"round_value_grade_only"`

	CoreStatName  string  `csv:"core_stat_name" json:"core_stat_name"`
	CoreStatValue float64 `csv:"core_stat_value" json:"core_stat_value"`
	BestRole      string  `csv:"best_role" json:"best_role"`
	BestSchemeFit string  `csv:"best_scheme_fit" json:"best_scheme_fit"`
}

// roundThresholds maps final grades to round-value labels. Checked
// top-down; the first (highest) matching threshold wins, which is what
// makes the mapping monotonic.
var roundThresholds = []struct {
	MinGrade float64
	Label    string
}{
	{92, "Round 1"},
	{88, "Round 1-2"},
	{84, "Round 2-3"},
	{80, "Round 3-4"},
	{76, "Round 4-5"},
	{72, "Round 5-6"},
	{68, "Round 6-7"},
	{0, "UDFA"},
}

// RoundLabels lists every round-value label from earliest to latest.
var RoundLabels = []string{
	"Round 1",
	"Round 1-2",
	"Round 2-3",
	"Round 3-4",
	"Round 4-5",
	"Round 5-6",
	"Round 6-7",
	"UDFA",
}

var roundLabelIndex = func() map[string]int {
	m := make(map[string]int, len(RoundLabels))
	for i, label := range RoundLabels {
		m[label] = i
	}
	return m
}()

// RoundFromGrade buckets a final grade into its round-value label.
func RoundFromGrade(grade float64) string {
	for _, t := range roundThresholds {
		if grade >= t.MinGrade {
			return t.Label
		}
	}
	return "UDFA"
}

// RoundLabelIndex returns the ordinal of a round label (0 = Round 1).
// Unknown labels sort after UDFA.
func RoundLabelIndex(label string) int {
	if i, ok := roundLabelIndex[label]; ok {
		return i
	}
	return len(RoundLabels)
}
