package loader

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/grade"
	"github.com/draftgrid/bigboard/internal/identity"
)

// ReportRow is one scouting write-up for one player.
type ReportRow struct {
	Source string `csv:"source"`
	Name   string `csv:"player_name"`
	Pos    string `csv:"position"`
	School string `csv:"school"`
	Text   string `csv:"report_text"`
}

// TraitScores are the six language-derived trait buckets, each [20,95]
// (50 = neutral).
type TraitScores struct {
	Processing      float64 `json:"processing"`
	Technique       float64 `json:"technique"`
	Explosiveness   float64 `json:"explosiveness"`
	Physicality     float64 `json:"physicality"`
	Competitiveness float64 `json:"competitiveness"`
	Versatility     float64 `json:"versatility"`
}

// ReportSignal is the reduced linguistic signal for one player, averaged
// over however many write-ups mention them.
type ReportSignal struct {
	SourceCount     int         `json:"source_count"`
	WordCount       int         `json:"word_count"`
	Traits          TraitScores `json:"traits"`
	KeywordHits     int         `json:"keyword_hits"`
	KeywordCoverage float64     `json:"keyword_coverage"`
	RiskHits        int         `json:"risk_hits"`
	RiskFlag        bool        `json:"risk_flag"`
	Composite       float64     `json:"composite"` // [20,95]
	Sources         []string    `json:"sources"`
}

// Positive language buckets. Hits are counted as substring occurrences in
// the lowercased report text.
var langPositive = map[string][]string{
	"processing":      {"processing", "diagnose", "recognition", "awareness", "instincts", "read", "decision"},
	"technique":       {"footwork", "hand usage", "mechanics", "leverage", "pad level", "route running", "timing"},
	"explosiveness":   {"burst", "explosive", "acceleration", "sudden", "speed", "get-off", "bend"},
	"physicality":     {"power", "strength", "anchor", "violent", "contact balance", "play strength"},
	"competitiveness": {"motor", "effort", "tough", "relentless", "competitive", "finisher"},
	"versatility":     {"versatile", "multiple", "scheme", "alignment", "inside", "outside", "hybrid"},
}

var langRisk = []string{
	"raw", "inconsistent", "developmental", "streaky", "limited",
	"must improve", "question", "concern", "struggles",
}

// posKeywordHints are position-specific scouting vocabulary. A report that
// uses the position's own language earns a coverage bonus; film-chart trait
// names extend each set at init.
var posKeywordHints = map[identity.Position][]string{
	identity.QB:   {"pocket presence", "arm talent", "anticipation", "ball placement", "progression", "timing"},
	identity.RB:   {"vision", "contact balance", "burst", "cutback", "pass protection", "home run"},
	identity.WR:   {"release", "separation", "route running", "ball skills", "yac", "contested catch"},
	identity.TE:   {"inline", "detach", "seam", "route running", "block", "mismatch"},
	identity.OT:   {"kick slide", "anchor", "mirror", "hand usage", "set point", "recovery"},
	identity.IOL:  {"leverage", "anchor", "hand placement", "combo block", "reach", "power"},
	identity.EDGE: {"get-off", "bend", "counter", "rush plan", "long arm", "edge set"},
	identity.DT:   {"first-step", "leverage", "stack and shed", "hand usage", "power", "pad level"},
	identity.LB:   {"trigger", "diagnose", "range", "fit", "block deconstruction", "coverage"},
	identity.CB:   {"press", "off-man", "transition", "recovery", "ball skills", "mirror"},
	identity.S:    {"angles", "range", "trigger", "communication", "alley", "coverage"},
}

func init() {
	for _, pos := range identity.Positions {
		seen := make(map[string]bool, len(posKeywordHints[pos]))
		for _, term := range posKeywordHints[pos] {
			seen[term] = true
		}
		for _, trait := range grade.FilmTraitNames(pos) {
			term := strings.ReplaceAll(trait, "_", " ")
			if !seen[term] {
				posKeywordHints[pos] = append(posKeywordHints[pos], term)
				seen[term] = true
			}
		}
	}
}

var wordRe = regexp.MustCompile(`[a-z0-9']+`)

// ReportLoader turns free-text scouting reports into numeric trait
// signals.
type ReportLoader struct {
	Path string

	Signals map[identity.Key]ReportSignal
}

func (l *ReportLoader) Name() string { return "reports" }

func (l *ReportLoader) Load(ctx context.Context) (Meta, error) {
	l.Signals = make(map[identity.Key]ReportSignal)

	res, err := fetcher.ReadCSV[ReportRow](l.Path, fetcher.CSVOptions{TrimSpace: true, LazyQuotes: true})
	if err != nil {
		if isNotExist(err) {
			return missingMeta(l.Name(), l.Path), nil
		}
		return Meta{Source: l.Name(), Path: l.Path, Status: StatusOK}, err
	}

	meta := Meta{Source: l.Name(), Path: l.Path, Status: StatusOK, Skipped: res.Skipped}
	grouped := make(map[identity.Key][]ReportRow)
	for _, row := range res.Rows {
		key := identity.KeyOf(row.Name, row.Pos)
		if !key.Valid() {
			meta.Dropped++
			continue
		}
		meta.Rows++
		grouped[key] = append(grouped[key], row)
	}

	for key, rows := range grouped {
		sigs := make([]ReportSignal, len(rows))
		sources := make(map[string]bool, len(rows))
		for i, row := range rows {
			sigs[i] = ScoreReportText(row.Text, key.Pos)
			if s := strings.TrimSpace(row.Source); s != "" {
				sources[s] = true
			}
		}
		agg := averageSignals(sigs)
		agg.SourceCount = len(rows)
		agg.Sources = sortedKeys(sources)
		l.Signals[key] = agg
	}
	return meta, nil
}

// ScoreReportText computes the linguistic features for one report. Empty
// text returns the all-neutral signal.
func ScoreReportText(text string, pos identity.Position) ReportSignal {
	clean := strings.ToLower(strings.TrimSpace(text))
	if clean == "" {
		return ReportSignal{
			Traits: TraitScores{
				Processing: 50, Technique: 50, Explosiveness: 50,
				Physicality: 50, Competitiveness: 50, Versatility: 50,
			},
			Composite: 50,
		}
	}

	words := wordRe.FindAllString(clean, -1)
	riskHits := countHits(clean, langRisk)

	trait := func(bucket string) float64 {
		hits := countHits(clean, langPositive[bucket])
		return clamp(50+7*float64(hits)-2.5*float64(riskHits), 20, 95)
	}
	traits := TraitScores{
		Processing:      trait("processing"),
		Technique:       trait("technique"),
		Explosiveness:   trait("explosiveness"),
		Physicality:     trait("physicality"),
		Competitiveness: trait("competitiveness"),
		Versatility:     trait("versatility"),
	}

	hints := posKeywordHints[pos]
	uniqueHits := 0
	for _, term := range hints {
		if strings.Contains(clean, term) {
			uniqueHits++
		}
	}
	var coverage float64
	if len(hints) > 0 {
		coverage = float64(uniqueHits) / float64(len(hints))
	}

	composite := 0.20*traits.Processing +
		0.20*traits.Technique +
		0.15*traits.Explosiveness +
		0.15*traits.Physicality +
		0.15*traits.Competitiveness +
		0.15*traits.Versatility
	composite += 12 * coverage
	composite += math.Min(6, float64(len(words))/45)
	composite -= 2.5 * float64(riskHits)

	return ReportSignal{
		WordCount:       len(words),
		Traits:          traits,
		KeywordHits:     uniqueHits,
		KeywordCoverage: coverage,
		RiskHits:        riskHits,
		RiskFlag:        riskHits >= 2,
		Composite:       clamp(composite, 20, 95),
	}
}

func averageSignals(sigs []ReportSignal) ReportSignal {
	n := float64(len(sigs))
	var out ReportSignal
	var words, hits, risk, flags float64
	for _, s := range sigs {
		words += float64(s.WordCount)
		hits += float64(s.KeywordHits)
		risk += float64(s.RiskHits)
		if s.RiskFlag {
			flags++
		}
		out.Traits.Processing += s.Traits.Processing
		out.Traits.Technique += s.Traits.Technique
		out.Traits.Explosiveness += s.Traits.Explosiveness
		out.Traits.Physicality += s.Traits.Physicality
		out.Traits.Competitiveness += s.Traits.Competitiveness
		out.Traits.Versatility += s.Traits.Versatility
		out.KeywordCoverage += s.KeywordCoverage
		out.Composite += s.Composite
	}
	out.WordCount = int(math.Round(words / n))
	out.KeywordHits = int(math.Round(hits / n))
	out.RiskHits = int(math.Round(risk / n))
	out.RiskFlag = flags/n >= 0.5
	out.Traits.Processing /= n
	out.Traits.Technique /= n
	out.Traits.Explosiveness /= n
	out.Traits.Physicality /= n
	out.Traits.Competitiveness /= n
	out.Traits.Versatility /= n
	out.KeywordCoverage /= n
	out.Composite /= n
	return out
}

func countHits(text string, terms []string) int {
	total := 0
	for _, term := range terms {
		total += strings.Count(text, term)
	}
	return total
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
