package loader

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/identity"
)

// Metric names, in the order combine sheets list them. Pointer fields on
// Measurables use nil for "did not test".
var MetricNames = []string{
	"height_in", "weight_lb", "arm_in", "hand_in",
	"forty", "ten_split", "vertical", "broad",
	"three_cone", "shuttle", "bench",
}

// lowerBetter marks timed drills, where a smaller number is the better one.
var lowerBetter = map[string]bool{
	"forty": true, "ten_split": true, "three_cone": true, "shuttle": true,
}

// Measurables is the shared metric block of combine rows and historical
// reference rows.
type Measurables struct {
	HeightIn  *float64 `csv:"height_in" json:"height_in,omitempty"`
	WeightLb  *float64 `csv:"weight_lb" json:"weight_lb,omitempty"`
	ArmIn     *float64 `csv:"arm_in" json:"arm_in,omitempty"`
	HandIn    *float64 `csv:"hand_in" json:"hand_in,omitempty"`
	Forty     *float64 `csv:"forty" json:"forty,omitempty"`
	TenSplit  *float64 `csv:"ten_split" json:"ten_split,omitempty"`
	Vertical  *float64 `csv:"vertical" json:"vertical,omitempty"`
	Broad     *float64 `csv:"broad" json:"broad,omitempty"`
	ThreeCone *float64 `csv:"three_cone" json:"three_cone,omitempty"`
	Shuttle   *float64 `csv:"shuttle" json:"shuttle,omitempty"`
	Bench     *float64 `csv:"bench" json:"bench,omitempty"`
}

// Values flattens the non-nil metrics into a name-keyed map.
func (m Measurables) Values() map[string]float64 {
	out := make(map[string]float64, len(MetricNames))
	for name, p := range map[string]*float64{
		"height_in": m.HeightIn, "weight_lb": m.WeightLb,
		"arm_in": m.ArmIn, "hand_in": m.HandIn,
		"forty": m.Forty, "ten_split": m.TenSplit,
		"vertical": m.Vertical, "broad": m.Broad,
		"three_cone": m.ThreeCone, "shuttle": m.Shuttle, "bench": m.Bench,
	} {
		if p != nil {
			out[name] = *p
		}
	}
	return out
}

// ReferenceRow is one historical combine result used as population context.
type ReferenceRow struct {
	Year      int      `csv:"year"`
	Name      string   `csv:"player_name"`
	Pos       string   `csv:"position"`
	PickTotal *float64 `csv:"pick_total"`
	Measurables
}

type metricStats struct {
	values []float64 // sorted
	mean   float64
	std    float64
}

// Reference is the position-bucketed historical population every
// measurable score is computed against.
type Reference struct {
	rowsByPos        map[identity.Position][]ReferenceRow
	statsAllByPos    map[identity.Position]map[string]metricStats
	statsRecentByPos map[identity.Position]map[string]metricStats
	Meta             Meta
}

// minStatSample is the per-metric population floor below which no stats
// are published for that metric.
const minStatSample = 20

// recentYearCutoff splits the reference into an "all eras" and a "recent
// era" population; percentiles lean toward the recent one.
const (
	recentYearCutoff    = 2010
	minRecentSamplePos  = 80
	pctBlendAllWeight   = 0.4
	pctBlendRecent      = 0.6
	metricPctWeight     = 0.70
	metricZWeight       = 0.30
	neutralAthleticBase = 70.0
)

// LoadReference reads the historical combine table. A missing file yields
// an empty reference that scores everything neutral.
func LoadReference(path string) (*Reference, error) {
	ref := &Reference{
		rowsByPos:        make(map[identity.Position][]ReferenceRow),
		statsAllByPos:    make(map[identity.Position]map[string]metricStats),
		statsRecentByPos: make(map[identity.Position]map[string]metricStats),
	}

	res, err := fetcher.ReadCSV[ReferenceRow](path, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		if isNotExist(err) {
			ref.Meta = missingMeta("reference", path)
			return ref, nil
		}
		return nil, err
	}

	ref.Meta = Meta{Source: "reference", Path: path, Status: StatusOK, Skipped: res.Skipped}
	for _, row := range res.Rows {
		pos := identity.NormalizePosition(row.Pos)
		if !pos.Known() {
			ref.Meta.Dropped++
			continue
		}
		ref.Meta.Rows++
		ref.rowsByPos[pos] = append(ref.rowsByPos[pos], row)
	}

	for pos, rows := range ref.rowsByPos {
		ref.statsAllByPos[pos] = computeMetricStats(rows)

		recent := make([]ReferenceRow, 0, len(rows))
		for _, r := range rows {
			if r.Year >= recentYearCutoff {
				recent = append(recent, r)
			}
		}
		if len(recent) < minRecentSamplePos {
			recent = rows
		}
		ref.statsRecentByPos[pos] = computeMetricStats(recent)
	}
	return ref, nil
}

// Empty reports whether the reference carries no usable population.
func (r *Reference) Empty() bool {
	return len(r.statsAllByPos) == 0
}

func computeMetricStats(rows []ReferenceRow) map[string]metricStats {
	out := make(map[string]metricStats, len(MetricNames))
	for _, metric := range MetricNames {
		var vals []float64
		for _, row := range rows {
			if v, ok := row.Values()[metric]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) < minStatSample {
			continue
		}
		sort.Float64s(vals)

		var sum float64
		for _, v := range vals {
			sum += v
		}
		mean := sum / float64(len(vals))

		var ss float64
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(math.Max(ss/float64(len(vals)), 1e-9))

		out[metric] = metricStats{values: vals, mean: mean, std: std}
	}
	return out
}

// percentileOf is the midrank percentile of value within a sorted
// population, inverted for timed drills.
func percentileOf(values []float64, value float64, lowerIsBetter bool) float64 {
	if len(values) == 0 {
		return 50.0
	}
	lo := sort.SearchFloat64s(values, value)
	hi := sort.Search(len(values), func(i int) bool { return values[i] > value })
	frac := (float64(lo) + float64(hi)) / 2.0 / float64(len(values))
	if lowerIsBetter {
		frac = 1.0 - frac
	}
	return clamp(frac*100.0, 0, 100)
}

// metricScore blends a recent-leaning percentile with a z-score scaled to
// the same 0-100 axis.
func metricScore(metric string, value float64, statsAll, statsRecent map[string]metricStats) (score, pct, z float64, ok bool) {
	all, haveAll := statsAll[metric]
	rec, haveRec := statsRecent[metric]
	if !haveAll && !haveRec {
		return 0, 0, 0, false
	}

	inverted := lowerBetter[metric]
	pctAll := 50.0
	if haveAll {
		pctAll = percentileOf(all.values, value, inverted)
	}
	pctRecent := pctAll
	if haveRec {
		pctRecent = percentileOf(rec.values, value, inverted)
	}
	pct = pctBlendAllWeight*pctAll + pctBlendRecent*pctRecent

	zBase := rec
	if !haveRec {
		zBase = all
	}
	z = (value - zBase.mean) / math.Max(zBase.std, 1e-6)
	if inverted {
		z = -z
	}
	zScaled := clamp(50.0+10.0*z, 0, 100)

	return clamp(metricPctWeight*pct+metricZWeight*zScaled, 0, 100), pct, z, true
}

var eventGroups = map[string][]string{
	"speed":     {"forty", "ten_split"},
	"explosion": {"vertical", "broad", "bench"},
	"agility":   {"shuttle", "three_cone"},
	"size":      {"height_in", "weight_lb", "arm_in", "hand_in"},
}

var positionEventWeights = map[identity.Position]map[string]float64{
	identity.QB:   {"speed": 0.15, "explosion": 0.15, "agility": 0.25, "size": 0.45},
	identity.RB:   {"speed": 0.35, "explosion": 0.25, "agility": 0.20, "size": 0.20},
	identity.WR:   {"speed": 0.30, "explosion": 0.25, "agility": 0.25, "size": 0.20},
	identity.TE:   {"speed": 0.20, "explosion": 0.20, "agility": 0.20, "size": 0.40},
	identity.OT:   {"speed": 0.10, "explosion": 0.15, "agility": 0.15, "size": 0.60},
	identity.IOL:  {"speed": 0.10, "explosion": 0.20, "agility": 0.15, "size": 0.55},
	identity.EDGE: {"speed": 0.20, "explosion": 0.25, "agility": 0.20, "size": 0.35},
	identity.DT:   {"speed": 0.10, "explosion": 0.25, "agility": 0.10, "size": 0.55},
	identity.LB:   {"speed": 0.20, "explosion": 0.20, "agility": 0.25, "size": 0.35},
	identity.CB:   {"speed": 0.30, "explosion": 0.20, "agility": 0.30, "size": 0.20},
	identity.S:    {"speed": 0.25, "explosion": 0.20, "agility": 0.30, "size": 0.25},
}

// AthleticSignal is the measurable-family signal for one player.
type AthleticSignal struct {
	ProfileScore   float64 `json:"profile_score"` // [55,95]
	SpeedScore     float64 `json:"speed_score"`
	ExplosionScore float64 `json:"explosion_score"`
	AgilityScore   float64 `json:"agility_score"`
	SizeAdjScore   float64 `json:"size_adj_score"`

	CoverageCount   int     `json:"coverage_count"`
	ExpectedCount   int     `json:"expected_count"`
	MissingCount    int     `json:"missing_count"`
	CoverageRate    float64 `json:"coverage_rate"`
	MissingPenalty  float64 `json:"missing_penalty"`
	VariancePenalty float64 `json:"variance_penalty"`

	RAS *float64 `json:"ras_official,omitempty"` // [0,10] passthrough

	Comps          []Comp  `json:"comps,omitempty"`
	CompConfidence float64 `json:"comp_confidence"`
}

// NeutralAthletic is the signal used when a player has no combine data or
// the reference population is absent.
func NeutralAthletic() AthleticSignal {
	return AthleticSignal{
		ProfileScore:   neutralAthleticBase,
		SpeedScore:     neutralAthleticBase,
		ExplosionScore: neutralAthleticBase,
		AgilityScore:   neutralAthleticBase,
		SizeAdjScore:   neutralAthleticBase,
	}
}

// ScoreAthleticProfile scores one player's measurables against the
// reference population. Sparse testing profiles regress toward 70 rather
// than cratering.
func (r *Reference) ScoreAthleticProfile(pos identity.Position, m Measurables) AthleticSignal {
	statsAll := r.statsAllByPos[pos]
	statsRecent := r.statsRecentByPos[pos]
	if len(statsAll) == 0 && len(statsRecent) == 0 {
		return NeutralAthletic()
	}

	groupWeights, ok := positionEventWeights[pos]
	if !ok {
		groupWeights = map[string]float64{"speed": 0.25, "explosion": 0.25, "agility": 0.25, "size": 0.25}
	}

	values := m.Values()
	scores := make(map[string]float64, len(values))
	for _, metric := range MetricNames {
		v, have := values[metric]
		if !have {
			continue
		}
		if s, _, _, ok := metricScore(metric, v, statsAll, statsRecent); ok {
			scores[metric] = s
		}
	}

	eventScores := map[string]float64{}
	var weightedSum, availableWeight float64
	for event, metrics := range eventGroups {
		var sum float64
		n := 0
		for _, metric := range metrics {
			if s, ok := scores[metric]; ok {
				sum += s
				n++
			}
		}
		if n == 0 {
			continue
		}
		eventScore := sum / float64(n)
		eventScores[event] = eventScore
		if w := groupWeights[event]; w > 0 {
			weightedSum += w * eventScore
			availableWeight += w
		}
	}

	base := neutralAthleticBase
	if availableWeight > 0 {
		base = weightedSum / availableWeight
	}

	expected := 0
	available := 0
	for event, metrics := range eventGroups {
		if groupWeights[event] <= 0 {
			continue
		}
		for _, metric := range metrics {
			expected++
			if _, ok := scores[metric]; ok {
				available++
			}
		}
	}
	missing := expected - available
	coverage := 0.0
	if expected > 0 {
		coverage = float64(available) / float64(expected)
	}

	var blended float64
	if available <= 2 {
		blended = 0.25*base + 0.75*neutralAthleticBase
	} else {
		blended = coverage*base + (1-coverage)*neutralAthleticBase
	}

	missingPenalty := 0.0
	if coverage < 0.45 {
		missingPenalty = math.Min(1.2, (0.45-coverage)*2.0)
	}
	variancePenalty := math.Min(0.8, float64(missing)*0.08)

	sig := AthleticSignal{
		ProfileScore:    clamp(blended-missingPenalty, 55, 95),
		SpeedScore:      eventOrNeutral(eventScores, "speed"),
		ExplosionScore:  eventOrNeutral(eventScores, "explosion"),
		AgilityScore:    eventOrNeutral(eventScores, "agility"),
		SizeAdjScore:    eventOrNeutral(eventScores, "size"),
		CoverageCount:   available,
		ExpectedCount:   expected,
		MissingCount:    missing,
		CoverageRate:    coverage,
		MissingPenalty:  missingPenalty,
		VariancePenalty: variancePenalty,
	}

	sig.Comps, sig.CompConfidence = r.NearestComps(pos, m, 3, coverage)
	return sig
}

func eventOrNeutral(scores map[string]float64, event string) float64 {
	if s, ok := scores[event]; ok {
		return s
	}
	return neutralAthleticBase
}

// CombineRow is one current-class combine result.
type CombineRow struct {
	Name   string   `csv:"player_name"`
	School string   `csv:"school"`
	Pos    string   `csv:"position"`
	RAS    *float64 `csv:"ras_official"`
	Measurables
}

// CombineLoader reads current-class combine results (CSV, or an XLSX
// sheet when the path ends in .xlsx) and scores them against the
// historical reference. Conflicting duplicate rows keep the one with the
// highest field coverage.
type CombineLoader struct {
	Path      string
	Reference *Reference

	Signals map[identity.Key]AthleticSignal
	Rows    map[identity.Key]CombineRow
}

func (l *CombineLoader) Name() string { return "combine" }

func (l *CombineLoader) Load(ctx context.Context) (Meta, error) {
	l.Signals = make(map[identity.Key]AthleticSignal)
	l.Rows = make(map[identity.Key]CombineRow)

	var res fetcher.Result[CombineRow]
	var err error
	if strings.EqualFold(filepath.Ext(l.Path), ".xlsx") {
		res, err = fetcher.ReadXLSX[CombineRow](l.Path, fetcher.XLSXOptions{})
	} else {
		res, err = fetcher.ReadCSV[CombineRow](l.Path, fetcher.CSVOptions{TrimSpace: true})
	}
	if err != nil {
		if isNotExist(err) {
			return missingMeta(l.Name(), l.Path), nil
		}
		return Meta{Source: l.Name(), Path: l.Path, Status: StatusOK}, err
	}

	meta := Meta{Source: l.Name(), Path: l.Path, Status: StatusOK, Skipped: res.Skipped}
	for _, row := range res.Rows {
		key := identity.KeyOf(row.Name, row.Pos)
		if !key.Valid() {
			meta.Dropped++
			continue
		}
		meta.Rows++
		if prev, ok := l.Rows[key]; ok && len(prev.Values()) >= len(row.Values()) {
			continue
		}
		l.Rows[key] = row
	}

	for key, row := range l.Rows {
		sig := l.Reference.ScoreAthleticProfile(key.Pos, row.Measurables)
		sig.RAS = row.RAS
		l.Signals[key] = sig
	}
	return meta, nil
}
