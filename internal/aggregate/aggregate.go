// Package aggregate joins the per-family signal maps into one complete
// feature vector per player. Lookups try (name, position) first and fall
// back to name-only, since source position tagging is noisier than the
// seed's own position. Missing signals become named neutral defaults, so
// "no data" can never read as "bad grade".
package aggregate

import (
	"sort"

	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/loader"
)

// Neutral defaults, one per family scale.
const (
	NeutralConsensusSignal = 50.0
	NeutralAnalystScore    = 50.0
	NeutralReportComposite = 50.0
	NeutralTraitScore      = 50.0
	NeutralAthleticScore   = 70.0
	NeutralProductionScore = 55.0
)

// Signals carries every loaded family keyed by canonical identity.
type Signals struct {
	Consensus  map[identity.Key]loader.ConsensusSignal
	Analyst    map[identity.Key]loader.AnalystSignal
	Reports    map[identity.Key]loader.ReportSignal
	Athletic   map[identity.Key]loader.AthleticSignal
	Production map[identity.Key]loader.ProductionSignal
	Film       map[identity.Key]loader.FilmChart
}

// FeatureVector is the complete per-player input to grading and ranking.
// Every field is always populated; the Has booleans say whether a value
// came from data or from its neutral default.
type FeatureVector struct {
	Consensus     loader.ConsensusSignal
	HasConsensus  bool
	Analyst       loader.AnalystSignal
	HasAnalyst    bool
	Report        loader.ReportSignal
	HasReport     bool
	Athletic      loader.AthleticSignal
	HasAthletic   bool
	Production    loader.ProductionSignal
	HasProduction bool
	Film          loader.FilmChart
	HasFilm       bool
}

// FilmTraits returns the charted sub-traits, or nil when uncharted.
func (v FeatureVector) FilmTraits() map[string]float64 {
	if !v.HasFilm {
		return nil
	}
	return v.Film.Traits
}

// Aggregator resolves signal lookups for one loaded signal set.
type Aggregator struct {
	consensus  index[loader.ConsensusSignal]
	analyst    index[loader.AnalystSignal]
	reports    index[loader.ReportSignal]
	athletic   index[loader.AthleticSignal]
	production index[loader.ProductionSignal]
	film       index[loader.FilmChart]
}

// New indexes a signal set for per-player lookup.
func New(signals Signals) *Aggregator {
	return &Aggregator{
		consensus:  newIndex(signals.Consensus),
		analyst:    newIndex(signals.Analyst),
		reports:    newIndex(signals.Reports),
		athletic:   newIndex(signals.Athletic),
		production: newIndex(signals.Production),
		film:       newIndex(signals.Film),
	}
}

// Vector assembles the complete feature vector for one identity.
func (a *Aggregator) Vector(key identity.Key) FeatureVector {
	v := FeatureVector{
		Consensus:  loader.ConsensusSignal{Signal: NeutralConsensusSignal},
		Analyst:    loader.AnalystSignal{Aggregate: NeutralAnalystScore},
		Report:     neutralReport(),
		Athletic:   loader.NeutralAthletic(),
		Production: loader.NeutralProduction(),
	}

	if sig, ok := a.consensus.get(key); ok {
		v.Consensus, v.HasConsensus = sig, true
	}
	if sig, ok := a.analyst.get(key); ok {
		v.Analyst, v.HasAnalyst = sig, true
	}
	if sig, ok := a.reports.get(key); ok {
		v.Report, v.HasReport = sig, true
	}
	if sig, ok := a.athletic.get(key); ok {
		v.Athletic, v.HasAthletic = sig, true
	}
	if sig, ok := a.production.get(key); ok {
		v.Production, v.HasProduction = sig, true
	}
	if chart, ok := a.film.get(key); ok {
		v.Film, v.HasFilm = chart, true
	}
	return v
}

func neutralReport() loader.ReportSignal {
	return loader.ReportSignal{
		Traits: loader.TraitScores{
			Processing:      NeutralTraitScore,
			Technique:       NeutralTraitScore,
			Explosiveness:   NeutralTraitScore,
			Physicality:     NeutralTraitScore,
			Competitiveness: NeutralTraitScore,
			Versatility:     NeutralTraitScore,
		},
		Composite: NeutralReportComposite,
	}
}

// index pairs a keyed signal map with a deterministic name-only fallback:
// when several positions share a name, the first in position sort order
// wins.
type index[T any] struct {
	byKey  map[identity.Key]T
	byName map[string]identity.Key
}

func newIndex[T any](m map[identity.Key]T) index[T] {
	ix := index[T]{byKey: m, byName: make(map[string]identity.Key, len(m))}

	keys := make([]identity.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Pos < keys[j].Pos
	})
	for _, k := range keys {
		if _, ok := ix.byName[k.Name]; !ok {
			ix.byName[k.Name] = k
		}
	}
	return ix
}

func (ix index[T]) get(key identity.Key) (T, bool) {
	if v, ok := ix.byKey[key]; ok {
		return v, true
	}
	if alt, ok := ix.byName[key.Name]; ok {
		return ix.byKey[alt], true
	}
	var zero T
	return zero, false
}
