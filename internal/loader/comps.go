package loader

import (
	"math"
	"sort"

	"github.com/draftgrid/bigboard/internal/identity"
)

// Comp is one historical nearest-neighbor comparison.
type Comp struct {
	Name       string  `json:"name"`
	Year       int     `json:"year"`
	PickTotal  float64 `json:"pick_total,omitempty"`
	Similarity float64 `json:"similarity"` // [1,99.9]
	Overlap    int     `json:"overlap"`

	distance float64
}

// minCompOverlap gates the neighbor search: with fewer shared metrics a
// distance is mostly noise.
const minCompOverlap = 3

// NearestComps finds the k most athletically similar historical players
// at the same position. Distance is a z-scored per-metric RMS over the
// shared metrics; confidence blends the top-2 similarity with testing
// coverage.
func (r *Reference) NearestComps(pos identity.Position, m Measurables, k int, coverage float64) ([]Comp, float64) {
	stats := r.statsAllByPos[pos]
	if len(stats) == 0 {
		return nil, 0
	}

	current := m.Values()
	var comps []Comp
	for _, row := range r.rowsByPos[pos] {
		dist, overlap := metricDistance(current, row.Values(), stats)
		if overlap < minCompOverlap || math.IsInf(dist, 1) {
			continue
		}
		comp := Comp{
			Name:       row.Name,
			Year:       row.Year,
			Similarity: clamp(100.0-16.5*dist, 1, 99.9),
			Overlap:    overlap,
			distance:   dist,
		}
		if row.PickTotal != nil {
			comp.PickTotal = *row.PickTotal
		}
		comps = append(comps, comp)
	}
	if len(comps) == 0 {
		return nil, 0
	}

	sort.Slice(comps, func(i, j int) bool {
		if comps[i].distance != comps[j].distance {
			return comps[i].distance < comps[j].distance
		}
		return comps[i].Overlap > comps[j].Overlap
	})
	if len(comps) > k {
		comps = comps[:k]
	}

	top := comps
	if len(top) > 2 {
		top = top[:2]
	}
	var simSum float64
	for _, c := range top {
		simSum += c.Similarity
	}
	avgSim := simSum / float64(len(top))
	confidence := clamp(0.70*avgSim+0.30*coverage*100.0, 1, 99)

	return comps, confidence
}

func metricDistance(current, candidate map[string]float64, stats map[string]metricStats) (float64, int) {
	var ss float64
	overlap := 0
	for _, metric := range MetricNames {
		st, ok := stats[metric]
		if !ok {
			continue
		}
		cv, haveCurrent := current[metric]
		rv, haveCandidate := candidate[metric]
		if !haveCurrent || !haveCandidate {
			continue
		}
		z := (cv - rv) / math.Max(st.std, 1e-6)
		ss += z * z
		overlap++
	}
	if overlap == 0 {
		return math.Inf(1), 0
	}
	return math.Sqrt(ss / float64(overlap)), overlap
}
