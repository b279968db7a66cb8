package loader

import (
	"context"
	"math"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/identity"
)

// ProductionRow is one season of college production metrics. Columns are
// position-family specific; unrelated columns stay nil and are ignored.
type ProductionRow struct {
	Name    string `csv:"player_name"`
	Pos     string `csv:"position"`
	School  string `csv:"school"`
	Season  int    `csv:"season"`
	Source  string `csv:"source"`
	Quality string `csv:"quality_label"` // real / mixed / proxy, optional

	Reliability *float64 `csv:"reliability"` // [0,1] override, optional

	// QB efficiency + pressure handling.
	QBR               *float64 `csv:"qb_qbr"`
	EPAPerPlay        *float64 `csv:"qb_epa_per_play"`
	SuccessRate       *float64 `csv:"qb_success_rate"`
	PressureToSack    *float64 `csv:"qb_pressure_to_sack_rate"`
	UnderPressureEPA  *float64 `csv:"qb_under_pressure_epa"`
	UnderPressureSucc *float64 `csv:"qb_under_pressure_success_rate"`

	// WR/TE target earning.
	YPRR        *float64 `csv:"yprr"`
	TargetShare *float64 `csv:"target_share"`
	TPRR        *float64 `csv:"targets_per_route_run"`

	// RB explosiveness + contact.
	ExplosiveRunRate *float64 `csv:"explosive_run_rate"`
	MTFPerTouch      *float64 `csv:"missed_tackles_forced_per_touch"`

	// OL win rates.
	PassBlockWin *float64 `csv:"pass_block_win_rate"`
	RunBlockWin  *float64 `csv:"run_block_win_rate"`

	// EDGE/DT disruption.
	PressureRate *float64 `csv:"pressure_rate"`
	SacksPerRush *float64 `csv:"sacks_per_pass_rush_snap"`
	RunStopRate  *float64 `csv:"run_stop_rate"`

	// LB/CB/S coverage + tackling.
	CoveragePerTarget *float64 `csv:"coverage_plays_per_target"`
	YardsPerCovSnap   *float64 `csv:"yards_allowed_per_coverage_snap"`
	MissedTackleRate  *float64 `csv:"missed_tackle_rate"`
}

// ProductionSignal is the reduced production signal for one player. The
// headline Signal is reliability-regressed toward 55 so a single thin
// metric can't move a board.
type ProductionSignal struct {
	Signal        float64 `json:"signal"`     // [20,95], reliability-blended
	RawSignal     float64 `json:"raw_signal"` // before the reliability blend
	CoverageCount int     `json:"coverage_count"`
	Reliability   float64 `json:"reliability"`
	Quality       string  `json:"quality"`
	Season        int     `json:"season"`
}

const neutralProduction = 55.0

// ProductionLoader reduces per-position college production metrics. When
// a player has multiple rows, the row with the highest metric coverage
// wins.
type ProductionLoader struct {
	Path   string
	Season int // 0 = accept all seasons

	Signals map[identity.Key]ProductionSignal
}

func (l *ProductionLoader) Name() string { return "production" }

func (l *ProductionLoader) Load(ctx context.Context) (Meta, error) {
	l.Signals = make(map[identity.Key]ProductionSignal)

	res, err := fetcher.ReadCSV[ProductionRow](l.Path, fetcher.CSVOptions{TrimSpace: true})
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
		if l.Season != 0 && row.Season != 0 && row.Season != l.Season {
			meta.Dropped++
			continue
		}
		meta.Rows++

		sig, ok := ScoreProduction(key.Pos, row)
		if !ok {
			continue
		}
		if prev, have := l.Signals[key]; have && prev.CoverageCount >= sig.CoverageCount {
			continue
		}
		l.Signals[key] = sig
	}
	return meta, nil
}

// NeutralProduction is the signal used when a player has no production
// data.
func NeutralProduction() ProductionSignal {
	return ProductionSignal{Signal: neutralProduction, RawSignal: neutralProduction}
}

// ScoreProduction reduces one row to a signal using the position family's
// metric blend. Returns false when the row carries no family metric.
func ScoreProduction(pos identity.Position, row ProductionRow) (ProductionSignal, bool) {
	var raw *float64
	var coverage int

	switch pos {
	case identity.QB:
		eff := weightedMean(
			part{0.45, scoreLinear(row.QBR, 45.0, 90.0)},
			part{0.35, scoreLinear(row.EPAPerPlay, -0.20, 0.45)},
			part{0.20, scoreLinear(row.SuccessRate, 0.35, 0.60)},
		)
		pressure := weightedMean(
			part{0.45, scoreInverse(row.PressureToSack, 0.28, 0.10)},
			part{0.35, scoreLinear(row.UnderPressureEPA, -0.45, 0.20)},
			part{0.20, scoreLinear(row.UnderPressureSucc, 0.25, 0.50)},
		)
		raw = weightedMean(part{0.62, eff}, part{0.38, pressure})
		coverage = countPresent(eff, pressure)
	case identity.WR, identity.TE:
		raw = weightedMean(
			part{0.55, scoreLinear(row.YPRR, 1.0, 3.3)},
			part{0.25, scoreLinear(row.TargetShare, 0.12, 0.35)},
			part{0.20, scoreLinear(row.TPRR, 0.10, 0.34)},
		)
		coverage = countPresent(row.YPRR, row.TargetShare, row.TPRR)
	case identity.RB:
		raw = weightedMean(
			part{0.55, scoreLinear(row.ExplosiveRunRate, 0.06, 0.22)},
			part{0.45, scoreLinear(row.MTFPerTouch, 0.08, 0.35)},
		)
		coverage = countPresent(row.ExplosiveRunRate, row.MTFPerTouch)
	case identity.OT, identity.IOL:
		raw = weightedMean(
			part{0.55, scoreLinear(row.PassBlockWin, 0.82, 0.97)},
			part{0.45, scoreLinear(row.RunBlockWin, 0.68, 0.88)},
		)
		coverage = countPresent(row.PassBlockWin, row.RunBlockWin)
	case identity.EDGE, identity.DT:
		raw = weightedMean(
			part{0.45, scoreLinear(row.PressureRate, 0.10, 0.17)},
			part{0.28, scoreLinear(row.SacksPerRush, 0.02, 0.055)},
			part{0.27, scoreLinear(row.RunStopRate, 0.05, 0.12)},
		)
		coverage = countPresent(row.PressureRate, row.SacksPerRush, row.RunStopRate)
	case identity.LB, identity.CB, identity.S:
		raw = weightedMean(
			part{0.45, scoreLinear(row.CoveragePerTarget, 0.08, 0.30)},
			part{0.35, scoreInverse(row.YardsPerCovSnap, 1.80, 0.55)},
			part{0.20, scoreInverse(row.MissedTackleRate, 0.20, 0.05)},
		)
		coverage = countPresent(row.CoveragePerTarget, row.YardsPerCovSnap, row.MissedTackleRate)
	default:
		return ProductionSignal{}, false
	}
	if raw == nil {
		return ProductionSignal{}, false
	}

	quality, rel := reliabilityFor(row, coverage)
	return ProductionSignal{
		Signal:        rel**raw + (1-rel)*neutralProduction,
		RawSignal:     *raw,
		CoverageCount: coverage,
		Reliability:   rel,
		Quality:       quality,
		Season:        row.Season,
	}, true
}

func reliabilityFor(row ProductionRow, coverage int) (string, float64) {
	quality := row.Quality
	switch quality {
	case "real", "mixed", "proxy":
	default:
		if coverage >= 2 {
			quality = "mixed"
		} else {
			quality = "proxy"
		}
	}

	var rel float64
	if row.Reliability != nil {
		rel = clamp(*row.Reliability, 0, 1)
	} else {
		switch quality {
		case "real":
			rel = 1.0
		case "mixed":
			rel = 0.75
		default:
			rel = math.Min(0.65, 0.38+0.05*float64(coverage))
		}
	}

	// Proxy-quality rows stay conservative regardless of any override.
	if quality == "proxy" {
		switch {
		case coverage <= 1:
			rel = math.Min(rel, 0.30)
		case coverage == 2:
			rel = math.Min(rel, 0.42)
		default:
			rel = math.Min(rel, 0.55)
		}
	}
	return quality, rel
}

type part struct {
	weight float64
	value  *float64
}

func weightedMean(parts ...part) *float64 {
	var num, den float64
	for _, p := range parts {
		if p.value == nil {
			continue
		}
		num += p.weight * *p.value
		den += p.weight
	}
	if den <= 0 {
		return nil
	}
	v := num / den
	return &v
}

// scoreLinear maps a raw metric onto the 20-95 production scale.
func scoreLinear(value *float64, low, high float64) *float64 {
	if value == nil || high <= low {
		return nil
	}
	clipped := clamp(*value, low, high)
	v := 20.0 + 75.0*(clipped-low)/(high-low)
	return &v
}

// scoreInverse is scoreLinear for metrics where lower is better.
func scoreInverse(value *float64, worse, better float64) *float64 {
	if value == nil {
		return nil
	}
	lo := math.Min(worse, better)
	hi := math.Max(worse, better)
	if hi <= lo {
		return nil
	}
	clipped := clamp(*value, lo, hi)
	v := 20.0 + 75.0*(hi-clipped)/(hi-lo)
	return &v
}

func countPresent(vals ...*float64) int {
	n := 0
	for _, v := range vals {
		if v != nil {
			n++
		}
	}
	return n
}
