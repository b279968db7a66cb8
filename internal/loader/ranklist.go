package loader

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/identity"
)

// RankRow is one line of a rank-list file, shared by the consensus and
// analyst families.
type RankRow struct {
	Source string `csv:"source"`
	Rank   int    `csv:"rank"`
	Name   string `csv:"player_name"`
	Pos    string `csv:"position"`
	School string `csv:"school"`
}

// ConsensusSignal is the reduced multi-site rank signal for one player.
type ConsensusSignal struct {
	MeanRank    float64  `json:"mean_rank"`
	StdDev      float64  `json:"std_dev"`
	Signal      float64  `json:"signal"` // [1,100]
	SourceCount int      `json:"source_count"`
	Sources     []string `json:"sources"`
}

// SourceList joins the contributing site names for export columns.
func (s ConsensusSignal) SourceList() string {
	return strings.Join(s.Sources, "|")
}

// ConsensusLoader reduces multi-site consensus boards into one agreement
// signal per player.
type ConsensusLoader struct {
	Path string

	Signals map[identity.Key]ConsensusSignal
}

func (l *ConsensusLoader) Name() string { return "consensus" }

func (l *ConsensusLoader) Load(ctx context.Context) (Meta, error) {
	l.Signals = make(map[identity.Key]ConsensusSignal)

	byPlayer, meta, err := readRankRows(l.Name(), l.Path)
	if err != nil || meta.Status == StatusMissing {
		return meta, err
	}

	for key, bySource := range byPlayer {
		ranks := make([]float64, 0, len(bySource))
		sources := make([]string, 0, len(bySource))
		for source, rank := range bySource {
			ranks = append(ranks, float64(rank))
			sources = append(sources, source)
		}
		sort.Strings(sources)

		mean := meanOf(ranks)
		std := stdDevOf(ranks, mean)

		signal := clamp((301-mean)/3, 1, 100)
		signal += 0.35 * math.Max(0, 4-std)

		l.Signals[key] = ConsensusSignal{
			MeanRank:    mean,
			StdDev:      std,
			Signal:      clamp(signal, 1, 100),
			SourceCount: len(sources),
			Sources:     sources,
		}
	}
	return meta, nil
}

// AnalystRankLoader reduces named-analyst boards into one aggregate score
// per player: the mean of max(1, 101-rank) across analysts, so a top-10
// rank from any single analyst keeps weight even when others are cold.
type AnalystRankLoader struct {
	Path string

	Signals map[identity.Key]AnalystSignal
}

// AnalystSignal is the reduced analyst-board signal for one player.
type AnalystSignal struct {
	Aggregate   float64  `json:"aggregate"` // [1,100]
	BestRank    int      `json:"best_rank"`
	SourceCount int      `json:"source_count"`
	Sources     []string `json:"sources"`
}

func (l *AnalystRankLoader) Name() string { return "analyst" }

func (l *AnalystRankLoader) Load(ctx context.Context) (Meta, error) {
	l.Signals = make(map[identity.Key]AnalystSignal)

	byPlayer, meta, err := readRankRows(l.Name(), l.Path)
	if err != nil || meta.Status == StatusMissing {
		return meta, err
	}

	for key, bySource := range byPlayer {
		var sum float64
		best := math.MaxInt
		sources := make([]string, 0, len(bySource))
		for source, rank := range bySource {
			sum += math.Max(1, float64(101-rank))
			if rank < best {
				best = rank
			}
			sources = append(sources, source)
		}
		sort.Strings(sources)

		l.Signals[key] = AnalystSignal{
			Aggregate:   sum / float64(len(bySource)),
			BestRank:    best,
			SourceCount: len(sources),
			Sources:     sources,
		}
	}
	return meta, nil
}

// readRankRows loads a rank-list file and indexes it (player, source) ->
// rank. Duplicate (player, source) rows keep the lowest rank; rows with
// positions outside the closed set are dropped before keying.
func readRankRows(source, path string) (map[identity.Key]map[string]int, Meta, error) {
	res, err := fetcher.ReadCSV[RankRow](path, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		if isNotExist(err) {
			return nil, missingMeta(source, path), nil
		}
		return nil, Meta{Source: source, Path: path, Status: StatusOK}, err
	}

	meta := Meta{Source: source, Path: path, Status: StatusOK, Skipped: res.Skipped}
	byPlayer := make(map[identity.Key]map[string]int)
	for _, row := range res.Rows {
		key := identity.KeyOf(row.Name, row.Pos)
		if !key.Valid() || row.Rank < 1 {
			meta.Dropped++
			continue
		}
		meta.Rows++

		bySource, ok := byPlayer[key]
		if !ok {
			bySource = make(map[string]int)
			byPlayer[key] = bySource
		}
		if prev, ok := bySource[row.Source]; !ok || row.Rank < prev {
			bySource[row.Source] = row.Rank
		}
	}
	return byPlayer, meta, nil
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stdDevOf is the population standard deviation.
func stdDevOf(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
