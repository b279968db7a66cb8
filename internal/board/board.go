package board

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftgrid/bigboard/internal/aggregate"
	"github.com/draftgrid/bigboard/internal/grade"
	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/loader"
	"github.com/draftgrid/bigboard/internal/model"
	"github.com/draftgrid/bigboard/internal/teamfit"
)

// SourcePaths names every signal file one build reads.
type SourcePaths struct {
	Consensus  string
	Analyst    string
	Reports    string
	Reference  string
	Combine    string
	Production string
	Film       string

	ProductionSeason int
}

// LoadedSignals is the result of one parallel source-loading pass.
type LoadedSignals struct {
	Signals     aggregate.Signals
	CombineRows map[identity.Key]loader.CombineRow
	CombineMeta loader.Meta
	Metas       []loader.Meta
}

// LoadSignals runs every source loader concurrently. The combine loader
// waits for the historical reference, which it scores against; everything
// else is independent. Missing files are status flags, not errors, so the
// group only fails on genuinely broken inputs.
func LoadSignals(ctx context.Context, paths SourcePaths) (*LoadedSignals, error) {
	consensus := &loader.ConsensusLoader{Path: paths.Consensus}
	analyst := &loader.AnalystRankLoader{Path: paths.Analyst}
	reports := &loader.ReportLoader{Path: paths.Reports}
	production := &loader.ProductionLoader{Path: paths.Production, Season: paths.ProductionSeason}
	film := &loader.FilmTraitsLoader{Path: paths.Film}
	combine := &loader.CombineLoader{Path: paths.Combine}

	metas := make([]loader.Meta, 6)
	g, gctx := errgroup.WithContext(ctx)

	run := func(i int, l loader.SignalLoader) {
		g.Go(func() error {
			meta, err := l.Load(gctx)
			metas[i] = meta
			return err
		})
	}
	run(0, consensus)
	run(1, analyst)
	run(2, reports)
	run(3, production)
	run(4, film)
	g.Go(func() error {
		ref, err := loader.LoadReference(paths.Reference)
		if err != nil {
			return err
		}
		combine.Reference = ref
		meta, err := combine.Load(gctx)
		metas[5] = meta
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, meta := range metas {
		zap.L().Info("source loaded",
			zap.String("source", meta.Source),
			zap.String("status", string(meta.Status)),
			zap.Int("rows", meta.Rows),
			zap.Int("skipped", meta.Skipped),
			zap.Int("dropped", meta.Dropped))
	}

	return &LoadedSignals{
		Signals: aggregate.Signals{
			Consensus:  consensus.Signals,
			Analyst:    analyst.Signals,
			Reports:    reports.Signals,
			Athletic:   combine.Signals,
			Production: production.Signals,
			Film:       film.Charts,
		},
		CombineRows: combine.Rows,
		CombineMeta: metas[5],
		Metas:       metas,
	}, nil
}

// Input is everything Build consumes: the deduped seed, the loaded
// signals, and the team profiles.
type Input struct {
	Seed    []model.SeedRow
	Signals aggregate.Signals
	Teams   []teamfit.Profile
}

// Build grades every seed row, blends the consensus score, and returns
// the board sorted and numbered 1..N. Grading never fails per player;
// only cancellation aborts.
func Build(ctx context.Context, in Input) ([]model.BoardEntry, error) {
	agg := aggregate.New(in.Signals)

	entries := make([]model.BoardEntry, 0, len(in.Seed))
	for _, row := range in.Seed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, buildEntry(agg, in.Teams, row))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConsensusScore != entries[j].ConsensusScore {
			return entries[i].ConsensusScore > entries[j].ConsensusScore
		}
		if entries[i].RankSeed != entries[j].RankSeed {
			return entries[i].RankSeed < entries[j].RankSeed
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].ConsensusRank = i + 1
		entries[i].RoundProjected = projectRound(entries[i].ConsensusRank, entries[i].RoundValue)
	}

	zap.L().Info("board built", zap.Int("players", len(entries)))
	return entries, nil
}

func buildEntry(agg *aggregate.Aggregator, teams []teamfit.Profile, row model.SeedRow) model.BoardEntry {
	key := row.Key()
	pos := row.Position()
	vec := agg.Vector(key)

	heightIn, err := row.HeightIn()
	if err != nil {
		heightIn = 72 // validation already flagged it; grade with a neutral frame
	}

	g := grade.Player(pos, row.RankSeed, row.ClassYear, heightIn, row.WeightLb, vec.FilmTraits())
	arch := grade.AssignArchetype(pos, row.RankSeed)

	var fitTeam string
	var fitScore float64
	if len(teams) > 0 {
		fitTeam, fitScore = teamfit.BestFit(teams, pos)
	}

	comps := make([]string, 0, len(vec.Athletic.Comps))
	for _, c := range vec.Athletic.Comps {
		comps = append(comps, c.Name)
	}

	return model.BoardEntry{
		PlayerUID: model.PlayerUID(row.SeedRowID, row.Name),
		SeedRowID: row.SeedRowID,
		RankSeed:  row.RankSeed,

		Name:      row.Name,
		Pos:       pos,
		School:    row.School,
		HeightIn:  heightIn,
		WeightLb:  row.WeightLb,
		ClassYear: row.ClassYear,

		ConsensusScore: 0.70*(301-float64(row.RankSeed)) + 0.30*vec.Analyst.Aggregate,

		GradeResult: g,

		FitTeam:  fitTeam,
		FitScore: fitScore,

		Archetype:      arch.Comp + " (" + arch.Style + ")",
		CompPlayers:    strings.Join(comps, "|"),
		CompConfidence: arch.Confidence,
		ScoutingNote:   grade.ScoutingNote(pos, g.FinalGrade, row.RankSeed),

		ConsensusSignal:  vec.Consensus.Signal,
		AnalystAggregate: vec.Analyst.Aggregate,
		ReportComposite:  vec.Report.Composite,
		AthleticSignal:   vec.Athletic.ProfileScore,
		ProductionSignal: vec.Production.Signal,
		RiskFlag:         vec.Report.RiskFlag,
	}
}

// rankBands maps a consensus rank to the round label that draft position
// alone implies.
var rankBands = []struct {
	MaxRank int
	Label   string
}{
	{8, "Round 1"},
	{24, "Round 1-2"},
	{48, "Round 2-3"},
	{80, "Round 3-4"},
	{120, "Round 4-5"},
	{170, "Round 5-6"},
	{230, "Round 6-7"},
}

func rankBandIndex(rank int) int {
	for _, b := range rankBands {
		if rank <= b.MaxRank {
			return model.RoundLabelIndex(b.Label)
		}
	}
	return model.RoundLabelIndex("UDFA")
}

// projectRound blends the grade-derived round label with the consensus
// rank band. Rank can pull the projection earlier, capped at two bands
// inside the top 8 and one band inside the top 40; it never pushes a
// projection later than the grade label.
func projectRound(consensusRank int, roundValue string) string {
	maxUplift := 0
	switch {
	case consensusRank <= 8:
		maxUplift = 2
	case consensusRank <= 40:
		maxUplift = 1
	}

	gradeIdx := model.RoundLabelIndex(roundValue)
	idx := min(rankBandIndex(consensusRank), gradeIdx)
	if floor := gradeIdx - maxUplift; idx < floor {
		idx = floor
	}
	if idx < 0 {
		idx = 0
	}
	return model.RoundLabels[idx]
}
