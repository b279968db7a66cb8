package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgrid/bigboard/internal/identity"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConsensusLoader(t *testing.T) {
	path := writeFile(t, "consensus.csv", strings.Join([]string{
		"source,rank,player_name,position,school",
		"site_a,1,Trevor Example,QB,State U",
		"site_b,3,Trevor Example,QB,State U",
		"site_b,2,Trevor Example,QB,State U", // duplicate (player, source): lower rank wins
		"site_a,40,Sam Sample,EDGE,Tech",
		"site_a,10,Punt Er,P,Tech", // outside the closed set
	}, "\n"))

	l := &ConsensusLoader{Path: path}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, meta.Status)
	assert.Equal(t, 1, meta.Dropped)

	key := identity.KeyOf("Trevor Example", "QB")
	sig, ok := l.Signals[key]
	require.True(t, ok)
	// ranks {1,2}: mean 1.5, pstdev 0.5.
	assert.InDelta(t, 1.5, sig.MeanRank, 1e-9)
	assert.InDelta(t, 0.5, sig.StdDev, 1e-9)
	// (301-1.5)/3 = 99.83 + 0.35*(4-0.5) = 101.06 -> clamp 100.
	assert.InDelta(t, 100.0, sig.Signal, 1e-9)
	assert.Equal(t, 2, sig.SourceCount)
	assert.Equal(t, "site_a|site_b", sig.SourceList())

	edge := l.Signals[identity.KeyOf("Sam Sample", "EDGE")]
	// single source: (301-40)/3 + 0.35*4 = 87 + 1.4
	assert.InDelta(t, 88.4, edge.Signal, 1e-9)
}

func TestConsensusLoader_MissingFile(t *testing.T) {
	l := &ConsensusLoader{Path: filepath.Join(t.TempDir(), "absent.csv")}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, meta.Status)
	assert.Empty(t, l.Signals)
}

func TestAnalystRankLoader(t *testing.T) {
	path := writeFile(t, "analyst.csv", strings.Join([]string{
		"source,rank,player_name,position,school",
		"analyst_a,1,Trevor Example,QB,State U",
		"analyst_b,11,Trevor Example,QB,State U",
		"analyst_a,150,Deep Cut,S,Tech",
	}, "\n"))

	l := &AnalystRankLoader{Path: path}
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	sig := l.Signals[identity.KeyOf("Trevor Example", "QB")]
	// mean(max(1,101-1), max(1,101-11)) = mean(100, 90) = 95.
	assert.InDelta(t, 95.0, sig.Aggregate, 1e-9)
	assert.Equal(t, 1, sig.BestRank)

	deep := l.Signals[identity.KeyOf("Deep Cut", "S")]
	assert.InDelta(t, 1.0, deep.Aggregate, 1e-9) // floor at 1
}

func TestScoreReportText_Neutral(t *testing.T) {
	sig := ScoreReportText("", identity.QB)
	assert.Equal(t, 50.0, sig.Traits.Processing)
	assert.Equal(t, 50.0, sig.Traits.Versatility)
	assert.Equal(t, 50.0, sig.Composite)
	assert.Zero(t, sig.WordCount)
	assert.False(t, sig.RiskFlag)
}

func TestScoreReportText_PositiveAndRiskTerms(t *testing.T) {
	text := "Elite burst and explosive acceleration off the line. " +
		"His processing and instincts show up on every read."
	sig := ScoreReportText(text, identity.QB)

	assert.Greater(t, sig.Traits.Explosiveness, 50.0)
	assert.Greater(t, sig.Traits.Processing, 50.0)
	assert.False(t, sig.RiskFlag)
	assert.Greater(t, sig.Composite, 50.0)

	risky := "Raw and inconsistent processor. Serious concern about his feel; still a question in protection."
	rsig := ScoreReportText(risky, identity.QB)
	assert.True(t, rsig.RiskFlag)
	assert.GreaterOrEqual(t, rsig.RiskHits, 2)
	assert.Less(t, rsig.Traits.Technique, 50.0)
}

func TestScoreReportText_PositionalCoverage(t *testing.T) {
	text := "Outstanding pocket presence and arm talent; his anticipation and ball placement travel."
	sig := ScoreReportText(text, identity.QB)
	assert.GreaterOrEqual(t, sig.KeywordHits, 4)
	assert.Greater(t, sig.KeywordCoverage, 0.0)

	// Same text scored as an OT report covers almost nothing.
	other := ScoreReportText(text, identity.OT)
	assert.Less(t, other.KeywordCoverage, sig.KeywordCoverage)
}

func TestScoreReportText_Clamps(t *testing.T) {
	hot := strings.Repeat("burst explosive sudden speed bend acceleration get-off ", 40)
	sig := ScoreReportText(hot, identity.EDGE)
	assert.LessOrEqual(t, sig.Traits.Explosiveness, 95.0)
	assert.LessOrEqual(t, sig.Composite, 95.0)

	cold := strings.Repeat("raw inconsistent limited question concern struggles ", 40)
	csig := ScoreReportText(cold, identity.EDGE)
	assert.GreaterOrEqual(t, csig.Traits.Explosiveness, 20.0)
	assert.GreaterOrEqual(t, csig.Composite, 20.0)
}

func TestReportLoader_AveragesMultipleReports(t *testing.T) {
	path := writeFile(t, "reports.csv", strings.Join([]string{
		"source,player_name,position,school,report_text",
		`scout_a,Trevor Example,QB,State U,"Terrific processing and instincts on every read."`,
		`scout_b,Trevor Example,QB,State U,""`,
	}, "\n"))

	l := &ReportLoader{Path: path}
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	sig, ok := l.Signals[identity.KeyOf("Trevor Example", "QB")]
	require.True(t, ok)
	assert.Equal(t, 2, sig.SourceCount)
	assert.Equal(t, []string{"scout_a", "scout_b"}, sig.Sources)

	solo := ScoreReportText("Terrific processing and instincts on every read.", identity.QB)
	assert.InDelta(t, (solo.Composite+50.0)/2, sig.Composite, 1e-9)
}

func referenceCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("year,player_name,position,pick_total,height_in,weight_lb,arm_in,hand_in,forty,ten_split,vertical,broad,three_cone,shuttle,bench\n")
	for i := 0; i < 30; i++ {
		forty := 4.45 + float64(i)*0.02
		vert := 28.0 + float64(i)*0.3
		b.WriteString(fmt.Sprintf(
			"%d,Ref QB %d,QB,%d,%d,%d,32.1,9.5,%.2f,1.55,%.1f,115,7.0,4.3,18\n",
			2000+i, i, 30+i, 73+i%4, 210+i%20, forty, vert,
		))
	}
	return writeFile(t, "reference.csv", b.String())
}

func TestReference_ScoreAthleticProfile(t *testing.T) {
	ref, err := LoadReference(referenceCSV(t))
	require.NoError(t, err)
	require.False(t, ref.Empty())
	assert.Equal(t, StatusOK, ref.Meta.Status)

	fast := 4.40
	vert := 38.0
	h, w := 75.0, 220.0
	full := Measurables{
		HeightIn: &h, WeightLb: &w, Forty: &fast, Vertical: &vert,
	}
	sig := ref.ScoreAthleticProfile(identity.QB, full)
	assert.Greater(t, sig.ProfileScore, 70.0, "elite tester beats neutral")
	assert.LessOrEqual(t, sig.ProfileScore, 95.0)
	assert.Greater(t, sig.CoverageRate, 0.0)

	slow := 4.95
	slowSig := ref.ScoreAthleticProfile(identity.QB, Measurables{
		HeightIn: &h, WeightLb: &w, Forty: &slow, Vertical: &vert,
	})
	assert.Less(t, slowSig.ProfileScore, sig.ProfileScore)
}

func TestReference_SparseProfileRegressesToNeutral(t *testing.T) {
	ref, err := LoadReference(referenceCSV(t))
	require.NoError(t, err)

	forty := 4.30 // elite, but the only tested metric
	sig := ref.ScoreAthleticProfile(identity.QB, Measurables{Forty: &forty})
	assert.Less(t, sig.ProfileScore, 80.0, "single metric cannot dominate")
	assert.GreaterOrEqual(t, sig.ProfileScore, 55.0)
	assert.Greater(t, sig.MissingPenalty, 0.0)
	assert.Equal(t, 1, sig.CoverageCount)
}

func TestReference_NoPopulationIsNeutral(t *testing.T) {
	ref, err := LoadReference(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.True(t, ref.Empty())
	assert.Equal(t, StatusMissing, ref.Meta.Status)

	forty := 4.4
	sig := ref.ScoreAthleticProfile(identity.QB, Measurables{Forty: &forty})
	assert.Equal(t, NeutralAthletic(), sig)
}

func TestReference_NearestComps(t *testing.T) {
	ref, err := LoadReference(referenceCSV(t))
	require.NoError(t, err)

	// Near-clone of the i=5 reference row.
	forty := 4.55
	vert := 29.5
	h, w := 74.0, 215.0
	comps, confidence := ref.NearestComps(identity.QB, Measurables{
		HeightIn: &h, WeightLb: &w, Forty: &forty, Vertical: &vert,
	}, 3, 0.5)

	require.Len(t, comps, 3)
	assert.GreaterOrEqual(t, comps[0].Similarity, comps[1].Similarity)
	assert.GreaterOrEqual(t, comps[0].Overlap, minCompOverlap)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 99.0)
}

func TestReference_CompsRequireOverlap(t *testing.T) {
	ref, err := LoadReference(referenceCSV(t))
	require.NoError(t, err)

	forty := 4.5
	comps, confidence := ref.NearestComps(identity.QB, Measurables{Forty: &forty}, 3, 0.1)
	assert.Empty(t, comps) // one shared metric is under the overlap gate
	assert.Zero(t, confidence)
}

func TestCombineLoader(t *testing.T) {
	ref, err := LoadReference(referenceCSV(t))
	require.NoError(t, err)

	path := writeFile(t, "combine.csv", strings.Join([]string{
		"player_name,school,position,ras_official,height_in,weight_lb,arm_in,hand_in,forty,ten_split,vertical,broad,three_cone,shuttle,bench",
		"Trevor Example,State U,QB,9.1,76,220,32.5,9.6,4.55,1.54,34,118,6.9,4.2,",
		"Trevor Example,State U,QB,,76,220,,,4.55,,,,,,", // thinner duplicate loses
	}, "\n"))

	l := &CombineLoader{Path: path, Reference: ref}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, meta.Status)

	sig, ok := l.Signals[identity.KeyOf("Trevor Example", "QB")]
	require.True(t, ok)
	require.NotNil(t, sig.RAS)
	assert.InDelta(t, 9.1, *sig.RAS, 1e-9)
	assert.Equal(t, 10, sig.CoverageCount)
}

func TestProductionLoader(t *testing.T) {
	path := writeFile(t, "production.csv", strings.Join([]string{
		"player_name,position,school,season,source,quality_label,reliability,qb_qbr,qb_epa_per_play,qb_success_rate,yprr,target_share",
		"Trevor Example,QB,State U,2025,charting,real,,88.5,0.41,0.55,,",
		"Wide Out,WR,Tech,2025,charting,,,,,,2.9,0.31",
		"Old Row,QB,Tech,2019,charting,real,,70,,,,",
	}, "\n"))

	l := &ProductionLoader{Path: path, Season: 2025}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Dropped) // off-season row

	qb := l.Signals[identity.KeyOf("Trevor Example", "QB")]
	assert.Greater(t, qb.Signal, 80.0)
	assert.Equal(t, "real", qb.Quality)
	assert.InDelta(t, 1.0, qb.Reliability, 1e-9)
	assert.InDelta(t, qb.RawSignal, qb.Signal, 1e-9) // rel 1.0 means no regression

	wr := l.Signals[identity.KeyOf("Wide Out", "WR")]
	assert.Equal(t, "mixed", wr.Quality)
	assert.InDelta(t, 0.75, wr.Reliability, 1e-9)
	assert.InDelta(t, 0.75*wr.RawSignal+0.25*55.0, wr.Signal, 1e-9)
}

func TestScoreProduction_ProxyReliabilityCap(t *testing.T) {
	yprr := 3.2
	sig, ok := ScoreProduction(identity.WR, ProductionRow{YPRR: &yprr})
	require.True(t, ok)
	assert.Equal(t, "proxy", sig.Quality)
	assert.LessOrEqual(t, sig.Reliability, 0.30)
	assert.Less(t, sig.Signal, sig.RawSignal) // regressed toward 55
}

func TestScoreProduction_NoMetrics(t *testing.T) {
	_, ok := ScoreProduction(identity.QB, ProductionRow{})
	assert.False(t, ok)
}

func TestFilmTraitsLoader(t *testing.T) {
	path := writeFile(t, "film.csv", strings.Join([]string{
		"player_name,position,school,source,eval_date,processing,accuracy,arm_talent,creation,pocket_presence,situational_command",
		"Trevor Example,QB,State U,scout_a,2026-01-10,90,88,85,80,87,86",
		"Trevor Example,QB,State U,scout_b,2026-02-01,92,,,,,", // narrower chart loses
		"Empty Chart,QB,State U,scout_a,2026-01-10,,,,,,",
	}, "\n"))

	l := &FilmTraitsLoader{Path: path}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Rows)
	assert.Equal(t, 1, meta.Dropped)

	chart, ok := l.Charts[identity.KeyOf("Trevor Example", "QB")]
	require.True(t, ok)
	assert.Equal(t, "scout_a", chart.Source)
	assert.Equal(t, 6, chart.CoverageCount)
	assert.Equal(t, 90.0, chart.Traits["processing"])
}

func TestFilmTraitsLoader_MissingFile(t *testing.T) {
	l := &FilmTraitsLoader{Path: filepath.Join(t.TempDir(), "absent.csv")}
	meta, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, meta.Status)
}
