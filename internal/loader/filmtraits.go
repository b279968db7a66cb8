package loader

import (
	"context"
	"strconv"
	"strings"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/grade"
	"github.com/draftgrid/bigboard/internal/identity"
)

// FilmChart is one scout's charted sub-trait grades for a player. Only
// the traits the scout actually charted appear in Traits.
type FilmChart struct {
	School        string             `json:"school"`
	Source        string             `json:"source"`
	EvalDate      string             `json:"eval_date"`
	Traits        map[string]float64 `json:"traits"`
	CoverageCount int                `json:"coverage_count"`
}

// FilmTraitsLoader reads the manual film-charting file. Its column set is
// dynamic: fixed identity columns plus one column per charted sub-trait.
// When multiple charts cover one player, the widest chart wins.
type FilmTraitsLoader struct {
	Path string

	Charts map[identity.Key]FilmChart
}

func (l *FilmTraitsLoader) Name() string { return "film" }

func (l *FilmTraitsLoader) Load(ctx context.Context) (Meta, error) {
	l.Charts = make(map[identity.Key]FilmChart)

	header, rows, err := fetcher.ReadCSVRows(l.Path, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		if isNotExist(err) {
			return missingMeta(l.Name(), l.Path), nil
		}
		return Meta{Source: l.Name(), Path: l.Path, Status: StatusOK}, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	meta := Meta{Source: l.Name(), Path: l.Path, Status: StatusOK}
	for _, row := range rows {
		key := identity.KeyOf(field(row, "player_name"), field(row, "position"))
		if !key.Valid() {
			meta.Dropped++
			continue
		}

		traits := make(map[string]float64)
		for _, trait := range grade.FilmTraitNames(key.Pos) {
			raw := field(row, trait)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				meta.Skipped++
				continue
			}
			traits[trait] = v
		}
		if len(traits) == 0 {
			meta.Dropped++
			continue
		}
		meta.Rows++

		chart := FilmChart{
			School:        field(row, "school"),
			Source:        field(row, "source"),
			EvalDate:      field(row, "eval_date"),
			Traits:        traits,
			CoverageCount: len(traits),
		}
		if prev, ok := l.Charts[key]; ok && prev.CoverageCount >= chart.CoverageCount {
			continue
		}
		l.Charts[key] = chart
	}
	return meta, nil
}
