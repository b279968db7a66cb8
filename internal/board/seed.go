// Package board assembles the final big board: seed hygiene, prebuild
// validation, parallel source loading, the grade-and-rank build, and the
// export writers.
package board

import (
	"sort"

	"github.com/draftgrid/bigboard/internal/fetcher"
	"github.com/draftgrid/bigboard/internal/identity"
	"github.com/draftgrid/bigboard/internal/model"
)

// LoadSeed reads the curated seed CSV.
func LoadSeed(path string) ([]model.SeedRow, error) {
	res, err := fetcher.ReadCSV[model.SeedRow](path, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// DupDrop records one seed row removed by the dedup pass.
type DupDrop struct {
	Kept    model.SeedRow
	Dropped model.SeedRow
}

// DedupeSeed collapses seed rows that normalize to the same identity key:
// the row with the best (lowest) rank_seed survives, ties keep the lowest
// seed_row_id. Kept rows come back in their original file order.
func DedupeSeed(rows []model.SeedRow) ([]model.SeedRow, []DupDrop) {
	type slot struct {
		row   model.SeedRow
		order int
	}
	best := make(map[identity.Key]slot, len(rows))
	var drops []DupDrop

	for i, row := range rows {
		key := row.Key()
		prev, seen := best[key]
		if !seen {
			best[key] = slot{row: row, order: i}
			continue
		}
		if row.RankSeed < prev.row.RankSeed ||
			(row.RankSeed == prev.row.RankSeed && row.SeedRowID < prev.row.SeedRowID) {
			drops = append(drops, DupDrop{Kept: row, Dropped: prev.row})
			best[key] = slot{row: row, order: prev.order}
			continue
		}
		drops = append(drops, DupDrop{Kept: prev.row, Dropped: row})
	}

	kept := make([]slot, 0, len(best))
	for _, s := range best {
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].order < kept[j].order })

	out := make([]model.SeedRow, len(kept))
	for i, s := range kept {
		out[i] = s.row
	}
	return out, drops
}
