package board

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/draftgrid/bigboard/internal/model"
)

// WriteCSV writes the full board as CSV. Column set matches the JSON
// export field for field.
func WriteCSV(path string, entries []model.BoardEntry) error {
	data, err := csvutil.Marshal(entries)
	if err != nil {
		return eris.Wrap(err, "board: marshal csv")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "board: write %s", path)
	}
	return nil
}

// WriteJSON writes the full board as a JSON array.
func WriteJSON(path string, entries []model.BoardEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "board: marshal json")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "board: write %s", path)
	}
	return nil
}

// markdownTop is how deep the readable export goes.
const markdownTop = 100

// WriteMarkdown writes the human-readable top of the board.
func WriteMarkdown(path string, entries []model.BoardEntry) error {
	var b strings.Builder
	b.WriteString("# Big Board\n\n")
	fmt.Fprintf(&b, "Top %d of %d prospects.\n\n", min(markdownTop, len(entries)), len(entries))
	b.WriteString("| Rank | Player | Pos | School | Grade | Round | Fit |\n")
	b.WriteString("|-----:|--------|-----|--------|------:|-------|-----|\n")

	for i, e := range entries {
		if i >= markdownTop {
			break
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %.1f | %s | %s (%.1f) |\n",
			e.ConsensusRank, e.Name, e.Pos, e.School,
			e.FinalGrade, e.RoundProjected, e.FitTeam, e.FitScore)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrapf(err, "board: write %s", path)
	}
	return nil
}
