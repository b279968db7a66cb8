package fetcher

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type rankRow struct {
	Source string `csv:"source"`
	Rank   int    `csv:"rank"`
	Name   string `csv:"player_name"`
	Pos    string `csv:"position"`
}

func TestDecodeCSV(t *testing.T) {
	in := strings.Join([]string{
		"source,rank,player_name,position",
		"mock_a,1,Trevor Example,QB",
		"mock_a,2,Sam Sample,EDGE",
	}, "\n")

	res, err := DecodeCSV[rankRow](strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, rankRow{Source: "mock_a", Rank: 1, Name: "Trevor Example", Pos: "QB"}, res.Rows[0])
}

func TestDecodeCSV_SkipsMalformedRows(t *testing.T) {
	in := strings.Join([]string{
		"source,rank,player_name,position",
		"mock_a,1,Trevor Example,QB",
		"mock_a,not-a-rank,Bad Row,QB",
		"mock_a,3,Sam Sample,EDGE,extra,fields",
		"mock_a,4,Kept Row,WR",
	}, "\n")

	res, err := DecodeCSV[rankRow](strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Trevor Example", res.Rows[0].Name)
	assert.Equal(t, "Kept Row", res.Rows[1].Name)
}

func TestDecodeCSV_TrimSpace(t *testing.T) {
	in := "source,rank,player_name,position\nmock_a, 7 , Trevor Example ,QB\n"

	res, err := DecodeCSV[rankRow](strings.NewReader(in), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 7, res.Rows[0].Rank)
	assert.Equal(t, "Trevor Example", res.Rows[0].Name)
}

func TestDecodeCSV_Empty(t *testing.T) {
	res, err := DecodeCSV[rankRow](strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combine.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"source", "rank", "player_name", "position"},
		{"mock_a", "1", "Trevor Example", "QB"},
		{"mock_a", "2", "Sam Sample"}, // short row, padded
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(path))

	res, err := ReadXLSX[rankRow](path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Trevor Example", res.Rows[0].Name)
	assert.Equal(t, "", res.Rows[1].Pos)
}

func TestReadXLSX_MissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combine.xlsx")
	f := xlsx.NewFile()
	_, err := f.AddSheet("results")
	require.NoError(t, err)
	require.NoError(t, f.Save(path))

	_, err = ReadXLSX[rankRow](path, XLSXOptions{SheetName: "other"})
	assert.Error(t, err)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV[rankRow](filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	assert.Error(t, err)
}
