package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgrid/bigboard/internal/board"
	"github.com/draftgrid/bigboard/internal/model"
	"github.com/draftgrid/bigboard/internal/store"
)

func newServeStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func savedRun(t *testing.T, s *store.SQLiteStore) *store.Run {
	t.Helper()
	run, err := s.SaveSnapshot(context.Background(), store.Snapshot{
		Season:     2026,
		Validation: board.Report{Status: board.StatusPass, SeedRows: 1},
		Entries: []model.BoardEntry{{
			PlayerUID: "1-trevor-example", SeedRowID: 1, RankSeed: 5,
			Name: "Trevor Example", Pos: "QB", School: "State",
			ConsensusRank: 1, RoundProjected: "Round 1",
		}},
	})
	require.NoError(t, err)
	return run
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServe_Healthz(t *testing.T) {
	h := newRouter(newServeStore(t))

	w := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServe_BoardBeforeAnyBuild(t *testing.T) {
	h := newRouter(newServeStore(t))

	w := get(t, h, "/api/board")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServe_BoardAfterBuild(t *testing.T) {
	s := newServeStore(t)
	run := savedRun(t, s)
	h := newRouter(s)

	w := get(t, h, "/api/board")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Run   store.Run          `json:"run"`
		Board []model.BoardEntry `json:"board"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, run.ID, resp.Run.ID)
	require.Len(t, resp.Board, 1)
	assert.Equal(t, "1-trevor-example", resp.Board[0].PlayerUID)
}

func TestServe_Runs(t *testing.T) {
	s := newServeStore(t)
	h := newRouter(s)

	w := get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	run := savedRun(t, s)

	w = get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []store.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	w = get(t, h, "/api/runs/"+run.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, h, "/api/runs/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServe_CORSPreflight(t *testing.T) {
	h := newRouter(newServeStore(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/board", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
