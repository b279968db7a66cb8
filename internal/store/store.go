// Package store persists finished board builds so published boards can be
// compared across runs of a cycle.
package store

import (
	"context"
	"time"

	"github.com/draftgrid/bigboard/internal/board"
	"github.com/draftgrid/bigboard/internal/model"
)

// Run is the metadata row for one persisted board build.
type Run struct {
	ID               string    `json:"id"`
	Season           int       `json:"season"`
	Players          int       `json:"players"`
	ValidationStatus string    `json:"validation_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Snapshot is one complete build: the board plus the validation report
// that cleared it.
type Snapshot struct {
	Season     int                `json:"season"`
	Validation board.Report       `json:"validation"`
	Entries    []model.BoardEntry `json:"entries"`
}

// Store defines the persistence interface for board snapshots.
type Store interface {
	Migrate(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snap Snapshot) (*Run, error)
	GetSnapshot(ctx context.Context, runID string) (*Run, *Snapshot, error)
	LatestSnapshot(ctx context.Context) (*Run, *Snapshot, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
