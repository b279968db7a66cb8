// Package loader reads the per-source signal files and reduces them to
// keyed per-player signals. Each family is independent: a missing file
// yields an empty result with a status flag, never an error, so one absent
// source can't block a board build.
package loader

import (
	"context"
	"errors"
	"io/fs"

	"go.uber.org/zap"
)

// Status describes whether a source file was present.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
)

// Meta is the per-load audit trail every family reports.
type Meta struct {
	Source  string `json:"source"`
	Path    string `json:"path"`
	Status  Status `json:"status"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
	Dropped int    `json:"dropped"` // rows with positions outside the closed set
}

// SignalLoader is implemented by each source family.
type SignalLoader interface {
	// Name identifies the family ("consensus", "reports", "combine", ...).
	Name() string

	// Load reads the family's file(s) and reduces them to keyed signals.
	// The concrete signal map lives on the family's own result type; Load
	// returns the shared audit metadata.
	Load(ctx context.Context) (Meta, error)
}

// missingMeta builds the Meta for an absent source file and logs it once.
func missingMeta(source, path string) Meta {
	zap.L().Warn("source file missing, using neutral defaults",
		zap.String("source", source),
		zap.String("path", path))
	return Meta{Source: source, Path: path, Status: StatusMissing}
}

// isNotExist reports whether an error chain bottoms out in a missing file.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
