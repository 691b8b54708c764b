package artifact

import (
	"errors"
	"fmt"

	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/rs/zerolog"
)

// ErrNotProduced is returned when a step reported success but its output file is missing.
var ErrNotProduced = errors.New("artifact was not produced")

// Policy implements skip-if-exists-unless-overwrite for derived files.
type Policy struct {
	FS        fsutil.FileSystem
	Overwrite bool
	Log       zerolog.Logger
}

// NewPolicy returns a Policy over fs.
func NewPolicy(fs fsutil.FileSystem, overwrite bool, log zerolog.Logger) Policy {
	return Policy{FS: fs, Overwrite: overwrite, Log: log}
}

// Reusable reports whether path already exists and may be reused as is.
func (p Policy) Reusable(path string) bool {
	return !p.Overwrite && p.FS.Exists(path)
}

// Ensure runs produce unless path is reusable. A reused file counts as success.
// When produce runs, path must exist afterwards.
func (p Policy) Ensure(path, what string, produce func() error) (skipped bool, err error) {
	if p.Reusable(path) {
		p.Log.Info().Str("file", path).Msgf("%s already exists, skipping", what)
		return true, nil
	}

	if err := produce(); err != nil {
		return false, fmt.Errorf("%s: %w", what, err)
	}
	if !p.FS.Exists(path) {
		return false, fmt.Errorf("%s %s: %w", what, path, ErrNotProduced)
	}
	return false, nil
}
