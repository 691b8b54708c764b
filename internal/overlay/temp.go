package overlay

import (
	"context"
	"fmt"

	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/rs/zerolog"
)

// writeTemp stores data in a new temporary file and returns its name. On
// error no file is left behind.
func writeTemp(fs fsutil.FileSystem, pattern string, data []byte, log zerolog.Logger) (name string, err error) {
	name, w, err := fs.CreateTemp(pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, err = w.Write(data)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeTemp(fs, name, log)
		return "", fmt.Errorf("write temp file %s: %w", name, err)
	}
	return name, nil
}

func removeTemp(fs fsutil.FileSystem, name string, log zerolog.Logger) {
	log.Debug().Str("file", name).Msg("Removing temp file")
	if err := fs.Remove(name); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Failed to remove temp file")
	}
}

// copyThrough produces the stage output unchanged. Used when a field has
// nothing to draw, so that the chain still advances.
func copyThrough(ctx context.Context, req Request) error {
	req.Log.Warn().
		Str("plugin", req.Config.Label).
		Str("jsontag", req.Config.JSONTag).
		Msg("No telemetry for field, copying input")
	return req.Renderer.ApplyFilter(ctx, req.Input, req.Output, []string{"-c", "copy"}, req.Overwrite)
}
