// Package overlay defines the overlay plugin contract, the static plugin
// registry and the built-in plugins.
//
// A plugin renders one telemetry field onto a video. It receives the
// projected samples and an input file, and must leave its output file on
// disk when it reports success. When the output already exists and
// overwrite is off, a plugin returns success without rendering.
package overlay

import (
	"context"

	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/rs/zerolog"
)

// Renderer applies encoder arguments to a file. *media.FFmpeg implements it.
type Renderer interface {
	ApplyFilter(ctx context.Context, in, out string, args []string, overwrite bool) error
}

// Request is everything a plugin gets for one chain stage.
type Request struct {
	Config    config.Plugin
	Placement Placement
	Samples   []telemetry.Sample
	Style     config.RenderSettings
	Renderer  Renderer
	FS        fsutil.FileSystem
	Input     string
	Output    string
	Overwrite bool
	Log       zerolog.Logger
}

// Plugin renders one overlay stage.
type Plugin interface {
	Name() string
	Render(ctx context.Context, req Request) error
}
