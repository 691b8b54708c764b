// Package pipeline runs one input file end to end: preconditions, telemetry
// extraction and decoding, video properties, the render chain and the
// optional report.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/chain"
	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/media"
	"github.com/banshee-data/goprotelemetry/internal/overlay"
	"github.com/banshee-data/goprotelemetry/internal/report"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/banshee-data/goprotelemetry/internal/timeutil"
	"github.com/banshee-data/goprotelemetry/internal/units"
	"github.com/rs/zerolog"
)

// ErrInputMissing is returned when the input file does not exist.
var ErrInputMissing = errors.New("input file not found")

// Runner holds everything needed to render one input file.
type Runner struct {
	Input     string
	Plugins   []config.Plugin
	Settings  config.Settings
	Overwrite bool
	Report    bool

	FS       fsutil.FileSystem
	Media    *media.FFmpeg
	Decoder  *telemetry.Decoder
	Registry *overlay.Registry
	Observer chain.Observer
	Clock    timeutil.Clock
	Log      zerolog.Logger
}

// Run renders r.Input. Precondition failures return before any derived file
// is written. A failing step aborts the run without producing the rendered
// file.
func (r *Runner) Run(ctx context.Context) (chain.Result, error) {
	names := artifact.NamesFor(r.Input)
	policy := artifact.NewPolicy(r.FS, r.Overwrite, r.Log)

	if err := r.checkPreconditions(ctx); err != nil {
		return chain.Result{}, err
	}

	if err := r.Media.FetchTelemetryStream(ctx, policy, r.Input, names.TelemetryBinary()); err != nil {
		return chain.Result{}, fmt.Errorf("extract telemetry: %w", err)
	}
	if err := r.Decoder.Convert(ctx, policy, names.TelemetryBinary(), names.TelemetryJSON()); err != nil {
		return chain.Result{}, fmt.Errorf("decode telemetry: %w", err)
	}
	doc, err := r.loadTelemetry(names.TelemetryJSON())
	if err != nil {
		return chain.Result{}, err
	}
	props, err := r.Media.VideoProperties(ctx, r.Input)
	if err != nil {
		return chain.Result{}, fmt.Errorf("video properties: %w", err)
	}

	project := r.projector(doc, props)
	orch := &chain.Orchestrator{
		Registry:  r.Registry,
		Renderer:  r.Media,
		FS:        r.FS,
		Names:     names,
		Style:     r.Settings.Render,
		Project:   project,
		Overwrite: r.Overwrite,
		Observer:  r.Observer,
		Clock:     r.Clock,
		Log:       r.Log,
	}
	res, chainErr := orch.Run(ctx, r.Plugins)

	if r.Report {
		r.writeReport(policy, names, project)
	}
	return res, chainErr
}

func (r *Runner) checkPreconditions(ctx context.Context) error {
	if !r.FS.Exists(r.Input) {
		return fmt.Errorf("%w: %s", ErrInputMissing, r.Input)
	}
	if err := r.Media.Locate(); err != nil {
		return err
	}
	if err := r.Decoder.Locate(); err != nil {
		return err
	}
	if err := r.Media.IsCreatedByGoPro(ctx, r.Input); err != nil {
		return fmt.Errorf("%s: %w", r.Input, err)
	}
	if err := r.Media.ContainsTelemetry(ctx, r.Input); err != nil {
		return fmt.Errorf("%s: %w", r.Input, err)
	}
	return nil
}

func (r *Runner) loadTelemetry(path string) (telemetry.Document, error) {
	data, err := r.FS.ReadFile(path)
	if err != nil {
		return telemetry.Document{}, fmt.Errorf("read telemetry: %w", err)
	}
	doc, err := telemetry.ParseDocument(bytes.NewReader(data))
	if err != nil {
		return telemetry.Document{}, fmt.Errorf("parse telemetry %s: %w", path, err)
	}
	r.Log.Info().Int("records", len(doc.Data)).Msg("Telemetry loaded")
	r.Log.Debug().Interface("fields", doc.Fields()).Msg("Telemetry fields")
	return doc, nil
}

// projector spreads samples over the video with the configured strategy.
// Unknown units fall back to identity with a warning.
func (r *Runner) projector(doc telemetry.Document, props media.Properties) chain.Projector {
	strategy := r.Settings.Sync.Strategy
	return func(pc config.Plugin) []telemetry.Sample {
		kind, ok := units.Parse(pc.UnitName())
		if !ok {
			r.Log.Warn().Str("unit", pc.UnitName()).Str("plugin", pc.Label).Msg("Unknown unit, using raw values")
		}
		if strategy == config.SyncFrames {
			return telemetry.ProjectByFrames(doc.Data, pc.JSONTag, props.TotalFrames(), props.FrameRate, kind)
		}
		return telemetry.Project(doc.Data, pc.JSONTag, props.Duration, kind)
	}
}

// writeReport follows the same skip policy as the other derived files.
func (r *Runner) writeReport(policy artifact.Policy, names artifact.Names, project chain.Projector) {
	skipped, err := policy.Ensure(names.Report(), "Report", func() error {
		var series []report.Series
		for _, pc := range (config.Document{Plugins: r.Plugins}).Enabled() {
			kind, _ := units.Parse(pc.UnitName())
			series = append(series, report.Series{
				Label:   pc.Label,
				Field:   pc.JSONTag,
				Unit:    units.Label(kind),
				Samples: project(pc),
			})
		}
		return report.Write(r.FS, names.Report(), r.Input, series)
	})
	if err != nil {
		r.Log.Warn().Err(err).Msg("Failed to write report")
		return
	}
	if !skipped {
		r.Log.Info().Str("file", names.Report()).Msg("Report written")
	}
}
