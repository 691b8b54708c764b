// Package chain threads an input video through the enabled overlay plugins
// in document order and finalizes the last stage as the rendered file.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/overlay"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/banshee-data/goprotelemetry/internal/timeutil"
	"github.com/rs/zerolog"
)

// ErrStageFailed is returned when a plugin fails and the chain is aborted.
var ErrStageFailed = errors.New("render stage failed")

// Projector returns the samples to render for a plugin entry.
type Projector func(pc config.Plugin) []telemetry.Sample

// State is the position of the chain. Stage N's output becomes stage N+1's
// input; StageIndex only advances for executed plugins.
type State struct {
	CurrentInput string
	StageIndex   int
	FinalOutput  string
}

// Result summarizes a chain run.
type Result struct {
	Executed  int
	Skipped   int
	FinalPath string
	// Finalized is set when the last stage was renamed to FinalPath.
	Finalized bool
	Stages    []StageEvent
}

// Orchestrator runs the render chain for one input file.
type Orchestrator struct {
	Registry  *overlay.Registry
	Renderer  overlay.Renderer
	FS        fsutil.FileSystem
	Names     artifact.Names
	Style     config.RenderSettings
	Project   Projector
	Overwrite bool
	Observer  Observer
	Clock     timeutil.Clock
	Log       zerolog.Logger
}

// Run evaluates plugins in order. Disabled plugins are skipped without
// consuming a stage number. The first failing plugin aborts the chain and
// leaves earlier stage outputs on disk. The last stage output is renamed to
// the rendered name only when at least one plugin ran and none failed; with
// no enabled plugin the input is left untouched and Run succeeds.
func (o *Orchestrator) Run(ctx context.Context, plugins []config.Plugin) (res Result, err error) {
	clock := o.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	state := State{
		CurrentInput: o.Names.Input,
		StageIndex:   1,
		FinalOutput:  o.Names.Rendered(),
	}
	res.FinalPath = state.FinalOutput

	defer func() {
		if o.Observer != nil {
			o.Observer.ChainFinished(res, err)
		}
	}()

	for _, pc := range plugins {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !pc.IsEnabled() {
			o.Log.Info().Str("plugin", pc.Label).Msg("Skipping disabled plugin")
			res.Skipped++
			o.record(&res, StageEvent{Label: pc.Label, Plugin: pc.Reference, Status: StatusDisabled})
			continue
		}

		o.logParams(pc)
		ev := StageEvent{
			Index:  state.StageIndex,
			Label:  pc.Label,
			Plugin: pc.Reference,
			Input:  state.CurrentInput,
			Output: o.Names.Stage(state.StageIndex),
		}

		start := clock.Now()
		stageErr := o.runStage(ctx, pc, ev.Input, ev.Output)
		ev.Duration = clock.Since(start)

		if stageErr != nil {
			ev.Status = StatusFailed
			ev.Err = stageErr
			o.record(&res, ev)
			o.Log.Error().Err(stageErr).Int("stage", ev.Index).Str("plugin", pc.Label).Msg("Plugin failed, aborting chain")
			return res, fmt.Errorf("stage %d (%s): %w: %w", ev.Index, pc.Label, ErrStageFailed, stageErr)
		}

		ev.Status = StatusSucceeded
		o.record(&res, ev)
		res.Executed++
		state.CurrentInput = ev.Output
		state.StageIndex++
	}

	if res.Executed == 0 {
		o.Log.Warn().Msg("No plugins enabled, nothing rendered")
		return res, nil
	}

	o.Log.Info().Str("from", state.CurrentInput).Str("to", state.FinalOutput).Msg("Finalizing rendered file")
	if err := o.FS.Rename(state.CurrentInput, state.FinalOutput); err != nil {
		return res, fmt.Errorf("finalize %s: %w", state.FinalOutput, err)
	}
	res.Finalized = true
	return res, nil
}

func (o *Orchestrator) runStage(ctx context.Context, pc config.Plugin, in, out string) error {
	plugin, err := o.Registry.Lookup(pc.Reference)
	if err != nil {
		return err
	}

	var samples []telemetry.Sample
	if o.Project != nil {
		samples = o.Project(pc)
	}
	o.Log.Info().
		Str("plugin", pc.Label).
		Str("input", in).
		Str("output", out).
		Int("samples", len(samples)).
		Float64("seconds", telemetry.Total(samples)).
		Msg("Rendering plugin")

	req := overlay.Request{
		Config:    pc,
		Placement: overlay.NewPlacement(pc.Horizontal, pc.Vertical, o.Style.Margin, o.Log),
		Samples:   samples,
		Style:     o.Style,
		Renderer:  o.Renderer,
		FS:        o.FS,
		Input:     in,
		Output:    out,
		Overwrite: o.Overwrite,
		Log:       o.Log.With().Str("plugin", pc.Reference).Logger(),
	}
	if err := plugin.Render(ctx, req); err != nil {
		return err
	}
	if !o.FS.Exists(out) {
		return fmt.Errorf("%s: %w", out, artifact.ErrNotProduced)
	}
	return nil
}

func (o *Orchestrator) logParams(pc config.Plugin) {
	e := o.Log.Info().
		Str("label", pc.Label).
		Str("plugin", pc.Reference).
		Str("jsontag", pc.JSONTag).
		Str("unit", pc.UnitName()).
		Str("horiz", pc.Horizontal).
		Str("vert", pc.Vertical)
	if len(pc.Params) > 0 {
		e = e.Interface("params", pc.Params)
	}
	e.Msg("Found enabled plugin")
}

func (o *Orchestrator) record(res *Result, ev StageEvent) {
	res.Stages = append(res.Stages, ev)
	if o.Observer != nil {
		o.Observer.StageFinished(ev)
	}
}
