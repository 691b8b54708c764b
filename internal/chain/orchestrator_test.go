package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/overlay"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/banshee-data/goprotelemetry/internal/timeutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = "/videos/GOPR0001.MP4"

// fakePlugin records its requests and writes the output unless told to fail
// or to skip writing.
type fakePlugin struct {
	name     string
	fs       fsutil.FileSystem
	fail     bool
	noOutput bool
	requests []overlay.Request
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Render(_ context.Context, req overlay.Request) error {
	p.requests = append(p.requests, req)
	if p.fail {
		return errors.New("encoder exited with status 1")
	}
	if p.noOutput {
		return nil
	}
	return p.fs.WriteFile(req.Output, []byte(p.name+" of "+req.Input), 0644)
}

type recordingObserver struct {
	stages   []StageEvent
	finished int
	lastErr  error
}

func (r *recordingObserver) StageFinished(ev StageEvent) { r.stages = append(r.stages, ev) }
func (r *recordingObserver) ChainFinished(_ Result, err error) {
	r.finished++
	r.lastErr = err
}

type fixture struct {
	fs       *fsutil.MemoryFileSystem
	registry *overlay.Registry
	plugins  map[string]*fakePlugin
	observer *recordingObserver
	orch     *Orchestrator
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		fs:       fsutil.NewMemoryFileSystem(),
		registry: overlay.NewRegistry(),
		plugins:  map[string]*fakePlugin{},
		observer: &recordingObserver{},
	}
	require.NoError(t, f.fs.WriteFile(input, []byte("source"), 0644))
	for _, n := range names {
		p := &fakePlugin{name: n, fs: f.fs}
		f.plugins[n] = p
		require.NoError(t, f.registry.Register(p))
	}
	f.orch = &Orchestrator{
		Registry: f.registry,
		FS:       f.fs,
		Names:    artifact.NamesFor(input),
		Style:    config.RenderSettings{Margin: 10},
		Project: func(pc config.Plugin) []telemetry.Sample {
			return []telemetry.Sample{{Value: 1, Duration: 1}}
		},
		Observer: f.observer,
		Clock:    timeutil.NewSteppingClock(time.Unix(0, 0), 2*time.Second),
		Log:      zerolog.Nop(),
	}
	return f
}

func entry(label, ref, enabled string) config.Plugin {
	return config.Plugin{Label: label, Reference: ref, Enabled: enabled, JSONTag: "temp", Horizontal: "left", Vertical: "top"}
}

func TestRun_DisabledThenFailure(t *testing.T) {
	f := newFixture(t, "first", "second", "third")
	f.plugins["third"].fail = true

	res, err := f.orch.Run(context.Background(), []config.Plugin{
		entry("one", "first", "true"),
		entry("two", "second", "false"),
		entry("three", "third", "TRUE"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStageFailed))

	assert.Len(t, f.plugins["first"].requests, 1)
	assert.Empty(t, f.plugins["second"].requests)
	require.Len(t, f.plugins["third"].requests, 1)

	// Disabled plugins do not consume a stage number.
	third := f.plugins["third"].requests[0]
	assert.Equal(t, input+".filter_1.mp4", third.Input)
	assert.Equal(t, input+".filter_2.mp4", third.Output)

	assert.True(t, f.fs.Exists(input+".filter_1.mp4"), "stage 1 output stays on disk")
	assert.False(t, f.fs.Exists(input+".rendered.mp4"))
	assert.True(t, f.fs.Exists(input), "input is never renamed")

	assert.Equal(t, 1, res.Executed)
	assert.Equal(t, 1, res.Skipped)
	assert.False(t, res.Finalized)

	require.Len(t, f.observer.stages, 3)
	assert.Equal(t, StatusSucceeded, f.observer.stages[0].Status)
	assert.Equal(t, StatusDisabled, f.observer.stages[1].Status)
	assert.Equal(t, StatusFailed, f.observer.stages[2].Status)
	assert.Equal(t, 2, f.observer.stages[2].Index)
	assert.Equal(t, 1, f.observer.finished)
	assert.Error(t, f.observer.lastErr)
}

func TestRun_Finalizes(t *testing.T) {
	f := newFixture(t, "first", "second")

	res, err := f.orch.Run(context.Background(), []config.Plugin{
		entry("one", "first", "true"),
		entry("skip", "second", "no"),
		entry("two", "second", "true"),
	})
	require.NoError(t, err)

	assert.True(t, res.Finalized)
	assert.Equal(t, 2, res.Executed)
	assert.Equal(t, input+".rendered.mp4", res.FinalPath)

	data, err := f.fs.ReadFile(input + ".rendered.mp4")
	require.NoError(t, err)
	assert.Equal(t, "second of "+input+".filter_1.mp4", string(data))
	assert.True(t, f.fs.Exists(input+".filter_1.mp4"))
	assert.False(t, f.fs.Exists(input+".filter_2.mp4"), "last stage is moved, not copied")

	for _, ev := range res.Stages {
		if ev.Status == StatusSucceeded {
			assert.Equal(t, 2*time.Second, ev.Duration)
		}
	}

	req := f.plugins["first"].requests[0]
	assert.Equal(t, overlay.Placement{H: overlay.Left, V: overlay.Top, Margin: 10}, req.Placement)
	assert.Len(t, req.Samples, 1)
}

func TestRun_NoEnabledPlugins(t *testing.T) {
	f := newFixture(t, "first")

	res, err := f.orch.Run(context.Background(), []config.Plugin{
		entry("one", "first", "false"),
	})
	require.NoError(t, err)

	assert.False(t, res.Finalized)
	assert.Equal(t, 0, res.Executed)
	assert.False(t, f.fs.Exists(input+".rendered.mp4"))
	data, err := f.fs.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "source", string(data))
}

func TestRun_MissingOutputFails(t *testing.T) {
	f := newFixture(t, "lazy")
	f.plugins["lazy"].noOutput = true

	_, err := f.orch.Run(context.Background(), []config.Plugin{entry("one", "lazy", "true")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStageFailed))
	assert.True(t, errors.Is(err, artifact.ErrNotProduced))
	assert.False(t, f.fs.Exists(input+".rendered.mp4"))
}

func TestRun_UnknownPluginFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Run(context.Background(), []config.Plugin{entry("one", "hologram", "true")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, overlay.ErrUnknownPlugin))
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t, "first")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.Run(ctx, []config.Plugin{entry("one", "first", "true")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.plugins["first"].requests)
}
