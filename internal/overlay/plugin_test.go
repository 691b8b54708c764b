package overlay

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderCall struct {
	In, Out string
	Args    []string
}

// fakeRenderer captures cue scripts while they exist and writes the output.
type fakeRenderer struct {
	fs      *fsutil.MemoryFileSystem
	calls   []renderCall
	scripts []string
	err     error
}

func (r *fakeRenderer) ApplyFilter(_ context.Context, in, out string, args []string, _ bool) error {
	r.calls = append(r.calls, renderCall{In: in, Out: out, Args: args})
	for _, a := range args {
		if rest, ok := strings.CutPrefix(a, "sendcmd=f="); ok {
			name, _, _ := strings.Cut(rest, ",")
			data, err := r.fs.ReadFile(name)
			if err != nil {
				return err
			}
			r.scripts = append(r.scripts, string(data))
		}
	}
	if r.err != nil {
		return r.err
	}
	return r.fs.WriteFile(out, []byte("rendered "+in), 0644)
}

func testStyle() config.RenderSettings {
	return config.RenderSettings{
		FontFile:    "/usr/share/fonts/TTF/DejaVuSans.ttf",
		FontSize:    72,
		FontColor:   "0xFFFFFF",
		BorderWidth: 2,
		BorderColor: "0x000000",
		Margin:      10,
		SkipLastCue: true,
	}
}

func newRequest(fs *fsutil.MemoryFileSystem, r Renderer, pc config.Plugin, samples []telemetry.Sample) Request {
	return Request{
		Config:    pc,
		Placement: bottomRight,
		Samples:   samples,
		Style:     testStyle(),
		Renderer:  r,
		FS:        fs,
		Input:     "/videos/GOPR0001.MP4",
		Output:    "/videos/GOPR0001.MP4.filter_1.mp4",
		Log:       zerolog.Nop(),
	}
}

func tempFiles(fs *fsutil.MemoryFileSystem) []string {
	var out []string
	for _, name := range fs.Names() {
		if strings.HasPrefix(name, "/tmp/") {
			out = append(out, name)
		}
	}
	return out
}

var threeTemps = []telemetry.Sample{
	{Value: 21.5, Duration: 1},
	{Value: 21.75, Duration: 1},
	{Value: 22, Duration: 1},
}

func TestTemperaturePlugin_Render(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	req := newRequest(fs, r, config.Plugin{Label: "Temp", JSONTag: "temp"}, threeTemps)

	require.NoError(t, NewTemperaturePlugin().Render(context.Background(), req))

	require.Len(t, r.calls, 1)
	call := r.calls[0]
	assert.Equal(t, req.Input, call.In)
	assert.Equal(t, req.Output, call.Out)
	require.Len(t, call.Args, 4)
	assert.Equal(t, []string{"-acodec", "copy", "-vf"}, call.Args[:3])
	assert.True(t, strings.HasSuffix(call.Args[3],
		",drawtext=text='':fontfile=/usr/share/fonts/TTF/DejaVuSans.ttf:fontsize=72:borderw=2:bordercolor=0x000000:fontcolor=0xFFFFFF"),
		call.Args[3])

	require.Len(t, r.scripts, 1)
	want := "0.000-1.000 [enter] drawtext reinit 'text=Temp\\ 21.5:x=W-tw-10:y=H-th-10';\n" +
		"1.000-2.000 [enter] drawtext reinit 'text=Temp\\ 21.8:x=W-tw-10:y=H-th-10';\n"
	assert.Equal(t, want, r.scripts[0])

	assert.True(t, fs.Exists(req.Output))
	assert.Empty(t, tempFiles(fs), "cue file must be removed")
}

func TestTextPlugin_SkipsExistingOutput(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	req := newRequest(fs, r, config.Plugin{JSONTag: "temp"}, threeTemps)
	require.NoError(t, fs.WriteFile(req.Output, []byte("previous run"), 0644))
	before, err := fs.Stat(req.Output)
	require.NoError(t, err)

	require.NoError(t, NewTextPlugin().Render(context.Background(), req))

	assert.Empty(t, r.calls)
	data, err := fs.ReadFile(req.Output)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))
	after, err := fs.Stat(req.Output)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Empty(t, tempFiles(fs))
}

func TestTextPlugin_OverwriteRenders(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	req := newRequest(fs, r, config.Plugin{JSONTag: "temp"}, threeTemps)
	req.Overwrite = true
	require.NoError(t, fs.WriteFile(req.Output, []byte("previous run"), 0644))

	require.NoError(t, NewTextPlugin().Render(context.Background(), req))
	assert.Len(t, r.calls, 1)
}

func TestTextPlugin_FailureRemovesCueFile(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs, err: errors.New("exit status 1")}
	req := newRequest(fs, r, config.Plugin{JSONTag: "temp"}, threeTemps)

	err := NewTextPlugin().Render(context.Background(), req)
	require.Error(t, err)
	assert.Len(t, r.scripts, 1)
	assert.Empty(t, tempFiles(fs))
	assert.False(t, fs.Exists(req.Output))
}

func TestSpeedPlugin_UnitSuffix(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	pc := config.Plugin{JSONTag: "speed", Unit: "metric_speed", Params: map[string]string{"precision": "0"}}
	samples := []telemetry.Sample{{Value: 36, Duration: 1}, {Value: 40, Duration: 1}}
	req := newRequest(fs, r, pc, samples)

	require.NoError(t, NewSpeedPlugin().Render(context.Background(), req))
	require.Len(t, r.scripts, 1)
	assert.Contains(t, r.scripts[0], "'text=36\\ km/h:")
}

func TestTextPlugin_ParamsOverrideStyle(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	pc := config.Plugin{JSONTag: "alt", Params: map[string]string{
		"prefix":    "Alt ",
		"suffix":    " m",
		"fontsize":  "36",
		"fontcolor": "0xFF0000",
		"precision": "bogus",
	}}
	req := newRequest(fs, r, pc, threeTemps)

	require.NoError(t, NewTextPlugin().Render(context.Background(), req))
	require.Len(t, r.calls, 1)
	assert.Contains(t, r.calls[0].Args[3], ":fontsize=36:")
	assert.Contains(t, r.calls[0].Args[3], ":fontcolor=0xFF0000")
	assert.Contains(t, r.scripts[0], "'text=Alt\\ 21.5\\ m:")
}

func TestTextPlugin_NoSamplesCopiesInput(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	req := newRequest(fs, r, config.Plugin{JSONTag: "missing"}, []telemetry.Sample{})

	require.NoError(t, NewTextPlugin().Render(context.Background(), req))
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"-c", "copy"}, r.calls[0].Args)
	assert.True(t, fs.Exists(req.Output))
}

func TestTextPlugin_SingleSampleCopiesInput(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	one := []telemetry.Sample{{Value: 21.5, Duration: 3}}
	req := newRequest(fs, r, config.Plugin{JSONTag: "temp"}, one)

	require.NoError(t, NewTemperaturePlugin().Render(context.Background(), req))
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"-c", "copy"}, r.calls[0].Args)
	assert.Empty(t, r.scripts)
	assert.Empty(t, tempFiles(fs))
	assert.True(t, fs.Exists(req.Output))
}

func TestTextPlugin_SingleSampleWithoutSkipLast(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	one := []telemetry.Sample{{Value: 21.5, Duration: 3}}
	req := newRequest(fs, r, config.Plugin{JSONTag: "temp"}, one)
	req.Style.SkipLastCue = false

	require.NoError(t, NewTemperaturePlugin().Render(context.Background(), req))
	require.Len(t, r.scripts, 1)
	assert.Equal(t, "0.000-3.000 [enter] drawtext reinit 'text=Temp\\ 21.5:x=W-tw-10:y=H-th-10';\n", r.scripts[0])
}

func TestGraphPlugin_Render(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := &fakeRenderer{fs: fs}
	pc := config.Plugin{Label: "Speed", JSONTag: "speed", Params: map[string]string{"width": "240", "height": "90"}}
	req := newRequest(fs, r, pc, threeTemps)
	req.Placement = Placement{H: Left, V: Top, Margin: 10}

	require.NoError(t, NewGraphPlugin().Render(context.Background(), req))

	require.Len(t, r.calls, 1)
	args := r.calls[0].Args
	require.Len(t, args, 10)
	assert.Equal(t, "-i", args[0])
	assert.True(t, strings.HasPrefix(args[1], "/tmp/gpt_plugin_graph"))
	assert.Equal(t, []string{
		"-filter_complex", "[0:v][1:v]overlay=x=10:y=10[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-acodec", "copy",
	}, args[2:])
	assert.Empty(t, tempFiles(fs))
}

func TestRenderGraph_PNG(t *testing.T) {
	png, err := RenderGraph(threeTemps, "Temperature", 240, 90)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	flat := []telemetry.Sample{{Value: 5, Duration: 1}, {Value: 5, Duration: 1}}
	_, err = RenderGraph(flat, "", 240, 90)
	assert.NoError(t, err)
}
