package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strconv"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	defaultGraphWidth  = 480
	defaultGraphHeight = 180
)

// GraphPlugin overlays a static sparkline of the whole series with its mean.
//
// Parameters: width, height (points).
type GraphPlugin struct{}

// NewGraphPlugin returns the "graph" plugin.
func NewGraphPlugin() *GraphPlugin { return &GraphPlugin{} }

func (p *GraphPlugin) Name() string { return "graph" }

func (p *GraphPlugin) Render(ctx context.Context, req Request) error {
	policy := artifact.NewPolicy(req.FS, req.Overwrite, req.Log)
	_, err := policy.Ensure(req.Output, "graph overlay", func() error {
		return p.render(ctx, req)
	})
	return err
}

func (p *GraphPlugin) render(ctx context.Context, req Request) error {
	if len(req.Samples) == 0 {
		return copyThrough(ctx, req)
	}

	width := paramInt(req, "width", defaultGraphWidth)
	height := paramInt(req, "height", defaultGraphHeight)

	png, err := RenderGraph(req.Samples, req.Config.Label, width, height)
	if err != nil {
		return err
	}
	name, err := writeTemp(req.FS, "gpt_plugin_graph*.png", png, req.Log)
	if err != nil {
		return err
	}
	defer removeTemp(req.FS, name, req.Log)

	args := []string{
		"-i", name,
		"-filter_complex", "[0:v][1:v]overlay=" + req.Placement.OverlayExpr() + "[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-acodec", "copy",
	}
	return req.Renderer.ApplyFilter(ctx, req.Input, req.Output, args, req.Overwrite)
}

// RenderGraph draws samples against elapsed time as a transparent PNG.
func RenderGraph(samples []telemetry.Sample, title string, width, height int) ([]byte, error) {
	values := telemetry.Values(samples)
	pts := make(plotter.XYs, len(samples))
	elapsed := 0.0
	for i, s := range samples {
		pts[i] = plotter.XY{X: elapsed, Y: s.Value}
		elapsed += s.Duration
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.BackgroundColor = color.Transparent
	pl.X.Label.Text = "s"
	pl.Y.Min = floats.Min(values)
	pl.Y.Max = floats.Max(values)
	if pl.Y.Min == pl.Y.Max {
		pl.Y.Min--
		pl.Y.Max++
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("graph line: %w", err)
	}
	line.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	line.Width = vg.Points(2)
	pl.Add(line)

	mean := stat.Mean(values, nil)
	meanLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: mean}, {X: elapsed, Y: mean}})
	if err != nil {
		return nil, fmt.Errorf("graph mean line: %w", err)
	}
	meanLine.Color = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	pl.Add(meanLine)

	wt, err := pl.WriterTo(vg.Points(float64(width)), vg.Points(float64(height)), "png")
	if err != nil {
		return nil, fmt.Errorf("graph canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("graph encode: %w", err)
	}
	return buf.Bytes(), nil
}

func paramInt(req Request, key string, def int) int {
	v, ok := req.Config.Params[key]
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		req.Log.Warn().Str(key, v).Msgf("Invalid %s, using %d", key, def)
		return def
	}
	return n
}
