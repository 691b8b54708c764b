package overlay

import (
	"context"
	"fmt"
	"strconv"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/units"
)

// TextPlugin draws the field value as text, retimed with a cue script.
//
// Parameters: prefix, suffix, precision, fontsize, fontcolor, fontfile.
type TextPlugin struct {
	name          string
	defaultPrefix string
	// unitSuffix appends the unit label when no suffix is configured.
	unitSuffix bool
}

// NewTextPlugin returns the generic "text" plugin.
func NewTextPlugin() *TextPlugin {
	return &TextPlugin{name: "text"}
}

// NewTemperaturePlugin returns the "temperature" plugin, which prefixes
// values with "Temp ".
func NewTemperaturePlugin() *TextPlugin {
	return &TextPlugin{name: "temperature", defaultPrefix: "Temp "}
}

// NewSpeedPlugin returns the "speed" plugin, which appends the unit label.
func NewSpeedPlugin() *TextPlugin {
	return &TextPlugin{name: "speed", unitSuffix: true}
}

func (p *TextPlugin) Name() string { return p.name }

func (p *TextPlugin) Render(ctx context.Context, req Request) error {
	policy := artifact.NewPolicy(req.FS, req.Overwrite, req.Log)
	_, err := policy.Ensure(req.Output, p.name+" overlay", func() error {
		return p.render(ctx, req)
	})
	return err
}

func (p *TextPlugin) render(ctx context.Context, req Request) error {
	if len(req.Samples) == 0 {
		return copyThrough(ctx, req)
	}

	script := GenerateCueScript(req.Samples, req.Placement, p.cueOptions(req))
	if script == "" {
		// sendcmd refuses a file without commands.
		return copyThrough(ctx, req)
	}
	name, err := writeTemp(req.FS, "gpt_plugin_"+p.name+"*.txt", []byte(script), req.Log)
	if err != nil {
		return err
	}
	defer removeTemp(req.FS, name, req.Log)

	args := []string{
		"-acodec", "copy",
		"-vf", "sendcmd=f=" + name + "," + drawtextFilter(req.Config, req.Style),
	}
	return req.Renderer.ApplyFilter(ctx, req.Input, req.Output, args, req.Overwrite)
}

func (p *TextPlugin) cueOptions(req Request) CueOptions {
	opts := DefaultCueOptions()
	opts.SkipLast = req.Style.SkipLastCue
	opts.Prefix = req.Config.Param("prefix", p.defaultPrefix)

	suffix := ""
	if p.unitSuffix {
		kind, _ := units.Parse(req.Config.UnitName())
		if label := units.Label(kind); label != "" {
			suffix = " " + label
		}
	}
	opts.Suffix = req.Config.Param("suffix", suffix)

	if v, ok := req.Config.Params["precision"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			req.Log.Warn().Str("precision", v).Msg("Invalid precision, using 1")
		} else {
			opts.Precision = n
		}
	}
	return opts
}

// drawtextFilter returns an empty drawtext node styled from settings, with
// per-plugin overrides.
func drawtextFilter(pc config.Plugin, style config.RenderSettings) string {
	return fmt.Sprintf("drawtext=text='':fontfile=%s:fontsize=%s:borderw=%d:bordercolor=%s:fontcolor=%s",
		pc.Param("fontfile", style.FontFile),
		pc.Param("fontsize", strconv.Itoa(style.FontSize)),
		style.BorderWidth,
		style.BorderColor,
		pc.Param("fontcolor", style.FontColor),
	)
}
