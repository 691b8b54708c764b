// Package media wraps the external prober and encoder used to inspect
// camera files and to apply filter graphs to them.
package media

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/process"
	"github.com/rs/zerolog"
)

var (
	// ErrNotGoPro is returned when the video encoder tag lacks the camera signature.
	ErrNotGoPro = errors.New("file is not recorded with a GoPro camera")
	// ErrNoTelemetry is returned when no gpmd metadata stream exists.
	ErrNoTelemetry = errors.New("telemetry data not found")
)

const (
	goProSignature = "GoPro"
	telemetryCodec = "gpmd"

	// Encoder log levels: informative messages, or fatal errors only.
	toolLevelInfo  = 32
	toolLevelFatal = 8
)

// Tools names the prober and encoder executables.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// FFmpeg runs ffprobe and ffmpeg. Each call blocks until the tool exits.
type FFmpeg struct {
	runner *process.Runner
	fs     fsutil.FileSystem
	tools  Tools
	level  string
	log    zerolog.Logger
}

// New creates an FFmpeg wrapper. verbosity >= 2 lets the tools print
// informative messages; anything lower restricts them to fatal errors.
func New(runner *process.Runner, fs fsutil.FileSystem, tools Tools, verbosity int, log zerolog.Logger) *FFmpeg {
	if tools.FFmpeg == "" {
		tools.FFmpeg = "ffmpeg"
	}
	if tools.FFprobe == "" {
		tools.FFprobe = "ffprobe"
	}
	level := toolLevelFatal
	if verbosity >= 2 {
		level = toolLevelInfo
	}
	return &FFmpeg{runner: runner, fs: fs, tools: tools, level: strconv.Itoa(level), log: log}
}

// Locate resolves both executables on PATH.
func (f *FFmpeg) Locate() error {
	probe, err := f.runner.Locate(f.tools.FFprobe)
	if err != nil {
		return err
	}
	enc, err := f.runner.Locate(f.tools.FFmpeg)
	if err != nil {
		return err
	}
	f.tools = Tools{FFmpeg: enc, FFprobe: probe}
	return nil
}

func (f *FFmpeg) probe(ctx context.Context, file string, args ...string) (string, error) {
	return f.runner.Run(ctx, f.tools.FFprobe, append([]string{file, "-v", f.level}, args...)...)
}

func (f *FFmpeg) encode(ctx context.Context, args ...string) error {
	_, err := f.runner.Run(ctx, f.tools.FFmpeg, append([]string{"-v", f.level, "-y"}, args...)...)
	return err
}

// IsCreatedByGoPro checks the encoder tag of the first video stream.
func (f *FFmpeg) IsCreatedByGoPro(ctx context.Context, file string) error {
	f.log.Info().Msg("Checking GoPro signature")

	out, err := f.probe(ctx, file,
		"-select_streams", "v:0",
		"-print_format", "flat",
		"-show_entries", "stream_tags=encoder")
	if err != nil {
		return err
	}
	if !strings.Contains(out, goProSignature) {
		f.log.Info().Msg("GoPro signature not found")
		return ErrNotGoPro
	}
	f.log.Info().Msg("GoPro signature found")
	return nil
}

// ContainsTelemetry checks that the file carries a gpmd metadata stream.
func (f *FFmpeg) ContainsTelemetry(ctx context.Context, file string) error {
	f.log.Info().Msg("Checking availability of telemetry data")

	_, err := f.TelemetryStream(ctx, file)
	if err != nil {
		return err
	}
	f.log.Info().Msg("Telemetry data found")
	return nil
}

// TelemetryStream returns the index of the first gpmd stream.
func (f *FFmpeg) TelemetryStream(ctx context.Context, file string) (string, error) {
	out, err := f.probe(ctx, file,
		"-print_format", "flat",
		"-show_entries", "stream=codec_tag_string")
	if err != nil {
		return "", err
	}
	index, ok := telemetryStreamIndex(out)
	if !ok {
		return "", ErrNoTelemetry
	}
	f.log.Debug().Str("stream", "0:"+index).Msg("Telemetry stream located")
	return index, nil
}

// telemetryStreamIndex finds streams.stream.<N>.codec_tag_string="gpmd".
func telemetryStreamIndex(flat string) (string, bool) {
	for _, line := range strings.Split(flat, "\n") {
		if !strings.Contains(line, telemetryCodec) {
			continue
		}
		key, _, _ := strings.Cut(line, ".codec")
		parts := strings.Split(key, ".")
		index := parts[len(parts)-1]
		if _, err := strconv.Atoi(index); err == nil {
			return index, true
		}
	}
	return "", false
}

// FetchTelemetryStream copies the raw gpmd stream of in to out.
func (f *FFmpeg) FetchTelemetryStream(ctx context.Context, policy artifact.Policy, in, out string) error {
	f.log.Info().Msg("Fetching telemetry")

	_, err := policy.Ensure(out, "Telemetry file", func() error {
		stream, err := f.TelemetryStream(ctx, in)
		if err != nil {
			return err
		}
		f.log.Info().Str("file", out).Msg("Fetching telemetry data stream")
		return f.encode(ctx,
			"-i", in,
			"-codec", "copy",
			"-map", "0:"+stream,
			"-f", "rawvideo",
			out)
	})
	return err
}

// VideoProperties queries frame rate, duration and size of the first video stream.
func (f *FFmpeg) VideoProperties(ctx context.Context, file string) (Properties, error) {
	f.log.Info().Msg("Fetching video properties")

	out, err := f.probe(ctx, file,
		"-select_streams", "v:0",
		"-print_format", "flat",
		"-show_entries", "stream=r_frame_rate,duration,width,height")
	if err != nil {
		return Properties{}, err
	}
	p, err := ParseProperties(out)
	if err != nil {
		return Properties{}, err
	}
	f.log.Info().
		Float64("framerate", p.FrameRate).
		Float64("duration", p.Duration).
		Int("width", p.Width).
		Int("height", p.Height).
		Msg("Detected video properties")
	return p, nil
}

// ApplyFilter runs the encoder on in with the given arguments, writing out.
// args are placed between the primary input and the output, so they may add
// further inputs as well as filters and codec options.
func (f *FFmpeg) ApplyFilter(ctx context.Context, in, out string, args []string, overwrite bool) error {
	policy := artifact.NewPolicy(f.fs, overwrite, f.log)
	_, err := policy.Ensure(out, "Filtered file", func() error {
		return f.encode(ctx, append(append([]string{"-i", in}, args...), out)...)
	})
	return err
}
