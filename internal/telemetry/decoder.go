package telemetry

import (
	"context"

	"github.com/banshee-data/goprotelemetry/internal/artifact"
	"github.com/banshee-data/goprotelemetry/internal/process"
	"github.com/rs/zerolog"
)

// DefaultDecoder is the binary-telemetry-to-JSON tool looked up on PATH.
const DefaultDecoder = "gopro2json"

// Decoder converts a raw metadata stream dump into a telemetry document.
type Decoder struct {
	runner *process.Runner
	exe    string
	log    zerolog.Logger
}

// NewDecoder creates a Decoder that invokes exe.
func NewDecoder(runner *process.Runner, exe string, log zerolog.Logger) *Decoder {
	if exe == "" {
		exe = DefaultDecoder
	}
	return &Decoder{runner: runner, exe: exe, log: log}
}

// Locate resolves the decoder executable on PATH.
func (d *Decoder) Locate() error {
	path, err := d.runner.Locate(d.exe)
	if err != nil {
		return err
	}
	d.exe = path
	return nil
}

// Convert decodes binPath into jsonPath unless the policy allows reusing jsonPath.
func (d *Decoder) Convert(ctx context.Context, policy artifact.Policy, binPath, jsonPath string) error {
	d.log.Info().Msg("Converting telemetry to json format")

	_, err := policy.Ensure(jsonPath, "Telemetry json file", func() error {
		_, err := d.runner.Run(ctx, d.exe, "-i", binPath, "-o", jsonPath)
		return err
	})
	return err
}
