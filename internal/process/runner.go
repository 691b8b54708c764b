package process

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes external tools synchronously and logs each invocation.
type Runner struct {
	builder CommandBuilder
	lookup  func(file string) (string, error)
	log     zerolog.Logger
}

// NewRunner creates a Runner. A nil builder selects the real process builder.
func NewRunner(builder CommandBuilder, log zerolog.Logger) *Runner {
	if builder == nil {
		builder = NewRealCommandBuilder()
	}
	return &Runner{builder: builder, lookup: exec.LookPath, log: log}
}

// WithLookup replaces the PATH lookup used by Locate.
func (r *Runner) WithLookup(lookup func(file string) (string, error)) *Runner {
	r.lookup = lookup
	return r
}

// Locate resolves an executable on PATH.
func (r *Runner) Locate(name string) (string, error) {
	r.log.Info().Str("tool", name).Msg("Checking installation")
	path, err := r.lookup(name)
	if err != nil {
		r.log.Error().Str("tool", name).Msg("Tool not found")
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err)
	}
	r.log.Info().Str("tool", name).Str("path", path).Msg("Tool found")
	return path, nil
}

// Run executes name with args and returns its standard output as text.
// Any non-zero exit status is a failure; captured output is discarded in that case.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.log.Info().Str("cmd", commandLine(name, args)).Msg("Running command")

	out, err := r.builder.BuildCommand(ctx, name, args...).Run()
	if err != nil {
		r.log.Error().Err(err).Str("cmd", name).Msg("Command failed")
		return "", err
	}
	return string(out), nil
}

// commandLine renders an argument vector for logging, quoting arguments with spaces.
func commandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
