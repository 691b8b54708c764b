// Command gopro-telemetry overlays the telemetry recorded by a GoPro camera
// onto its video, using the plugin chain described in a config document.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/goprotelemetry/internal/chain"
	"github.com/banshee-data/goprotelemetry/internal/config"
	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/journal"
	"github.com/banshee-data/goprotelemetry/internal/logging"
	"github.com/banshee-data/goprotelemetry/internal/media"
	"github.com/banshee-data/goprotelemetry/internal/metrics"
	"github.com/banshee-data/goprotelemetry/internal/overlay"
	"github.com/banshee-data/goprotelemetry/internal/pipeline"
	"github.com/banshee-data/goprotelemetry/internal/process"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/banshee-data/goprotelemetry/internal/timeutil"
	"github.com/banshee-data/goprotelemetry/internal/version"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

const programName = "gopro-telemetry"

type options struct {
	configPath   string
	settingsPath string
	overwrite    bool
	verbosity    int
	report       bool
	showVersion  bool
	help         bool
	input        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", config.DefaultDocument, "plugin chain document (.yaml, .json or legacy .xml)")
	fs.StringVarP(&opts.settingsPath, "settings", "s", "", "tool settings file (default: search for "+config.SettingsName+".*)")
	fs.BoolVarP(&opts.overwrite, "overwrite", "o", false, "regenerate derived files that already exist")
	fs.CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity, may be repeated (-vv)")
	fs.BoolVar(&opts.report, "report", false, "write <input>.report.html with the projected telemetry")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	fs.BoolVarP(&opts.help, "help", "h", false, "show this help")
	return fs
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [options] <input file>\n\nOptions:\n", programName)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// run returns the process exit code. Bad invocations print usage and exit 0;
// only a failed run exits 1.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stdout, "%v\n", err)
		usage(stdout, fs)
		return 0
	}
	if opts.help {
		usage(stdout, fs)
		return 0
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.String(programName))
		return 0
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stdout, "Nothing to do!")
		usage(stdout, fs)
		return 0
	}
	opts.input = fs.Arg(0)

	if err := render(ctx, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func render(ctx context.Context, opts options, stdout, stderr io.Writer) (err error) {
	runID := uuid.NewString()
	log := logging.New(stderr, opts.verbosity, runID)

	settings, err := config.LoadSettings(opts.settingsPath)
	if err != nil {
		return err
	}

	registry := overlay.DefaultRegistry()
	doc, err := config.LoadDocument(opts.configPath, registry.Has)
	if err != nil {
		return err
	}
	log.Info().
		Str("config", opts.configPath).
		Int("plugins", len(doc.Plugins)).
		Int("enabled", len(doc.Enabled())).
		Msg("Plugin document loaded")

	clock := timeutil.RealClock{}
	var observers chain.Observers

	if settings.Journal.Path != "" {
		j, openErr := journal.Open(settings.Journal.Path, clock, log)
		if openErr != nil {
			return openErr
		}
		defer j.Close()
		if err := j.BeginRun(runID, opts.input); err != nil {
			return err
		}
		// Covers runs that fail before the chain starts; a no-op otherwise.
		defer func() { j.Finish(err) }()
		observers = append(observers, j)
	}
	if settings.Metrics.File != "" {
		observers = append(observers, metrics.NewStage(settings.Metrics.File, log))
	}

	fsys := fsutil.OSFileSystem{}
	proc := process.NewRunner(nil, log)
	runner := &pipeline.Runner{
		Input:     opts.input,
		Plugins:   doc.Plugins,
		Settings:  settings,
		Overwrite: opts.overwrite,
		Report:    opts.report || settings.Report.Enabled,
		FS:        fsys,
		Media: media.New(proc, fsys, media.Tools{
			FFmpeg:  settings.Tools.FFmpeg,
			FFprobe: settings.Tools.FFprobe,
		}, opts.verbosity, log),
		Decoder:  telemetry.NewDecoder(proc, settings.Tools.Decoder, log),
		Registry: registry,
		Observer: observers,
		Clock:    clock,
		Log:      log,
	}

	res, err := runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Rendering failed")
		return err
	}
	if res.Finalized {
		fmt.Fprintln(stdout, res.FinalPath)
	}
	return nil
}
