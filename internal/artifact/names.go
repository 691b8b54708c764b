// Package artifact names the files derived from an input video and decides
// whether each of them has to be produced again.
package artifact

import "fmt"

// Suffixes appended to the input filename. Other tools look for these
// sibling files, so they must not change.
const (
	TelemetryBinarySuffix = ".telemetry.bin"
	TelemetryJSONSuffix   = ".telemetry.json"
	RenderedSuffix        = ".rendered.mp4"
	ReportSuffix          = ".report.html"
	stageFormat           = "%s.filter_%d.mp4"
)

// Names derives artifact paths from the original input path.
type Names struct {
	Input string
}

// NamesFor returns the artifact names for input.
func NamesFor(input string) Names {
	return Names{Input: input}
}

// TelemetryBinary is the raw metadata stream dump.
func (n Names) TelemetryBinary() string { return n.Input + TelemetryBinarySuffix }

// TelemetryJSON is the decoded telemetry document.
func (n Names) TelemetryJSON() string { return n.Input + TelemetryJSONSuffix }

// Stage is the output of the index-th executed chain stage, starting at 1.
func (n Names) Stage(index int) string { return fmt.Sprintf(stageFormat, n.Input, index) }

// Rendered is the final output of the render chain.
func (n Names) Rendered() string { return n.Input + RenderedSuffix }

// Report is the optional HTML telemetry report.
func (n Names) Report() string { return n.Input + ReportSuffix }
