package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/goprotelemetry/internal/telemetry"
)

// CueOptions controls the text of generated cues.
type CueOptions struct {
	// Prefix and Suffix surround the formatted value. They are escaped for
	// the filter command syntax.
	Prefix string
	Suffix string
	// Precision is the number of decimals; negative means 1.
	Precision int
	// SkipLast drops the final sample. The encoder is known to crash on a
	// cue that ends at end of stream.
	SkipLast bool
}

// DefaultCueOptions formats values with one decimal and skips the last cue.
func DefaultCueOptions() CueOptions {
	return CueOptions{Precision: 1, SkipLast: true}
}

// GenerateCueScript renders samples as a sendcmd script that retimes the
// text of a drawtext filter. One cue per sample, consecutive equal values
// are not merged. Start times accumulate from zero.
func GenerateCueScript(samples []telemetry.Sample, placement Placement, opts CueOptions) string {
	if opts.SkipLast && len(samples) > 0 {
		samples = samples[:len(samples)-1]
	}
	precision := opts.Precision
	if precision < 0 {
		precision = 1
	}

	pos := placement.DrawtextExpr()
	prefix := EscapeText(opts.Prefix)
	suffix := EscapeText(opts.Suffix)

	var b strings.Builder
	start := 0.0
	for _, s := range samples {
		end := start + s.Duration
		text := prefix + EscapeText(strconv.FormatFloat(s.Value, 'f', precision, 64)) + suffix
		fmt.Fprintf(&b, "%.3f-%.3f [enter] drawtext reinit 'text=%s:%s';\n", start, end, text, pos)
		start = end
	}
	return b.String()
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	` `, `\ `,
	`'`, `\'`,
	`:`, `\:`,
	`;`, `\;`,
	`,`, `\,`,
	`%`, `\%`,
)

// EscapeText escapes characters that are significant in sendcmd scripts and
// drawtext options.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}
