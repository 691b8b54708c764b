// Package report renders the projected telemetry of a run as an HTML page of
// line charts, written next to the input file.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is one rendered field.
type Series struct {
	Label   string
	Field   string
	Unit    string
	Samples []telemetry.Sample
}

// Summary holds descriptive statistics of a series.
type Summary struct {
	Min, Mean, Max float64
	Count          int
}

// Summarize returns statistics over the sample values. An empty series
// yields a zero Summary.
func Summarize(samples []telemetry.Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	values := telemetry.Values(samples)
	return Summary{
		Min:   floats.Min(values),
		Mean:  stat.Mean(values, nil),
		Max:   floats.Max(values),
		Count: len(values),
	}
}

// Render builds the report page for input.
func Render(input string, series []Series) ([]byte, error) {
	page := components.NewPage()
	page.PageTitle = "Telemetry: " + filepath.Base(input)

	for _, s := range series {
		page.AddCharts(lineChart(s))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report and stores it at path.
func Write(fs fsutil.FileSystem, path, input string, series []Series) error {
	html, err := Render(input, series)
	if err != nil {
		return err
	}
	if err := fs.WriteFile(path, html, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func lineChart(s Series) *charts.Line {
	x := make([]string, len(s.Samples))
	y := make([]opts.LineData, len(s.Samples))
	elapsed := 0.0
	for i, sample := range s.Samples {
		x[i] = strconv.FormatFloat(elapsed, 'f', 1, 64)
		y[i] = opts.LineData{Value: sample.Value}
		elapsed += sample.Duration
	}

	sum := Summarize(s.Samples)
	subtitle := fmt.Sprintf("field=%s samples=%d", s.Field, sum.Count)
	if sum.Count > 0 {
		subtitle += fmt.Sprintf(" min=%.1f mean=%.1f max=%.1f %s", sum.Min, sum.Mean, sum.Max, s.Unit)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: s.Label, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.Unit, Scale: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries(s.Field, y, charts.WithLineChartOpts(opts.LineChart{Step: "end"}))
	return line
}
