package report

import (
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/goprotelemetry/internal/fsutil"
	"github.com/banshee-data/goprotelemetry/internal/telemetry"
)

func TestSummarize(t *testing.T) {
	got := Summarize([]telemetry.Sample{{Value: 2}, {Value: 4}, {Value: 9}})
	if got.Min != 2 || got.Max != 9 || got.Count != 3 || math.Abs(got.Mean-5) > 1e-9 {
		t.Errorf("Summarize() = %+v", got)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", got)
	}
}

func TestWrite(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	series := []Series{
		{Label: "Water temperature", Field: "temp", Unit: "°F", Samples: []telemetry.Sample{
			{Value: 68, Duration: 1}, {Value: 70, Duration: 1},
		}},
		{Label: "Speed", Field: "speed", Samples: nil},
	}

	if err := Write(fs, "/videos/GOPR0001.MP4.report.html", "/videos/GOPR0001.MP4", series); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := fs.ReadFile("/videos/GOPR0001.MP4.report.html")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	html := string(data)
	for _, want := range []string{"<html", "Telemetry: GOPR0001.MP4", "Water temperature", "min=68.0 mean=69.0 max=70.0"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
