package telemetry

import "github.com/banshee-data/goprotelemetry/internal/units"

// Sample is a converted value and how long it stays on screen, in seconds.
type Sample struct {
	Value    float64
	Duration float64
}

// Total returns the summed duration of samples.
func Total(samples []Sample) float64 {
	var total float64
	for _, s := range samples {
		total += s.Duration
	}
	return total
}

// Values returns the sample values in order.
func Values(samples []Sample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	return values
}

// Project spreads totalDuration evenly over the records that carry field.
// Record timestamps are ignored. A field present in no record yields an
// empty, non-nil slice: there is nothing to render, which is not an error.
func Project(records []Record, field string, totalDuration float64, unit units.Kind) []Sample {
	values := fieldValues(records, field)
	samples := make([]Sample, 0, len(values))
	if len(values) == 0 {
		return samples
	}

	interval := totalDuration / float64(len(values))
	for _, v := range values {
		samples = append(samples, Sample{Value: units.Convert(v, unit), Duration: interval})
	}
	return samples
}

// ProjectByFrames assigns every video frame to its nearest sample with
// SampleIndexForFrame and shows each sample for frames_assigned/frameRate
// seconds. Samples no frame maps to get a zero duration.
func ProjectByFrames(records []Record, field string, totalFrames int, frameRate float64, unit units.Kind) []Sample {
	values := fieldValues(records, field)
	samples := make([]Sample, len(values))
	if len(values) == 0 || totalFrames <= 0 || frameRate <= 0 {
		for i, v := range values {
			samples[i] = Sample{Value: units.Convert(v, unit)}
		}
		return samples
	}

	frames := make([]int, len(values))
	for f := 0; f < totalFrames; f++ {
		frames[Clamp(SampleIndexForFrame(f, totalFrames, len(values)), len(values))]++
	}
	for i, v := range values {
		samples[i] = Sample{Value: units.Convert(v, unit), Duration: float64(frames[i]) / frameRate}
	}
	return samples
}

func fieldValues(records []Record, field string) []float64 {
	var values []float64
	for _, r := range records {
		if v, ok := r[field]; ok {
			values = append(values, v)
		}
	}
	return values
}
