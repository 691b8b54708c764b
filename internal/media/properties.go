package media

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrIncompleteProperties is returned when the prober output lacks one of
// frame rate, duration, width or height.
var ErrIncompleteProperties = errors.New("incomplete video properties")

// Properties describes the first video stream of a file.
type Properties struct {
	FrameRate float64
	Duration  float64
	Width     int
	Height    int
}

// TotalFrames estimates the number of frames from duration and frame rate.
func (p Properties) TotalFrames() int {
	return int(math.Round(p.Duration * p.FrameRate))
}

// ParseProperties reads the flat key=value output of the prober. Values may
// be quoted; the frame rate is either a bare number or "num/den".
// All four properties must be present and positive, otherwise the whole
// query is reported failed.
func ParseProperties(output string) (Properties, error) {
	var p Properties
	var haveRate, haveDuration, haveWidth, haveHeight bool

	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))

		var err error
		switch {
		case strings.Contains(key, "r_frame_rate"):
			p.FrameRate, err = parseRate(value)
			haveRate = err == nil
		case strings.Contains(key, "duration"):
			p.Duration, err = strconv.ParseFloat(value, 64)
			haveDuration = err == nil
		case strings.Contains(key, "width"):
			p.Width, err = strconv.Atoi(value)
			haveWidth = err == nil
		case strings.Contains(key, "height"):
			p.Height, err = strconv.Atoi(value)
			haveHeight = err == nil
		}
		if err != nil {
			return Properties{}, fmt.Errorf("%w: %s: %v", ErrIncompleteProperties, key, err)
		}
	}

	var missing []string
	if !haveRate || p.FrameRate <= 0 {
		missing = append(missing, "frame rate")
	}
	if !haveDuration || p.Duration <= 0 {
		missing = append(missing, "duration")
	}
	if !haveWidth || p.Width <= 0 {
		missing = append(missing, "width")
	}
	if !haveHeight || p.Height <= 0 {
		missing = append(missing, "height")
	}
	if len(missing) > 0 {
		return Properties{}, fmt.Errorf("%w: missing %s", ErrIncompleteProperties, strings.Join(missing, ", "))
	}
	return p, nil
}

func parseRate(value string) (float64, error) {
	num, den, fraction := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	if !fraction {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", value)
	}
	return n / d, nil
}
