package telemetry

import "math"

// SampleIndexForFrame approximates which telemetry sample belongs to a video
// frame when the frame and sample clocks run independently. It is a
// nearest-sample lookup, not a timestamp match; the result may fall outside
// [0, sampleCount) and must be clamped by the caller.
func SampleIndexForFrame(frame, totalFrames, sampleCount int) int {
	if sampleCount < 2 || totalFrames <= 0 {
		return 0
	}
	framesPerSample := float64(totalFrames) / float64(sampleCount-1)
	return int(math.Round(float64(frame) / framesPerSample))
}

// Clamp limits index to [0, n).
func Clamp(index, n int) int {
	if index < 0 || n <= 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}
