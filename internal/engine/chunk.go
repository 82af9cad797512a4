package engine

// Long audio is split into fixed-length overlapping windows for the
// token-alignment backend. The streaming backend processes the full buffer
// in one pass regardless of length; its native decoder windows internally.
const (
	// chunkThresholdSeconds is the duration above which audio is windowed.
	chunkThresholdSeconds = 180
	// chunkWindowSeconds is the length of each window.
	chunkWindowSeconds = 120
	// chunkOverlapSeconds is the overlap between consecutive windows.
	chunkOverlapSeconds = 15
)

// window is one chunk of the sample buffer plus its absolute time offset.
type window struct {
	start         int // inclusive sample index
	end           int // exclusive sample index
	offsetSeconds float64
}

// planWindows splits totalSamples into overlapping windows. Consecutive
// windows overlap by chunkOverlapSeconds except when a window reaches
// end-of-audio, which always closes the plan exactly at the total.
func planWindows(totalSamples, sampleRate int) []window {
	windowSamples := chunkWindowSeconds * sampleRate
	overlapSamples := chunkOverlapSeconds * sampleRate

	step := windowSamples - overlapSamples
	if step < 1 {
		step = 1
	}

	var windows []window
	for start := 0; start < totalSamples; start += step {
		end := start + windowSamples
		if end > totalSamples {
			end = totalSamples
		}
		windows = append(windows, window{
			start:         start,
			end:           end,
			offsetSeconds: float64(start) / float64(sampleRate),
		})
		if end == totalSamples {
			break
		}
	}
	return windows
}
