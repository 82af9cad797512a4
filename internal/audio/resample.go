package audio

// Resample converts samples from one sample rate to another using linear
// interpolation. Linear interpolation is adequate for speech fed into the
// recognition models; the mel front end low-passes far below Nyquist.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		return nil
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// Duration returns the duration in seconds of a sample buffer at the target
// sample rate.
func Duration(samples []float32) float64 {
	return float64(len(samples)) / float64(TargetSampleRate)
}
