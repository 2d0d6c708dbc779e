package audio

// Resample converts samples from srcRate to dstRate using linear interpolation.
// Returns the input unchanged if rates already match.
//
// The 8kHz<->16kHz path used on the call hot loop is a clean 2x ratio; for
// that case the output length is guaranteed to be exactly 2x (upsample) or
// len/2 (downsample) of the input, with no per-frame drift accumulating
// across a call. Other ratios fall back to the general interpolator.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate {
		return samples
	}

	if dstRate == 2*srcRate {
		return upsample2x(samples)
	}
	if srcRate == 2*dstRate {
		return downsample2x(samples)
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)

	for i := range outLen {
		srcIdx := float64(i) * ratio
		idx := int(srcIdx)
		frac := float32(srcIdx - float64(idx))
		out[i] = interpolate(samples, idx, frac)
	}

	return out
}

// upsample2x produces exactly 2*len(samples) output samples: each input
// sample is followed by the midpoint between it and the next (repeating the
// last sample for the final midpoint).
func upsample2x(samples []float32) []float32 {
	n := len(samples)
	out := make([]float32, n*2)
	for i := 0; i < n; i++ {
		next := samples[i]
		if i+1 < n {
			next = samples[i+1]
		}
		out[2*i] = samples[i]
		out[2*i+1] = (samples[i] + next) / 2
	}
	return out
}

// downsample2x produces exactly len(samples)/2 output samples by averaging
// adjacent pairs. A trailing odd sample is discarded.
func downsample2x(samples []float32) []float32 {
	n := len(samples) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (samples[2*i] + samples[2*i+1]) / 2
	}
	return out
}

func interpolate(samples []float32, idx int, frac float32) float32 {
	if idx+1 >= len(samples) {
		return samples[len(samples)-1]
	}
	return samples[idx]*(1-frac) + samples[idx+1]*frac
}
