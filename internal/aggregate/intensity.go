package aggregate

// Intensity bin labels. Binning is a coarse proxy for particle size:
// dimmer spots are assumed smaller.
const (
	BinDim    = "dim"
	BinMid    = "mid"
	BinBright = "bright"
)

// IntensityCuts holds the dataset-wide statistics the bin boundaries are
// derived from. Compute once over all trajectory mean intensities, then
// classify each trajectory against the same cuts (explicit two-pass
// design).
type IntensityCuts struct {
	Mean float64
	Max  float64
}

// ComputeIntensityCuts derives bin boundaries from all trajectory mean
// intensities in the dataset.
func ComputeIntensityCuts(meanIntensities []float64) IntensityCuts {
	var c IntensityCuts
	if len(meanIntensities) == 0 {
		return c
	}
	var sum float64
	for _, v := range meanIntensities {
		sum += v
		if v > c.Max {
			c.Max = v
		}
	}
	c.Mean = sum / float64(len(meanIntensities))
	return c
}

// ClassifyIntensity maps one trajectory's mean intensity to a bin label.
// Below the dataset mean is dim; between the mean and the midpoint of
// mean and max is mid; the rest is bright.
func ClassifyIntensity(intensity float64, cuts IntensityCuts) string {
	if intensity < cuts.Mean {
		return BinDim
	}
	if intensity < (cuts.Mean+cuts.Max)/2 {
		return BinMid
	}
	return BinBright
}
