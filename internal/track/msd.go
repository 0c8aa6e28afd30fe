package track

import "math"

// MSDPoint is one row of a time-averaged MSD curve. LogTimeshift and
// LogMSD are NaN where the logarithm is undefined: always at lag 0, and
// for LogMSD whenever the mean squared displacement is not positive.
type MSDPoint struct {
	LagIndex     int
	Timeshift    float64 // LagIndex × time resolution, seconds
	MSD          float64
	LogTimeshift float64
	LogMSD       float64
}

// MSDCurve is the time-averaged MSD of one trajectory, ordered by lag.
// Row 0 is the conventional (timeshift=0, msd=0) entry.
type MSDCurve []MSDPoint

// EnsembleMSD returns the squared displacement from the trajectory's
// first point at every frame. Element 0 is 0 by construction.
func EnsembleMSD(t PhysicalTrajectory) []float64 {
	out := make([]float64, len(t.Points))
	if len(t.Points) == 0 {
		return out
	}
	origin := t.Points[0]
	for i, p := range t.Points {
		dx := p.X - origin.X
		dy := p.Y - origin.Y
		out[i] = dx*dx + dy*dy
	}
	return out
}

// MSDTau computes the time-averaged MSD curve for lags 1..floor(L/3),
// prepending the conventional lag-0 row. The curve therefore always has
// floor(L/3)+1 rows; a trajectory shorter than 3 frames yields only the
// lag-0 row and cannot be fitted.
//
// For lag dn the mean runs over frame pairs (n, n+dn) for 1-based
// n = 1..L−dn−1. The upper bound is one short of the full pair count;
// this matches the historical analysis exactly and is kept verbatim so
// results stay numerically comparable with previously published numbers.
func MSDTau(t PhysicalTrajectory) MSDCurve {
	length := len(t.Points)
	maxLag := length / 3

	curve := make(MSDCurve, 0, maxLag+1)
	curve = append(curve, MSDPoint{
		LagIndex:     0,
		Timeshift:    0,
		MSD:          0,
		LogTimeshift: math.NaN(),
		LogMSD:       math.NaN(),
	})

	for dn := 1; dn <= maxLag; dn++ {
		// 1-based n = 1..L−dn−1 maps to 0-based pairs (i, i+dn)
		// for i = 0..L−dn−2.
		terms := length - dn - 1
		var sum float64
		for i := 0; i < terms; i++ {
			dx := t.Points[i+dn].X - t.Points[i].X
			dy := t.Points[i+dn].Y - t.Points[i].Y
			sum += dx*dx + dy*dy
		}
		msd := sum / float64(terms)
		timeshift := float64(dn) * t.TimeResolution

		p := MSDPoint{
			LagIndex:     dn,
			Timeshift:    timeshift,
			MSD:          msd,
			LogTimeshift: math.Log(timeshift),
			LogMSD:       math.NaN(),
		}
		if msd > 0 {
			p.LogMSD = math.Log(msd)
		}
		curve = append(curve, p)
	}

	return curve
}
