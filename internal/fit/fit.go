// Package fit derives per-trajectory diffusion parameters from a
// time-averaged MSD curve. Two independent regressions run on the same
// curve: a log-log fit giving the anomalous exponent alpha and the
// diffusion coefficient D (MSD = 4·D·t^alpha in 2D), and a
// through-origin linear fit over the first few lags giving an
// alternative coefficient alt_D.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/traject-data/diffusion.report/internal/track"
)

// Sentinel fit errors. A failure of one fit never blocks the other; both
// are recorded independently on the Result.
var (
	ErrTrajectoryTooShort = errors.New("trajectory too short to fit")
	ErrInsufficientData   = errors.New("insufficient data to fit")
	ErrDegenerateFit      = errors.New("degenerate fit")
)

// originLags is the number of leading curve rows (lag 0 included) used
// by the through-origin fit.
const originLags = 4

// LogPoint is one point of the log-log series used by the primary fit.
type LogPoint struct {
	LogTimeshift float64
	LogMSD       float64
}

// Result holds the fitted diffusion parameters for one trajectory.
// Parameters belonging to a failed fit are NaN and the corresponding
// error field is set; the other fit's values remain valid.
type Result struct {
	D     float64
	Alpha float64
	AltD  float64

	// AltDDegraded marks a through-origin fit computed from fewer than
	// the usual four leading rows. The value is reported but carries
	// reduced precision.
	AltDDegraded bool

	// LogLog is the series the primary fit regressed over.
	LogLog []LogPoint

	LogLogErr error
	OriginErr error
}

// Estimate runs both fits on the given MSD curve. The curve must include
// its lag-0 row; the log-log fit skips it, the through-origin fit uses it.
func Estimate(curve track.MSDCurve) Result {
	r := Result{
		D:     math.NaN(),
		Alpha: math.NaN(),
		AltD:  math.NaN(),
	}

	if len(curve) < 2 {
		r.LogLogErr = ErrTrajectoryTooShort
		r.OriginErr = ErrTrajectoryTooShort
		return r
	}

	r.D, r.Alpha, r.LogLog, r.LogLogErr = logLogFit(curve)
	r.AltD, r.AltDDegraded, r.OriginErr = originFit(curve)
	return r
}

// logLogFit regresses ln(msd) on ln(timeshift) over all lags ≥ 1 with
// defined log values. Slope is alpha; the intercept is ln(4D).
func logLogFit(curve track.MSDCurve) (d, alpha float64, pts []LogPoint, err error) {
	var xs, ys []float64
	for _, p := range curve[1:] {
		if math.IsNaN(p.LogTimeshift) || math.IsInf(p.LogTimeshift, 0) ||
			math.IsNaN(p.LogMSD) || math.IsInf(p.LogMSD, 0) {
			continue
		}
		xs = append(xs, p.LogTimeshift)
		ys = append(ys, p.LogMSD)
		pts = append(pts, LogPoint{LogTimeshift: p.LogTimeshift, LogMSD: p.LogMSD})
	}

	if len(xs) < 2 {
		return math.NaN(), math.NaN(), pts, fmt.Errorf("log-log fit: %w", ErrInsufficientData)
	}
	if stat.Variance(xs, nil) == 0 {
		return math.NaN(), math.NaN(), pts, fmt.Errorf("log-log fit: %w", ErrDegenerateFit)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return math.Exp(intercept) / 4, slope, pts, nil
}

// originFit regresses msd on 4×timeshift over the first originLags rows
// with the line forced through the origin; the slope is alt_D. A curve
// shorter than originLags rows is fitted anyway and flagged degraded.
func originFit(curve track.MSDCurve) (altD float64, degraded bool, err error) {
	n := originLags
	if len(curve) < n {
		n = len(curve)
		degraded = true
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	nonZero := false
	for i, p := range curve[:n] {
		xs[i] = 4 * p.Timeshift
		ys[i] = p.MSD
		if xs[i] != 0 {
			nonZero = true
		}
	}

	if !nonZero {
		return math.NaN(), degraded, fmt.Errorf("through-origin fit: %w", ErrDegenerateFit)
	}

	_, slope := stat.LinearRegression(xs, ys, nil, true)
	return slope, degraded, nil
}
