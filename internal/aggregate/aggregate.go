// Package aggregate groups per-trajectory fit results by condition
// (optionally condition × intensity bin) and computes mean, sample
// standard deviation and standard error of the mean for each diffusion
// parameter independently.
package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/traject-data/diffusion.report/internal/fit"
)

// Key identifies one aggregation group. IntensityBin is empty when
// grouping by condition alone.
type Key struct {
	Condition    string
	IntensityBin string
}

// Sample is one trajectory's contribution to aggregation.
type Sample struct {
	Key Key
	Fit fit.Result
}

// Summary holds the aggregate statistics of one parameter within one
// group. SD and SEM are NaN (undefined) when fewer than two values
// contributed; they are never substituted with zero.
type Summary struct {
	N    int
	Mean float64
	SD   float64
	SEM  float64
}

// GroupStats is the aggregate report for one group. Excluded counts
// record trajectories whose corresponding fit failed; those trajectories
// do not contribute to the parameter summaries.
type GroupStats struct {
	Key          Key
	Trajectories int

	D     Summary
	AltD  Summary
	Alpha Summary

	ExcludedLogLog int
	ExcludedOrigin int
}

// Aggregate groups samples by key and summarises D, alt_D and alpha per
// group. Groups with no members are omitted. The result is sorted by
// condition then intensity bin, and the per-group value lists are sorted
// before summation so the output is invariant to the order trajectories
// were processed in.
func Aggregate(samples []Sample) []GroupStats {
	byKey := make(map[Key][]Sample)
	for _, s := range samples {
		byKey[s.Key] = append(byKey[s.Key], s)
	}

	keys := make([]Key, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Condition != keys[j].Condition {
			return keys[i].Condition < keys[j].Condition
		}
		return keys[i].IntensityBin < keys[j].IntensityBin
	})

	out := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		members := byKey[k]
		g := GroupStats{Key: k, Trajectories: len(members)}

		var ds, altDs, alphas []float64
		for _, s := range members {
			if s.Fit.LogLogErr != nil {
				g.ExcludedLogLog++
			} else {
				ds = append(ds, s.Fit.D)
				alphas = append(alphas, s.Fit.Alpha)
			}
			if s.Fit.OriginErr != nil {
				g.ExcludedOrigin++
			} else {
				altDs = append(altDs, s.Fit.AltD)
			}
		}

		g.D = summarize(ds)
		g.AltD = summarize(altDs)
		g.Alpha = summarize(alphas)
		out = append(out, g)
	}

	return out
}

// summarize computes N, mean, sample SD and SEM over vals. Values are
// sorted first so summation order (and therefore rounding) does not
// depend on processing order.
func summarize(vals []float64) Summary {
	s := Summary{
		N:    len(vals),
		Mean: math.NaN(),
		SD:   math.NaN(),
		SEM:  math.NaN(),
	}
	if len(vals) == 0 {
		return s
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) >= 2 {
		s.SD = stat.StdDev(sorted, nil)
		s.SEM = stat.StdErr(s.SD, float64(len(sorted)))
	}
	return s
}
