// Package pipeline runs the per-trajectory analysis chain (unit
// extraction, ensemble MSD, time-averaged MSD, diffusion parameter fits)
// across a batch of trajectories, then aggregates the fit results by
// experimental condition.
//
// Every trajectory is independent of every other, so the stages run in a
// worker pool with no shared mutable state beyond the read-only scale
// configuration. Aggregation waits for all workers (it needs the full
// result set for intensity binning and group statistics) and is
// insensitive to the order workers finished in.
package pipeline

import (
	"runtime"
	"sort"
	"sync"

	"github.com/traject-data/diffusion.report/internal/aggregate"
	"github.com/traject-data/diffusion.report/internal/fit"
	"github.com/traject-data/diffusion.report/internal/monitoring"
	"github.com/traject-data/diffusion.report/internal/track"
)

// Config holds the batch-wide analysis settings.
type Config struct {
	Scale track.Scale

	// Workers sets the worker-pool size; 0 means one worker per CPU.
	Workers int

	// ByIntensity additionally splits each condition group by intensity
	// bin, with cut points derived from the whole dataset.
	ByIntensity bool
}

// TrajectoryResult carries everything derived from one trajectory. Err is
// non-nil only for extraction failures (empty input); fit failures are
// recorded inside Fit and leave the earlier stages valid.
type TrajectoryResult struct {
	ID           string
	TrajectoryID int
	Condition    string

	Trajectory  track.PhysicalTrajectory
	EnsembleMSD []float64
	Curve       track.MSDCurve
	Fit         fit.Result

	Err error
}

// Report is the output of one batch run.
type Report struct {
	// Results holds one entry per non-empty input trajectory, sorted by
	// (ID, TrajectoryID) regardless of processing order.
	Results []TrajectoryResult

	// Groups holds the per-condition (or condition × intensity bin)
	// aggregate statistics.
	Groups []aggregate.GroupStats

	// SkippedEmpty counts inputs rejected for having no frames.
	SkippedEmpty int
}

// Run analyses all trajectories with a worker pool and aggregates the
// results. The returned report is deterministic for a given input set:
// results are ordered by identity and group statistics are invariant to
// processing order.
func Run(trajectories []track.Trajectory, cfg Config) Report {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(trajectories) && len(trajectories) > 0 {
		workers = len(trajectories)
	}

	results := make([]TrajectoryResult, len(trajectories))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = analyse(trajectories[i], cfg.Scale)
			}
		}()
	}
	for i := range trajectories {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := Report{}
	for _, r := range results {
		if r.Err != nil {
			report.SkippedEmpty++
			monitoring.Logf("skipping trajectory %s/%d: %v", r.ID, r.TrajectoryID, r.Err)
			continue
		}
		report.Results = append(report.Results, r)
	}

	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.TrajectoryID < b.TrajectoryID
	})

	report.Groups = aggregate.Aggregate(samples(report.Results, cfg.ByIntensity))
	return report
}

// analyse runs the full per-trajectory chain.
func analyse(raw track.Trajectory, scale track.Scale) TrajectoryResult {
	r := TrajectoryResult{
		ID:           raw.ID,
		TrajectoryID: raw.TrajectoryID,
		Condition:    raw.Condition,
	}

	phys, err := track.Extract(raw, scale)
	if err != nil {
		r.Err = err
		return r
	}

	r.Trajectory = phys
	r.EnsembleMSD = track.EnsembleMSD(phys)
	r.Curve = track.MSDTau(phys)
	r.Fit = fit.Estimate(r.Curve)
	return r
}

// samples builds the aggregation input, assigning intensity bins in a
// second pass over the complete result set when requested.
func samples(results []TrajectoryResult, byIntensity bool) []aggregate.Sample {
	var cuts aggregate.IntensityCuts
	if byIntensity {
		intensities := make([]float64, len(results))
		for i, r := range results {
			intensities[i] = r.Trajectory.MeanIntensity
		}
		cuts = aggregate.ComputeIntensityCuts(intensities)
	}

	out := make([]aggregate.Sample, len(results))
	for i, r := range results {
		key := aggregate.Key{Condition: r.Condition}
		if byIntensity {
			key.IntensityBin = aggregate.ClassifyIntensity(r.Trajectory.MeanIntensity, cuts)
		}
		out[i] = aggregate.Sample{Key: key, Fit: r.Fit}
	}
	return out
}
