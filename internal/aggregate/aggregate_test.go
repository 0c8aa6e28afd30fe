package aggregate

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traject-data/diffusion.report/internal/fit"
)

func okSample(condition string, d, altD, alpha float64) Sample {
	return Sample{
		Key: Key{Condition: condition},
		Fit: fit.Result{D: d, AltD: altD, Alpha: alpha},
	}
}

// TestAggregate tests grouping and the per-parameter summaries.
func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("computes mean sd and sem per parameter", func(t *testing.T) {
		t.Parallel()
		groups := Aggregate([]Sample{
			okSample("control", 1, 10, 0.9),
			okSample("control", 2, 20, 1.0),
			okSample("control", 3, 30, 1.1),
		})
		require.Len(t, groups, 1)

		g := groups[0]
		assert.Equal(t, Key{Condition: "control"}, g.Key)
		assert.Equal(t, 3, g.Trajectories)

		assert.Equal(t, 3, g.D.N)
		assert.InDelta(t, 2.0, g.D.Mean, 1e-12)
		assert.InDelta(t, 1.0, g.D.SD, 1e-12)
		assert.InDelta(t, 1.0/math.Sqrt(3), g.D.SEM, 1e-12)

		assert.InDelta(t, 20.0, g.AltD.Mean, 1e-12)
		assert.InDelta(t, 1.0, g.Alpha.Mean, 1e-12)
	})

	t.Run("single member group has undefined sd and sem", func(t *testing.T) {
		t.Parallel()
		groups := Aggregate([]Sample{okSample("treated", 0.5, 0.6, 1.2)})
		require.Len(t, groups, 1)

		g := groups[0]
		assert.Equal(t, 1, g.D.N)
		assert.InDelta(t, 0.5, g.D.Mean, 1e-12)
		assert.True(t, math.IsNaN(g.D.SD), "SD must be undefined, not zero")
		assert.True(t, math.IsNaN(g.D.SEM), "SEM must be undefined, not zero")
	})

	t.Run("no samples yields no groups", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Aggregate(nil))
	})

	t.Run("failed fits are excluded and counted per fit kind", func(t *testing.T) {
		t.Parallel()
		failedLogLog := okSample("control", math.NaN(), 5, math.NaN())
		failedLogLog.Fit.LogLogErr = fit.ErrDegenerateFit

		failedBoth := Sample{Key: Key{Condition: "control"}, Fit: fit.Result{
			D: math.NaN(), AltD: math.NaN(), Alpha: math.NaN(),
			LogLogErr: fit.ErrTrajectoryTooShort,
			OriginErr: fit.ErrTrajectoryTooShort,
		}}

		groups := Aggregate([]Sample{
			okSample("control", 2, 4, 1),
			failedLogLog,
			failedBoth,
		})
		require.Len(t, groups, 1)

		g := groups[0]
		assert.Equal(t, 3, g.Trajectories)
		assert.Equal(t, 2, g.ExcludedLogLog)
		assert.Equal(t, 1, g.ExcludedOrigin)
		assert.Equal(t, 1, g.D.N)
		assert.Equal(t, 2, g.AltD.N)
		assert.InDelta(t, 4.5, g.AltD.Mean, 1e-12)
	})

	t.Run("groups are sorted by condition then bin", func(t *testing.T) {
		t.Parallel()
		groups := Aggregate([]Sample{
			{Key: Key{Condition: "b", IntensityBin: BinMid}},
			{Key: Key{Condition: "a", IntensityBin: BinDim}},
			{Key: Key{Condition: "b", IntensityBin: BinBright}},
		})
		require.Len(t, groups, 3)
		assert.Equal(t, Key{Condition: "a", IntensityBin: BinDim}, groups[0].Key)
		assert.Equal(t, Key{Condition: "b", IntensityBin: BinBright}, groups[1].Key)
		assert.Equal(t, Key{Condition: "b", IntensityBin: BinMid}, groups[2].Key)
	})

	t.Run("result is invariant to sample order", func(t *testing.T) {
		t.Parallel()
		rng := rand.New(rand.NewSource(42))
		samples := make([]Sample, 0, 60)
		for i := 0; i < 60; i++ {
			samples = append(samples, okSample(
				fmt.Sprintf("cond%d", i%3),
				rng.Float64(), rng.Float64(), 0.5+rng.Float64()))
		}

		want := Aggregate(samples)
		for trial := 0; trial < 5; trial++ {
			shuffled := make([]Sample, len(samples))
			copy(shuffled, samples)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			got := Aggregate(shuffled)
			if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
				t.Fatalf("aggregation depends on sample order (-want +got):\n%s", diff)
			}
		}
	})
}
