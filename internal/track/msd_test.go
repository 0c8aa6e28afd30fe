package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearTrajectory builds a trajectory moving one unit along X per frame.
func linearTrajectory(length int) PhysicalTrajectory {
	points := make([]Point, length)
	for i := range points {
		points[i] = Point{T: float64(i), X: float64(i), Y: 0}
	}
	return PhysicalTrajectory{TimeResolution: 1, Points: points}
}

// TestEnsembleMSD tests squared displacement from the origin point.
func TestEnsembleMSD(t *testing.T) {
	t.Parallel()

	t.Run("six frame linear walk", func(t *testing.T) {
		t.Parallel()
		got := EnsembleMSD(linearTrajectory(6))
		assert.Equal(t, []float64{0, 1, 4, 9, 16, 25}, got)
	})

	t.Run("first element is always zero", func(t *testing.T) {
		t.Parallel()
		traj := PhysicalTrajectory{Points: []Point{
			{X: -3.2, Y: 7.7}, {X: 0, Y: 0},
		}}
		got := EnsembleMSD(traj)
		assert.Equal(t, 0.0, got[0])
		assert.InDelta(t, 3.2*3.2+7.7*7.7, got[1], 1e-12)
	})

	t.Run("single frame trajectory", func(t *testing.T) {
		t.Parallel()
		traj := PhysicalTrajectory{Points: []Point{{X: 4, Y: 4}}}
		assert.Equal(t, []float64{0}, EnsembleMSD(traj))
	})
}

// TestMSDTau tests the time-averaged MSD curve, including the historical
// averaging bound that drops the last frame pair at every lag.
func TestMSDTau(t *testing.T) {
	t.Parallel()

	t.Run("row count is floor(L/3)+1", func(t *testing.T) {
		t.Parallel()
		for _, tc := range []struct {
			length int
			rows   int
		}{
			{length: 1, rows: 1},
			{length: 2, rows: 1},
			{length: 3, rows: 2},
			{length: 6, rows: 3},
			{length: 10, rows: 4},
			{length: 100, rows: 34},
		} {
			curve := MSDTau(linearTrajectory(tc.length))
			assert.Len(t, curve, tc.rows, "length %d", tc.length)
		}
	})

	t.Run("row zero is the synthetic lag-0 entry", func(t *testing.T) {
		t.Parallel()
		curve := MSDTau(linearTrajectory(6))
		require.NotEmpty(t, curve)

		assert.Equal(t, 0, curve[0].LagIndex)
		assert.Equal(t, 0.0, curve[0].Timeshift)
		assert.Equal(t, 0.0, curve[0].MSD)
		assert.True(t, math.IsNaN(curve[0].LogTimeshift))
		assert.True(t, math.IsNaN(curve[0].LogMSD))
	})

	t.Run("averaging bound matches the historical convention", func(t *testing.T) {
		t.Parallel()
		// Six frames at x = 0..5: lag 1 averages the four pairs
		// (1,2)..(4,5) in 1-based terms, one short of the five
		// available, giving exactly 1.
		curve := MSDTau(linearTrajectory(6))
		require.Len(t, curve, 3)

		assert.Equal(t, 1, curve[1].LagIndex)
		assert.Equal(t, 1.0, curve[1].Timeshift)
		assert.InDelta(t, 1.0, curve[1].MSD, 1e-12)

		// Lag 2: pairs are the three displacements of 2 units.
		assert.InDelta(t, 4.0, curve[2].MSD, 1e-12)
	})

	t.Run("log fields are natural logs of the row values", func(t *testing.T) {
		t.Parallel()
		traj := linearTrajectory(12)
		traj.TimeResolution = 0.05
		for i := range traj.Points {
			traj.Points[i].T = float64(i) * 0.05
		}

		curve := MSDTau(traj)
		for _, p := range curve[1:] {
			assert.InDelta(t, math.Log(p.Timeshift), p.LogTimeshift, 1e-12)
			require.Greater(t, p.MSD, 0.0)
			assert.InDelta(t, math.Log(p.MSD), p.LogMSD, 1e-12)
		}
	})

	t.Run("stationary trajectory has undefined log msd", func(t *testing.T) {
		t.Parallel()
		points := make([]Point, 9)
		for i := range points {
			points[i] = Point{T: float64(i), X: 2, Y: 2}
		}
		curve := MSDTau(PhysicalTrajectory{TimeResolution: 1, Points: points})

		require.Len(t, curve, 4)
		for _, p := range curve[1:] {
			assert.Equal(t, 0.0, p.MSD)
			assert.False(t, math.IsNaN(p.LogTimeshift))
			assert.True(t, math.IsNaN(p.LogMSD), "lag %d", p.LagIndex)
		}
	})

	t.Run("short trajectory yields only the lag-0 row", func(t *testing.T) {
		t.Parallel()
		curve := MSDTau(linearTrajectory(2))
		assert.Len(t, curve, 1)
	})
}
