package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtract tests conversion of raw trajectories into physical units.
func TestExtract(t *testing.T) {
	t.Parallel()

	scale := Scale{TimeResolution: 0.5, PixelSizeX: 2, PixelSizeY: 3}

	t.Run("converts pixels and frames to physical units", func(t *testing.T) {
		t.Parallel()
		raw := Trajectory{
			ID:           "movie01.csv",
			TrajectoryID: 7,
			Condition:    "control",
			Frames: []Frame{
				{Index: 0, X: 1, Y: 1, Intensity: 100},
				{Index: 1, X: 2, Y: 4, Intensity: 200},
			},
		}

		phys, err := Extract(raw, scale)
		require.NoError(t, err)

		assert.Equal(t, "movie01.csv", phys.ID)
		assert.Equal(t, 7, phys.TrajectoryID)
		assert.Equal(t, "control", phys.Condition)
		assert.Equal(t, 2, phys.Length())

		assert.Equal(t, Point{T: 0, X: 2, Y: 3}, phys.Points[0])
		assert.Equal(t, Point{T: 0.5, X: 4, Y: 12}, phys.Points[1])
		assert.InDelta(t, 150.0, phys.MeanIntensity, 1e-12)
	})

	t.Run("rejects empty trajectory", func(t *testing.T) {
		t.Parallel()
		_, err := Extract(Trajectory{ID: "empty"}, scale)
		assert.ErrorIs(t, err, ErrEmptyTrajectory)
	})

	t.Run("preserves input order without sorting", func(t *testing.T) {
		t.Parallel()
		// Frames deliberately out of index order; the extractor must
		// not resort them.
		raw := Trajectory{Frames: []Frame{
			{Index: 2, X: 9, Y: 0},
			{Index: 0, X: 1, Y: 0},
			{Index: 1, X: 5, Y: 0},
		}}

		phys, err := Extract(raw, scale)
		require.NoError(t, err)
		assert.Equal(t, 9.0*scale.PixelSizeX, phys.Points[0].X)
		assert.Equal(t, 1.0*scale.PixelSizeX, phys.Points[1].X)
		assert.Equal(t, 5.0*scale.PixelSizeX, phys.Points[2].X)
	})
}
