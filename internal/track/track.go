// Package track holds the core trajectory types and the per-trajectory
// MSD computations. A Trajectory is the raw per-frame record set for one
// tracked particle; Extract converts it into a PhysicalTrajectory with
// positions in length units and frame indices mapped to elapsed time.
package track

import "errors"

// ErrEmptyTrajectory is returned when a trajectory has no frames.
var ErrEmptyTrajectory = errors.New("empty trajectory")

// Frame is one raw detection of a particle: pixel coordinates and the
// raw detector intensity at a given frame index.
type Frame struct {
	Index     int     // frame index within the source movie
	X         float64 // pixels
	Y         float64 // pixels
	Intensity float64 // raw detector signal
}

// Trajectory is the ordered per-frame record set for one tracked particle
// within one condition and one source file. Frame order is significant:
// lag computations pair records by position in this slice, not by
// timestamp, so callers must supply frames in acquisition order.
type Trajectory struct {
	ID           string // source file identifier
	TrajectoryID int    // particle identifier within the source file
	Condition    string // experimental condition label
	Frames       []Frame
}

// Scale holds the fixed acquisition constants used to convert pixel/frame
// coordinates into physical units. Read-only once the pipeline starts.
type Scale struct {
	TimeResolution float64 // seconds per frame
	PixelSizeX     float64 // length units per pixel, X axis
	PixelSizeY     float64 // length units per pixel, Y axis
}

// Point is one sample of a PhysicalTrajectory: elapsed time in seconds
// and position in physical length units.
type Point struct {
	T float64
	X float64
	Y float64
}

// PhysicalTrajectory is a Trajectory converted to physical units, plus
// derived summary fields. Immutable once built.
type PhysicalTrajectory struct {
	ID             string
	TrajectoryID   int
	Condition      string
	TimeResolution float64 // seconds per frame, carried for lag timeshifts
	Points         []Point
	MeanIntensity  float64
}

// Length returns the number of frames in the trajectory.
func (t *PhysicalTrajectory) Length() int {
	return len(t.Points)
}

// Extract converts a raw Trajectory into a PhysicalTrajectory using the
// given scale, and computes the mean intensity over all frames.
// Frame ordering is preserved exactly as supplied; input that is not in
// acquisition order produces lag statistics governed by that order.
func Extract(raw Trajectory, scale Scale) (PhysicalTrajectory, error) {
	if len(raw.Frames) == 0 {
		return PhysicalTrajectory{}, ErrEmptyTrajectory
	}

	points := make([]Point, len(raw.Frames))
	var intensitySum float64
	for i, f := range raw.Frames {
		points[i] = Point{
			T: float64(f.Index) * scale.TimeResolution,
			X: f.X * scale.PixelSizeX,
			Y: f.Y * scale.PixelSizeY,
		}
		intensitySum += f.Intensity
	}

	return PhysicalTrajectory{
		ID:             raw.ID,
		TrajectoryID:   raw.TrajectoryID,
		Condition:      raw.Condition,
		TimeResolution: scale.TimeResolution,
		Points:         points,
		MeanIntensity:  intensitySum / float64(len(raw.Frames)),
	}, nil
}
