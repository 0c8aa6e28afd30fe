// Package trackio loads raw trajectory records from tracking-software
// CSV exports. It is the caller-side glue in front of the analysis core:
// it owns directory scanning, text parsing and the minimum-length filter,
// and hands ordered per-trajectory frame sets to the pipeline.
package trackio

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/traject-data/diffusion.report/internal/monitoring"
	"github.com/traject-data/diffusion.report/internal/track"
)

// Column names recognised in the CSV header (case-insensitive). The
// trajectory, frame, x and y columns are required; intensity defaults to
// zero when absent.
const (
	colTrajectory = "trajectory"
	colFrame      = "frame"
	colX          = "x"
	colY          = "y"
	colIntensity  = "intensity"
)

// ReadFrames parses one CSV export into trajectories grouped by the
// trajectory column. Record order within each trajectory is preserved
// exactly as read; the frames are not re-sorted, matching the lag
// convention of the analysis core.
func ReadFrames(r io.Reader, id, condition string) ([]track.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", id, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTrajectory, colFrame, colX, colY} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", id, required)
		}
	}

	byTrajectory := make(map[int][]track.Frame)
	var order []int // trajectory ids in first-seen order

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read record: %w", id, err)
		}
		line++

		trajID, err := strconv.Atoi(strings.TrimSpace(record[cols[colTrajectory]]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad trajectory id: %w", id, line, err)
		}
		frame, err := parseFrame(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", id, line, err)
		}

		if _, seen := byTrajectory[trajID]; !seen {
			order = append(order, trajID)
		}
		byTrajectory[trajID] = append(byTrajectory[trajID], frame)
	}

	out := make([]track.Trajectory, 0, len(order))
	for _, trajID := range order {
		out = append(out, track.Trajectory{
			ID:           id,
			TrajectoryID: trajID,
			Condition:    condition,
			Frames:       byTrajectory[trajID],
		})
	}
	return out, nil
}

func parseFrame(record []string, cols map[string]int) (track.Frame, error) {
	var f track.Frame
	var err error

	if f.Index, err = strconv.Atoi(strings.TrimSpace(record[cols[colFrame]])); err != nil {
		return f, fmt.Errorf("bad frame index: %w", err)
	}
	if f.X, err = strconv.ParseFloat(strings.TrimSpace(record[cols[colX]]), 64); err != nil {
		return f, fmt.Errorf("bad x: %w", err)
	}
	if f.Y, err = strconv.ParseFloat(strings.TrimSpace(record[cols[colY]]), 64); err != nil {
		return f, fmt.Errorf("bad y: %w", err)
	}
	if i, ok := cols[colIntensity]; ok {
		if f.Intensity, err = strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err != nil {
			return f, fmt.Errorf("bad intensity: %w", err)
		}
	}
	return f, nil
}

// ScanDir walks a data directory and loads every .csv file. The
// condition label for a file is its immediate parent directory name, or
// the file stem for files directly under dir. Trajectories shorter than
// minLength are dropped; the count of dropped trajectories is returned.
func ScanDir(dir string, minLength int) ([]track.Trajectory, int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)

	var all []track.Trajectory
	dropped := 0
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
		}

		id := filepath.Base(path)
		condition := conditionLabel(dir, path)
		trajs, err := ReadFrames(f, id, condition)
		f.Close()
		if err != nil {
			return nil, 0, err
		}

		kept := 0
		for _, t := range trajs {
			if len(t.Frames) < minLength {
				dropped++
				continue
			}
			all = append(all, t)
			kept++
		}
		monitoring.Logf("loaded %s: %d trajectories (%d below min length)", id, kept, len(trajs)-kept)
	}

	return all, dropped, nil
}

// conditionLabel derives the condition for a file: the parent directory
// name when the file sits in a subdirectory of root, otherwise the file
// name without extension.
func conditionLabel(root, path string) string {
	parent := filepath.Dir(path)
	if filepath.Clean(parent) != filepath.Clean(root) {
		return filepath.Base(parent)
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
