// Package store persists analysis runs to a single-file SQLite database:
// one row per run with its configuration, one row per trajectory fit
// result (failed fits keep NULL parameters plus a reason), and one row
// per aggregation group.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/traject-data/diffusion.report/internal/pipeline"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id            TEXT PRIMARY KEY,
			data_dir          TEXT,
			config_json       TEXT,
			trajectory_count  BIGINT,
			skipped_empty     BIGINT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS trajectory_results (
			run_id            TEXT,
			source_id         TEXT,
			trajectory_id     BIGINT,
			condition         TEXT,
			length            BIGINT,
			mean_intensity    DOUBLE,
			d                 DOUBLE,
			alpha             DOUBLE,
			alt_d             DOUBLE,
			alt_d_degraded    INTEGER,
			loglog_error      TEXT,
			origin_error      TEXT,
			FOREIGN KEY(run_id) REFERENCES analysis_runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS group_stats (
			run_id            TEXT,
			condition         TEXT,
			intensity_bin     TEXT,
			trajectories      BIGINT,
			excluded_loglog   BIGINT,
			excluded_origin   BIGINT,
			d_n               BIGINT,
			d_mean            DOUBLE,
			d_sd              DOUBLE,
			d_sem             DOUBLE,
			alt_d_n           BIGINT,
			alt_d_mean        DOUBLE,
			alt_d_sd          DOUBLE,
			alt_d_sem         DOUBLE,
			alpha_n           BIGINT,
			alpha_mean        DOUBLE,
			alpha_sd          DOUBLE,
			alpha_sem         DOUBLE,
			FOREIGN KEY(run_id) REFERENCES analysis_runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run summarises one persisted analysis run.
type Run struct {
	RunID           string
	DataDir         string
	ConfigJSON      string
	TrajectoryCount int
	SkippedEmpty    int
	CreatedAt       time.Time
}

// RecordRun persists a complete report under a fresh run id and returns
// the id. Undefined parameters (NaN) are stored as NULL, never as zero.
func (s *Store) RecordRun(report pipeline.Report, configJSON, dataDir string) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO analysis_runs (run_id, data_dir, config_json, trajectory_count, skipped_empty)
		VALUES (?, ?, ?, ?, ?)`,
		runID, dataDir, configJSON, len(report.Results), report.SkippedEmpty)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range report.Results {
		var logLogErr, originErr sql.NullString
		if r.Fit.LogLogErr != nil {
			logLogErr = sql.NullString{String: r.Fit.LogLogErr.Error(), Valid: true}
		}
		if r.Fit.OriginErr != nil {
			originErr = sql.NullString{String: r.Fit.OriginErr.Error(), Valid: true}
		}

		_, err = tx.Exec(`
			INSERT INTO trajectory_results
				(run_id, source_id, trajectory_id, condition, length, mean_intensity,
				 d, alpha, alt_d, alt_d_degraded, loglog_error, origin_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.ID, r.TrajectoryID, r.Condition,
			r.Trajectory.Length(), r.Trajectory.MeanIntensity,
			nullable(r.Fit.D), nullable(r.Fit.Alpha), nullable(r.Fit.AltD),
			r.Fit.AltDDegraded, logLogErr, originErr)
		if err != nil {
			return "", fmt.Errorf("failed to insert trajectory result: %w", err)
		}
	}

	for _, g := range report.Groups {
		_, err = tx.Exec(`
			INSERT INTO group_stats
				(run_id, condition, intensity_bin, trajectories, excluded_loglog, excluded_origin,
				 d_n, d_mean, d_sd, d_sem,
				 alt_d_n, alt_d_mean, alt_d_sd, alt_d_sem,
				 alpha_n, alpha_mean, alpha_sd, alpha_sem)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, g.Key.Condition, g.Key.IntensityBin,
			g.Trajectories, g.ExcludedLogLog, g.ExcludedOrigin,
			g.D.N, nullable(g.D.Mean), nullable(g.D.SD), nullable(g.D.SEM),
			g.AltD.N, nullable(g.AltD.Mean), nullable(g.AltD.SD), nullable(g.AltD.SEM),
			g.Alpha.N, nullable(g.Alpha.Mean), nullable(g.Alpha.SD), nullable(g.Alpha.SEM))
		if err != nil {
			return "", fmt.Errorf("failed to insert group stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns all persisted runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, data_dir, config_json, trajectory_count, skipped_empty, created_at
		FROM analysis_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.DataDir, &r.ConfigJSON,
			&r.TrajectoryCount, &r.SkippedEmpty, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// nullable maps NaN to NULL so undefined values stay marked undefined.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
