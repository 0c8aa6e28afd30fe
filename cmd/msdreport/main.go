// Command msdreport analyses a directory of 2D particle-tracking CSV
// exports: per-trajectory MSD statistics and diffusion parameters, then
// per-condition aggregate statistics printed as a summary table and
// optionally recorded to a SQLite results database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/traject-data/diffusion.report/internal/aggregate"
	"github.com/traject-data/diffusion.report/internal/config"
	"github.com/traject-data/diffusion.report/internal/pipeline"
	"github.com/traject-data/diffusion.report/internal/store"
	"github.com/traject-data/diffusion.report/internal/track"
	"github.com/traject-data/diffusion.report/internal/trackio"
	"github.com/traject-data/diffusion.report/internal/units"
)

var (
	dataDir     = flag.String("data", "", "Directory of trajectory CSV files (condition = subdirectory or file stem)")
	configPath  = flag.String("config", "", "Path to analysis config JSON (optional)")
	dbPath      = flag.String("db", "", "SQLite results database path (optional; runs are recorded when set)")
	workers     = flag.Int("workers", 0, "Worker count (0 = one per CPU)")
	byIntensity = flag.Bool("by-intensity", false, "Split condition groups by intensity bin")
	outputUnits = flag.String("units", units.UM2S, "Diffusion coefficient display units: "+units.GetValidUnitsString())
)

func main() {
	flag.Parse()

	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "msdreport: -data is required")
		flag.Usage()
		os.Exit(2)
	}
	if !units.IsValid(*outputUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *outputUnits, units.GetValidUnitsString())
	}

	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		loaded, err := config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	trajectories, dropped, err := trackio.ScanDir(*dataDir, cfg.GetMinTrajectoryLength())
	if err != nil {
		log.Fatalf("failed to load trajectories: %v", err)
	}
	if len(trajectories) == 0 {
		log.Fatalf("no trajectories found under %s", *dataDir)
	}
	log.Printf("loaded %d trajectories (%d below min length %d)",
		len(trajectories), dropped, cfg.GetMinTrajectoryLength())

	pipelineCfg := pipeline.Config{
		Scale: track.Scale{
			TimeResolution: cfg.GetTimeResolution(),
			PixelSizeX:     cfg.GetPixelSizeX(),
			PixelSizeY:     cfg.GetPixelSizeY(),
		},
		Workers:     *workers,
		ByIntensity: *byIntensity || cfg.GetByIntensity(),
	}

	report := pipeline.Run(trajectories, pipelineCfg)
	printSummary(report, *outputUnits)

	if *dbPath != "" {
		configJSON, err := json.Marshal(cfg)
		if err != nil {
			log.Fatalf("failed to marshal config: %v", err)
		}
		s, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open results database: %v", err)
		}
		defer s.Close()

		runID, err := s.RecordRun(report, string(configJSON), *dataDir)
		if err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		log.Printf("recorded run %s in %s", runID, *dbPath)
	}
}

func printSummary(report pipeline.Report, displayUnits string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "condition\tbin\tn\tD mean\tD sem\talt_D mean\talt_D sem\talpha mean\talpha sem\texcluded")
	for _, g := range report.Groups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			g.Key.Condition, binLabel(g.Key), g.Trajectories,
			formatDiffusion(g.D.Mean, displayUnits), formatDiffusion(g.D.SEM, displayUnits),
			formatDiffusion(g.AltD.Mean, displayUnits), formatDiffusion(g.AltD.SEM, displayUnits),
			formatValue(g.Alpha.Mean), formatValue(g.Alpha.SEM),
			g.ExcludedLogLog, g.ExcludedOrigin)
	}
	w.Flush()

	if report.SkippedEmpty > 0 {
		log.Printf("skipped %d empty trajectories", report.SkippedEmpty)
	}
}

func binLabel(k aggregate.Key) string {
	if k.IntensityBin == "" {
		return "-"
	}
	return k.IntensityBin
}

func formatDiffusion(v float64, displayUnits string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", units.ConvertDiffusion(v, displayUnits))
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}
