// Command fluence-report manages the irradiation database and turns recorded
// raster-scan sessions into calibrated fluence maps and report files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beamline-data/fluence.report/internal/config"
	"github.com/beamline-data/fluence.report/internal/db"
	"github.com/beamline-data/fluence.report/internal/fluence"
	storage "github.com/beamline-data/fluence.report/internal/fluence/storage/sqlite"
	"github.com/beamline-data/fluence.report/internal/fsutil"
	"github.com/beamline-data/fluence.report/internal/report"
	"github.com/beamline-data/fluence.report/internal/version"
)

var (
	dbPath     = flag.String("db", "", "path to the irradiation database (default: config db_path, else irrad_data.db)")
	configPath = flag.String("config", "", "path to an analysis config JSON (built-in defaults apply when omitted)")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "migrate":
		db.RunMigrateCommand(args, databasePath(loadConfig()))
	case "sessions":
		handleSessions(args)
	case "reconstruct":
		handleReconstruct(args)
	case "extract":
		handleExtract(args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`fluence-report - Fluence reconstruction for raster-scan irradiation sessions

Usage: fluence-report [flags] <command> [options]

Commands:
  migrate      Manage the database schema (up, down, status, version, force)
  sessions     List recorded sessions, or runs of one session
  reconstruct  Build the fluence map for a session and write reports
  extract      Report fluence statistics for a region of a stored map
  version      Show build version
  help         Show this help message

Flags:
  --db <file>      Path to the irradiation database (default: the config
                   file's db_path, else irrad_data.db)
  --config <file>  Analysis config JSON; fields omitted there fall back to
                   built-in defaults

Examples:
  # Create the schema in a fresh database
  fluence-report --db run42.db migrate up

  # Reconstruct a session onto the default 100x100 grid
  fluence-report --db run42.db reconstruct --session 8d2c...

  # Fluence statistics over the device under test
  fluence-report --db run42.db extract --run f31a... --dut`)
}

// loadConfig resolves the analysis configuration: an explicit --config file
// must load, the default path is used when present, and otherwise every
// setting falls back to its built-in default.
func loadConfig() *config.AnalysisConfig {
	path := *configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.EmptyAnalysisConfig()
		}
		path = config.DefaultConfigPath
	}

	cfg, err := config.LoadAnalysisConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", path, err)
	}
	return cfg
}

// databasePath resolves the database location: the --db flag wins, then the
// config file's db_path, then the built-in default.
func databasePath(cfg *config.AnalysisConfig) string {
	if *dbPath != "" {
		return *dbPath
	}
	return cfg.GetDBPath()
}

func openDatabase(path string) *db.DB {
	database, err := db.Open(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return database
}

func handleSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	runsFor := fs.String("runs", "", "list reconstruction runs of this session instead")
	fs.Parse(args)

	database := openDatabase(databasePath(loadConfig()))
	defer database.Close()

	if *runsFor != "" {
		runs, err := storage.NewRunStore(database.DB).ListBySession(*runsFor)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded for this session")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %dx%d bins  peak %.4g  mean %.4g  %s\n",
				r.RunID, r.BinsX, r.BinsY, r.PeakFluence, r.MeanFluence,
				time.Unix(0, r.CreatedAtNs).Format(time.RFC3339))
		}
		return
	}

	sessions, err := storage.NewSessionStore(database.DB).List()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-24s  %gx%g mm  %s\n",
			s.SessionID, s.Name, s.Geometry.Area.Width(), s.Geometry.Area.Height(),
			time.Unix(0, s.CreatedAtNs).Format(time.RFC3339))
	}
}

func handleReconstruct(args []string) {
	fs := flag.NewFlagSet("reconstruct", flag.ExitOnError)
	sessionID := fs.String("session", "", "session ID to reconstruct (required)")
	binsX := fs.Int("bins-x", 0, "horizontal bin count (overrides config)")
	binsY := fs.Int("bins-y", 0, "vertical bin count (overrides config)")
	truncation := fs.Float64("truncation", 0, "kernel truncation radius in beam sigmas (overrides config)")
	outDir := fs.String("out", "", "report output directory (overrides config)")
	fs.Parse(args)

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "Error: --session flag is required. List recorded sessions with 'fluence-report sessions'")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	if *binsX == 0 {
		*binsX = cfg.GetBinsX()
	}
	if *binsY == 0 {
		*binsY = cfg.GetBinsY()
	}
	if *truncation == 0 {
		*truncation = cfg.GetTruncationSigmas()
	}
	if *outDir == "" {
		*outDir = cfg.GetOutputDir()
	}

	database := openDatabase(databasePath(cfg))
	defer database.Close()

	sessions := storage.NewSessionStore(database.DB)
	session, err := sessions.Get(*sessionID)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	samples, err := sessions.BeamSamples(*sessionID)
	if err != nil {
		log.Fatalf("Failed to load beam samples: %v", err)
	}
	rows, err := sessions.ScanRows(*sessionID)
	if err != nil {
		log.Fatalf("Failed to load scan rows: %v", err)
	}

	every := cfg.GetProgressEveryRows()
	rec, err := fluence.NewReconstructor(session.Geometry,
		fluence.WithBins(*binsX, *binsY),
		fluence.WithTruncation(*truncation),
		fluence.WithProgress(func(done, total int) {
			if done%every == 0 || done == total {
				log.Printf("Processed %d/%d rows", done, total)
			}
		}),
	)
	if err != nil {
		log.Fatalf("Invalid reconstruction parameters: %v", err)
	}

	m, err := rec.Reconstruct(samples, rows)
	if err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}

	runs := storage.NewRunStore(database.DB)
	_, _, peak := m.Peak()
	run := &storage.Run{
		SessionID:        *sessionID,
		BinsX:            *binsX,
		BinsY:            *binsY,
		TruncationSigmas: *truncation,
		PeakFluence:      peak,
		MeanFluence:      m.Mean(),
	}
	if err := runs.Insert(run); err != nil {
		log.Fatalf("Failed to store run: %v", err)
	}
	if err := runs.SaveMap(run.RunID, m); err != nil {
		log.Fatalf("Failed to store fluence map: %v", err)
	}
	log.Printf("✓ Stored run %s (peak %.4g, mean %.4g ions/cm²)", run.RunID, run.PeakFluence, run.MeanFluence)

	writer := report.NewWriter(fsutil.OSFileSystem{})
	base := filepath.Join(*outDir, run.RunID)
	if cfg.GetWritePNG() {
		if err := writer.WritePNG(base+".png", m); err != nil {
			log.Fatalf("Failed to write PNG report: %v", err)
		}
		log.Printf("✓ Wrote %s.png", base)
	}
	if cfg.GetWriteHTML() {
		if err := writer.WriteHTML(base+".html", session.Name, m); err != nil {
			log.Fatalf("Failed to write HTML report: %v", err)
		}
		log.Printf("✓ Wrote %s.html", base)
	}
	if cfg.GetWriteCSV() {
		if err := writer.WriteCSV(base+".csv", m); err != nil {
			log.Fatalf("Failed to write CSV report: %v", err)
		}
		log.Printf("✓ Wrote %s.csv", base)
	}
}

func handleExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	runID := fs.String("run", "", "run ID holding the stored map (required)")
	rectStr := fs.String("rect", "", "explicit region min-x,min-y,max-x,max-y in map-frame mm")
	sizeStr := fs.String("size", "", "centered region width,height in mm")
	useDUT := fs.Bool("dut", false, "use the DUT rectangle recorded with the session")
	fs.Parse(args)

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run flag is required. List runs with 'fluence-report sessions --runs <session>'")
		fs.Usage()
		os.Exit(1)
	}
	modes := 0
	for _, set := range []bool{*rectStr != "", *sizeStr != "", *useDUT} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --rect, --size or --dut is required")
		fs.Usage()
		os.Exit(1)
	}

	database := openDatabase(databasePath(loadConfig()))
	defer database.Close()

	runs := storage.NewRunStore(database.DB)
	run, err := runs.Get(*runID)
	if err != nil {
		log.Fatalf("Failed to load run: %v", err)
	}
	m, err := runs.LoadMap(*runID)
	if err != nil {
		log.Fatalf("Failed to load fluence map: %v", err)
	}

	var req fluence.RegionRequest
	switch {
	case *useDUT:
		session, err := storage.NewSessionStore(database.DB).Get(run.SessionID)
		if err != nil {
			log.Fatalf("Failed to load session: %v", err)
		}
		if session.Geometry.DUTRect == nil {
			log.Fatalf("Session %s has no DUT rectangle recorded", run.SessionID)
		}
		req.Geometry = &session.Geometry
	case *rectStr != "":
		vals, err := parseFloats(*rectStr, 4)
		if err != nil {
			log.Fatalf("Invalid --rect: %v", err)
		}
		req.Rect = vals
	default:
		vals, err := parseFloats(*sizeStr, 2)
		if err != nil {
			log.Fatalf("Invalid --size: %v", err)
		}
		req.Rect = vals
	}

	region, err := fluence.Extract(m, req)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	rows, cols := region.Values.Dims()
	fmt.Printf("Region x [%g, %g] mm, y [%g, %g] mm (%dx%d bins)\n",
		region.Rect.MinX, region.Rect.MaxX, region.Rect.MinY, region.Rect.MaxY, cols, rows)
	fmt.Printf("  mean %.6g ions/cm²\n", region.Stats.Mean)
	fmt.Printf("  min  %.6g ions/cm²\n", region.Stats.Min)
	fmt.Printf("  max  %.6g ions/cm²\n", region.Stats.Max)
	fmt.Printf("  std  %.6g ions/cm²\n", region.Stats.Std)
}

func parseFloats(s string, want int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", want, len(parts))
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %v", p, err)
		}
		out[i] = v
	}
	return out, nil
}
