// Command gen-scanlog seeds an irradiation database with a synthetic
// raster-scan session: a snake scan with trapezoidal row kinematics and a
// noisy beam current log. Useful for demos and for exercising the
// reconstruction pipeline without facility data.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/beamline-data/fluence.report/internal/db"
	"github.com/beamline-data/fluence.report/internal/fluence"
	storage "github.com/beamline-data/fluence.report/internal/fluence/storage/sqlite"
)

var (
	dbPath    = flag.String("db", "irrad_data.db", "path to the irradiation database")
	name      = flag.String("name", "synthetic session", "session name")
	startX    = flag.Float64("start-x", 120, "scan area origin x in the stage frame (mm)")
	startY    = flag.Float64("start-y", 80, "scan area origin y in the stage frame (mm)")
	width     = flag.Float64("width", 20, "scan area width (mm)")
	height    = flag.Float64("height", 20, "scan area height (mm)")
	fwhmX     = flag.Float64("fwhm-x", 2.2, "beam spot FWHM along x (mm)")
	fwhmY     = flag.Float64("fwhm-y", 2.0, "beam spot FWHM along y (mm)")
	scans     = flag.Int("scans", 2, "number of complete scans")
	rowsPer   = flag.Int("rows", 16, "rows per scan")
	speed     = flag.Float64("speed", 10, "row crossing speed (mm/s)")
	accel     = flag.Float64("accel", 200, "stage acceleration (mm/s^2)")
	current   = flag.Float64("current", 3.5, "mean beam current (nA)")
	noise     = flag.Float64("noise", 0.02, "relative sigma of the current noise")
	rate      = flag.Float64("rate", 100, "beam monitor sample rate (Hz)")
	dutMargin = flag.Float64("dut-margin", 2.5, "DUT rectangle inset from the scan area (mm, negative to omit)")
	seed      = flag.Int64("seed", 0, "RNG seed (0 seeds from the clock)")
)

// Instrumentation pads each recorded row window past the stage motion, and
// the stage needs settle time between rows and between scans.
const (
	rowPad    = 0.025 // s, each side of a crossing
	turnGap   = 0.6   // s, y step between rows
	rescanGap = 2.5   // s, return to origin between scans
)

func main() {
	flag.Parse()

	if *scans < 1 || *rowsPer < 2 {
		log.Fatalf("need at least 1 scan of 2 rows, got %d scan(s) of %d row(s)", *scans, *rowsPer)
	}
	if *width <= 0 || *height <= 0 {
		log.Fatalf("scan area %gx%g mm must be positive", *width, *height)
	}
	if *speed <= 0 || *accel <= 0 || *rate <= 0 {
		log.Fatalf("speed, accel and rate must be positive")
	}
	rampDist := *speed * *speed / (2 * *accel)
	if 2*rampDist > *width {
		log.Fatalf("stage cannot reach %g mm/s inside a %g mm row (needs %g mm to ramp); lower --speed or raise --accel",
			*speed, *width, 2*rampDist)
	}
	if *dutMargin >= 0 && 2**dutMargin >= min(*width, *height) {
		log.Fatalf("DUT margin %g mm leaves no rectangle inside a %gx%g mm area", *dutMargin, *width, *height)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	area := fluence.ScanArea{
		StartX: *startX,
		StartY: *startY,
		StopX:  *startX + *width,
		StopY:  *startY + *height,
	}
	geometry := fluence.SessionGeometry{
		Area:        area,
		BeamFWHMX:   *fwhmX,
		BeamFWHMY:   *fwhmY,
		RowsPerScan: *rowsPer,
	}
	if *dutMargin >= 0 {
		geometry.DUTRect = &fluence.Rect{
			MinX: area.StartX + *dutMargin,
			MinY: area.StartY + *dutMargin,
			MaxX: area.StopX - *dutMargin,
			MaxY: area.StopY - *dutMargin,
		}
	}

	rows, samples := synthesize(rng, area)

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	migrations, err := db.Migrations()
	if err != nil {
		log.Fatalf("Failed to load migrations: %v", err)
	}
	if err := database.MigrateUp(migrations); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	session := &storage.Session{Name: *name, Geometry: geometry}
	store := storage.NewSessionStore(database.DB)
	if err := store.Insert(session); err != nil {
		log.Fatalf("Failed to insert session: %v", err)
	}
	if err := store.InsertScanRows(session.SessionID, rows); err != nil {
		log.Fatalf("Failed to insert scan rows: %v", err)
	}
	if err := store.InsertBeamSamples(session.SessionID, samples); err != nil {
		log.Fatalf("Failed to insert beam samples: %v", err)
	}

	elapsed := samples[len(samples)-1].Timestamp - samples[0].Timestamp
	log.Printf("✓ Session %s: %d rows, %d beam samples over %.1f s (seed %d)",
		session.SessionID, len(rows), len(samples), elapsed, *seed)
	fmt.Printf("\nReconstruct with:\n  fluence-report --db %s reconstruct --session %s\n", *dbPath, session.SessionID)
}

// synthesize walks the snake scan, emitting one RowRecord per crossing and a
// beam log covering the whole session with a one second pad on both ends.
func synthesize(rng *rand.Rand, area fluence.ScanArea) ([]fluence.RowRecord, []fluence.BeamSample) {
	v, a := *speed, *accel
	rampDist := v * v / (2 * a)
	crossTime := 2*v/a + (*width-2*rampDist)/v
	pitch := *height / float64(*rowsPer-1)

	base := float64(time.Now().Unix())
	t := base
	k := 0
	rows := make([]fluence.RowRecord, 0, *scans**rowsPer)
	for s := 0; s < *scans; s++ {
		for r := 0; r < *rowsPer; r++ {
			x := area.StartX
			if k%2 == 1 {
				x = area.StopX
			}
			stop := t + crossTime + 2*rowPad
			rows = append(rows, fluence.RowRecord{
				Scan:           s,
				Row:            r,
				StartX:         x,
				StartY:         area.StartY + pitch*float64(r),
				StartTimestamp: t,
				StopTimestamp:  stop,
				Speed:          v,
				Accel:          a,
			})
			t = stop + turnGap
			k++
		}
		t += rescanGap
	}
	end := rows[len(rows)-1].StopTimestamp

	ampMean := *current * 1e-9
	ampErr := ampMean * *noise
	dt := 1 / *rate
	n := int((end-base+2)**rate) + 1
	samples := make([]fluence.BeamSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, fluence.BeamSample{
			Timestamp:    base - 1 + float64(i)*dt,
			Current:      ampMean * (1 + *noise*rng.NormFloat64()),
			CurrentError: ampErr,
		})
	}
	return rows, samples
}
