package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// Run records one reconstruction over a session: the grid and kernel
// parameters used and the summary statistics of the resulting map. The map
// grids themselves are stored separately as a compressed snapshot.
type Run struct {
	RunID            string  `json:"run_id"`
	SessionID        string  `json:"session_id"`
	BinsX            int     `json:"bins_x"`
	BinsY            int     `json:"bins_y"`
	TruncationSigmas float64 `json:"truncation_sigmas"`
	PeakFluence      float64 `json:"peak_fluence"`
	MeanFluence      float64 `json:"mean_fluence"`
	CreatedAtNs      int64   `json:"created_at_ns"`
}

// RunStore provides persistence for reconstruction runs and their maps.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert persists a new run. If run.RunID is empty, a UUID is generated.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO fluence_runs (
				run_id, session_id, bins_x, bins_y, truncation_sigmas,
				peak_fluence, mean_fluence, created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.SessionID, run.BinsX, run.BinsY, run.TruncationSigmas,
			run.PeakFluence, run.MeanFluence, run.CreatedAtNs,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// Get returns a single run by ID.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, session_id, bins_x, bins_y, truncation_sigmas,
		       peak_fluence, mean_fluence, created_at_ns
		FROM fluence_runs
		WHERE run_id = ?`, runID)

	var run Run
	err := row.Scan(
		&run.RunID, &run.SessionID, &run.BinsX, &run.BinsY, &run.TruncationSigmas,
		&run.PeakFluence, &run.MeanFluence, &run.CreatedAtNs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}

// ListBySession returns all runs for a session, newest first.
func (s *RunStore) ListBySession(sessionID string) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, session_id, bins_x, bins_y, truncation_sigmas,
		       peak_fluence, mean_fluence, created_at_ns
		FROM fluence_runs
		WHERE session_id = ?
		ORDER BY created_at_ns DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.RunID, &run.SessionID, &run.BinsX, &run.BinsY, &run.TruncationSigmas,
			&run.PeakFluence, &run.MeanFluence, &run.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Delete removes a run and, via foreign keys, its stored map.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM fluence_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// SaveMap stores the reconstructed map for a run, replacing any previous
// snapshot.
func (s *RunStore) SaveMap(runID string, m *fluence.Map) error {
	blob, err := serializeSnapshot(m.Snapshot())
	if err != nil {
		return fmt.Errorf("serialize map for run %s: %w", runID, err)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO fluence_maps (run_id, map_blob, created_at_ns)
			VALUES (?, ?, ?)`,
			runID, blob, time.Now().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert map snapshot: %w", err)
		}
		return nil
	})
}

// LoadMap rebuilds the stored map for a run.
func (s *RunStore) LoadMap(runID string) (*fluence.Map, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT map_blob FROM fluence_maps WHERE run_id = ?`, runID,
	).Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("map for run %s not found", runID)
		}
		return nil, fmt.Errorf("query map snapshot: %w", err)
	}

	snap, err := deserializeSnapshot(blob)
	if err != nil {
		return nil, fmt.Errorf("decode map for run %s: %w", runID, err)
	}
	m, err := fluence.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("rebuild map for run %s: %w", runID, err)
	}
	return m, nil
}
