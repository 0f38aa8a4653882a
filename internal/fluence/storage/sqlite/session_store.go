package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// Session ties a recorded scan log to the geometry needed to reconstruct it.
type Session struct {
	SessionID   string                  `json:"session_id"`
	Name        string                  `json:"name"`
	Geometry    fluence.SessionGeometry `json:"geometry"`
	CreatedAtNs int64                   `json:"created_at_ns"`
}

// SessionStore provides persistence for recorded irradiation sessions.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Insert creates a new session. If session.SessionID is empty, a UUID is
// generated.
func (s *SessionStore) Insert(session *Session) error {
	if session.SessionID == "" {
		session.SessionID = uuid.New().String()
	}
	if session.CreatedAtNs == 0 {
		session.CreatedAtNs = time.Now().UnixNano()
	}

	var dutMinX, dutMinY, dutMaxX, dutMaxY interface{}
	if dut := session.Geometry.DUTRect; dut != nil {
		dutMinX, dutMinY, dutMaxX, dutMaxY = dut.MinX, dut.MinY, dut.MaxX, dut.MaxY
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO irrad_sessions (
				session_id, name,
				scan_start_x, scan_start_y, scan_stop_x, scan_stop_y,
				beam_fwhm_x, beam_fwhm_y, rows_per_scan,
				dut_min_x, dut_min_y, dut_max_x, dut_max_y,
				created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.SessionID, session.Name,
			session.Geometry.Area.StartX, session.Geometry.Area.StartY,
			session.Geometry.Area.StopX, session.Geometry.Area.StopY,
			session.Geometry.BeamFWHMX, session.Geometry.BeamFWHMY,
			session.Geometry.RowsPerScan,
			dutMinX, dutMinY, dutMaxX, dutMaxY,
			session.CreatedAtNs,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// Get returns a single session by ID.
func (s *SessionStore) Get(sessionID string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, name,
		       scan_start_x, scan_start_y, scan_stop_x, scan_stop_y,
		       beam_fwhm_x, beam_fwhm_y, rows_per_scan,
		       dut_min_x, dut_min_y, dut_max_x, dut_max_y,
		       created_at_ns
		FROM irrad_sessions
		WHERE session_id = ?`, sessionID)

	var sess Session
	var dutMinX, dutMinY, dutMaxX, dutMaxY sql.NullFloat64
	err := row.Scan(
		&sess.SessionID, &sess.Name,
		&sess.Geometry.Area.StartX, &sess.Geometry.Area.StartY,
		&sess.Geometry.Area.StopX, &sess.Geometry.Area.StopY,
		&sess.Geometry.BeamFWHMX, &sess.Geometry.BeamFWHMY,
		&sess.Geometry.RowsPerScan,
		&dutMinX, &dutMinY, &dutMaxX, &dutMaxY,
		&sess.CreatedAtNs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Geometry.DUTRect = dutRect(dutMinX, dutMinY, dutMaxX, dutMaxY)
	return &sess, nil
}

// List returns all sessions, newest first.
func (s *SessionStore) List() ([]*Session, error) {
	rows, err := s.db.Query(`
		SELECT session_id, name,
		       scan_start_x, scan_start_y, scan_stop_x, scan_stop_y,
		       beam_fwhm_x, beam_fwhm_y, rows_per_scan,
		       dut_min_x, dut_min_y, dut_max_x, dut_max_y,
		       created_at_ns
		FROM irrad_sessions
		ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Delete removes a session and, via foreign keys, its samples, rows and runs.
func (s *SessionStore) Delete(sessionID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM irrad_sessions WHERE session_id = ?`, sessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("session %s not found", sessionID)
		}
		return nil
	})
}

// InsertBeamSamples bulk-inserts beam current readings for a session in one
// transaction.
func (s *SessionStore) InsertBeamSamples(sessionID string, samples []fluence.BeamSample) error {
	if len(samples) == 0 {
		return nil
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin insert samples tx: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO beam_samples (session_id, timestamp, current_amps, current_error_amps)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare insert samples: %w", err)
		}

		for _, sample := range samples {
			if _, err := stmt.Exec(sessionID, sample.Timestamp, sample.Current, sample.CurrentError); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("insert beam sample: %w", err)
			}
		}
		stmt.Close()

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert samples tx: %w", err)
		}
		return nil
	})
}

// InsertScanRows bulk-inserts scan row records for a session in one
// transaction.
func (s *SessionStore) InsertScanRows(sessionID string, records []fluence.RowRecord) error {
	if len(records) == 0 {
		return nil
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin insert rows tx: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO scan_rows (
				session_id, scan_number, row_number,
				start_x, start_y, start_timestamp, stop_timestamp, speed, accel
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare insert rows: %w", err)
		}

		for _, rec := range records {
			if _, err := stmt.Exec(
				sessionID, rec.Scan, rec.Row,
				rec.StartX, rec.StartY, rec.StartTimestamp, rec.StopTimestamp,
				rec.Speed, rec.Accel,
			); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("insert scan row: %w", err)
			}
		}
		stmt.Close()

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert rows tx: %w", err)
		}
		return nil
	})
}

// BeamSamples returns a session's beam samples in ascending time order, the
// order the reconstruction requires.
func (s *SessionStore) BeamSamples(sessionID string) ([]fluence.BeamSample, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, current_amps, current_error_amps
		FROM beam_samples
		WHERE session_id = ?
		ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query beam samples: %w", err)
	}
	defer rows.Close()

	var samples []fluence.BeamSample
	for rows.Next() {
		var sample fluence.BeamSample
		if err := rows.Scan(&sample.Timestamp, &sample.Current, &sample.CurrentError); err != nil {
			return nil, fmt.Errorf("scan beam sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// ScanRows returns a session's row records ordered by start timestamp.
func (s *SessionStore) ScanRows(sessionID string) ([]fluence.RowRecord, error) {
	rows, err := s.db.Query(`
		SELECT scan_number, row_number, start_x, start_y,
		       start_timestamp, stop_timestamp, speed, accel
		FROM scan_rows
		WHERE session_id = ?
		ORDER BY start_timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query scan rows: %w", err)
	}
	defer rows.Close()

	var records []fluence.RowRecord
	for rows.Next() {
		var rec fluence.RowRecord
		if err := rows.Scan(
			&rec.Scan, &rec.Row, &rec.StartX, &rec.StartY,
			&rec.StartTimestamp, &rec.StopTimestamp, &rec.Speed, &rec.Accel,
		); err != nil {
			return nil, fmt.Errorf("scan row record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanSession scans a session row from a sql.Rows cursor.
func scanSession(rows *sql.Rows) (*Session, error) {
	var sess Session
	var dutMinX, dutMinY, dutMaxX, dutMaxY sql.NullFloat64
	err := rows.Scan(
		&sess.SessionID, &sess.Name,
		&sess.Geometry.Area.StartX, &sess.Geometry.Area.StartY,
		&sess.Geometry.Area.StopX, &sess.Geometry.Area.StopY,
		&sess.Geometry.BeamFWHMX, &sess.Geometry.BeamFWHMY,
		&sess.Geometry.RowsPerScan,
		&dutMinX, &dutMinY, &dutMaxX, &dutMaxY,
		&sess.CreatedAtNs,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	sess.Geometry.DUTRect = dutRect(dutMinX, dutMinY, dutMaxX, dutMaxY)
	return &sess, nil
}

// dutRect rebuilds the optional DUT rectangle from its nullable columns.
// All four must be present; a partially stored rectangle is treated as
// absent.
func dutRect(minX, minY, maxX, maxY sql.NullFloat64) *fluence.Rect {
	if !minX.Valid || !minY.Valid || !maxX.Valid || !maxY.Valid {
		return nil
	}
	return &fluence.Rect{
		MinX: minX.Float64,
		MinY: minY.Float64,
		MaxX: maxX.Float64,
		MaxY: maxY.Float64,
	}
}
