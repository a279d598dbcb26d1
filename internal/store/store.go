// internal/store/store.go
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/racketlab/swingsense/internal/swing"
)

// Store persists sessions and their detected swings in SQLite.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			label TEXT,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS swings (
			swing_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			t DOUBLE,
			peak_angular_velocity DOUBLE,
			peak_tip_speed DOUBLE,
			peak_accel DOUBLE,
			impact_force DOUBLE,
			swing_side_force DOUBLE,
			shuttle_force_actual DOUBLE,
			shuttle_force_std DOUBLE,
			duration_ms DOUBLE,
			validation_ratio DOUBLE,
			valid INTEGER NOT NULL DEFAULT 1,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_swings_session ON swings(session_id, t);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db}, nil
}

// Session is one recorded practice session.
type Session struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
}

// Summary aggregates the swings of one session.
type Summary struct {
	SessionID      string  `json:"session_id"`
	Count          int     `json:"count"`
	MaxTipSpeed    float64 `json:"max_tip_speed"`
	AvgTipSpeed    float64 `json:"avg_tip_speed"`
	MaxImpactForce float64 `json:"max_impact_force"`
}

// CreateSession registers a new session and returns its ID.
func (s *Store) CreateSession(label string) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec("INSERT INTO sessions (session_id, label) VALUES (?, ?)", id, label)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// RecordSwing stores one detected swing under the given session. The
// event receives its durable ID here if it does not carry one yet; the
// stored ID is returned either way.
func (s *Store) RecordSwing(sessionID string, ev swing.Event) (string, error) {
	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.Exec(`
		INSERT INTO swings (
			swing_id, session_id, t,
			peak_angular_velocity, peak_tip_speed, peak_accel,
			impact_force, swing_side_force,
			shuttle_force_actual, shuttle_force_std,
			duration_ms, validation_ratio, valid
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sessionID, ev.T,
		ev.PeakAngularVelocity, ev.PeakTipSpeed, ev.PeakAcceleration,
		ev.ImpactForce, ev.SwingSideForce,
		ev.ShuttleForceActual, ev.ShuttleForceStd,
		ev.DurationMs, ev.ValidationRatio, ev.Valid,
	)
	if err != nil {
		return "", fmt.Errorf("record swing: %w", err)
	}
	return id, nil
}

// SessionSwings returns the swings of one session in time order.
func (s *Store) SessionSwings(sessionID string) ([]swing.Event, error) {
	rows, err := s.Query(`
		SELECT swing_id, t,
			peak_angular_velocity, peak_tip_speed, peak_accel,
			impact_force, swing_side_force,
			shuttle_force_actual, shuttle_force_std,
			duration_ms, validation_ratio, valid
		FROM swings WHERE session_id = ? ORDER BY t`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query swings: %w", err)
	}
	defer rows.Close()

	var events []swing.Event
	for rows.Next() {
		var ev swing.Event
		if err := rows.Scan(
			&ev.ID, &ev.T,
			&ev.PeakAngularVelocity, &ev.PeakTipSpeed, &ev.PeakAcceleration,
			&ev.ImpactForce, &ev.SwingSideForce,
			&ev.ShuttleForceActual, &ev.ShuttleForceStd,
			&ev.DurationMs, &ev.ValidationRatio, &ev.Valid,
		); err != nil {
			return nil, fmt.Errorf("scan swing: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// SessionSummary aggregates the swings of one session. A session with
// no swings yields a zero summary, not an error.
func (s *Store) SessionSummary(sessionID string) (Summary, error) {
	sum := Summary{SessionID: sessionID}
	err := s.QueryRow(`
		SELECT COUNT(*),
			COALESCE(MAX(peak_tip_speed), 0),
			COALESCE(AVG(peak_tip_speed), 0),
			COALESCE(MAX(impact_force), 0)
		FROM swings WHERE session_id = ?`, sessionID).
		Scan(&sum.Count, &sum.MaxTipSpeed, &sum.AvgTipSpeed, &sum.MaxImpactForce)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize session: %w", err)
	}
	return sum, nil
}

// Sessions returns the most recent sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.Query("SELECT session_id, label, started_at FROM sessions ORDER BY started_at DESC LIMIT 100")
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
