/*
DESCRIPTION
  record.go provides Recorder, a sqlite store of the relative marker
  positions computed during tracking sessions.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package record stores tracking observations in a sqlite database so that
// marker trajectories can be reviewed after a session.
package record

import (
	"database/sql"
	_ "embed"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/ausocean/fiducial/track"
)

//go:embed schema.sql
var schema string

// Sample is one stored position of a marker.
type Sample struct {
	Time     time.Time
	X, Y     float64 // Position relative to the origin in mm.
	HasAngle bool
	Angle    float64 // Degrees.
}

// Session describes a recorded tracking session.
type Session struct {
	ID      string
	Started time.Time
}

// Recorder writes observations to a sqlite database.
type Recorder struct {
	db *sql.DB
}

// Open opens, creating if needed, the database at path. ":memory:" may be
// used for a private in-memory database.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database %s", path)
	}
	// Private in-memory databases exist per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create schema")
	}
	return &Recorder{db: db}, nil
}

// Begin registers a session starting at t. Beginning an existing session is
// not an error.
func (r *Recorder) Begin(session string, t time.Time) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO sessions (session_id, started) VALUES (?, ?)", session, t.UnixNano())
	return errors.Wrapf(err, "could not begin session %s", session)
}

// Record stores the relative observations in obs taken at t. Origin and
// unresolved observations are ignored.
func (r *Recorder) Record(session string, t time.Time, obs []track.Observation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO observations (session_id, marker_id, taken, x_mm, y_mm, angle_deg) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "could not prepare insert")
	}
	defer stmt.Close()

	for _, o := range obs {
		if !o.Relative {
			continue
		}
		var angle sql.NullFloat64
		if o.HasAngle {
			angle = sql.NullFloat64{Float64: o.Angle, Valid: true}
		}
		_, err = stmt.Exec(session, o.Marker.ID, t.UnixNano(), o.X, o.Y, angle)
		if err != nil {
			return errors.Wrapf(err, "could not record marker %d", o.Marker.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "could not commit observations")
}

// Sessions returns the recorded sessions, oldest first.
func (r *Recorder) Sessions() ([]Session, error) {
	rows, err := r.db.Query("SELECT session_id, started FROM sessions ORDER BY started")
	if err != nil {
		return nil, errors.Wrap(err, "could not query sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			id      string
			started int64
		)
		if err := rows.Scan(&id, &started); err != nil {
			return nil, errors.Wrap(err, "could not scan session")
		}
		sessions = append(sessions, Session{ID: id, Started: time.Unix(0, started)})
	}
	return sessions, errors.Wrap(rows.Err(), "could not read sessions")
}

// Markers returns the IDs of the markers recorded in a session, ascending.
func (r *Recorder) Markers(session string) ([]int, error) {
	rows, err := r.db.Query("SELECT DISTINCT marker_id FROM observations WHERE session_id = ? ORDER BY marker_id", session)
	if err != nil {
		return nil, errors.Wrap(err, "could not query markers")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "could not scan marker")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "could not read markers")
}

// Trajectory returns the samples of marker id in a session in time order.
func (r *Recorder) Trajectory(session string, id int) ([]Sample, error) {
	rows, err := r.db.Query("SELECT taken, x_mm, y_mm, angle_deg FROM observations WHERE session_id = ? AND marker_id = ? ORDER BY taken", session, id)
	if err != nil {
		return nil, errors.Wrap(err, "could not query trajectory")
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			taken int64
			s     Sample
			angle sql.NullFloat64
		)
		if err := rows.Scan(&taken, &s.X, &s.Y, &angle); err != nil {
			return nil, errors.Wrap(err, "could not scan sample")
		}
		s.Time = time.Unix(0, taken)
		s.HasAngle, s.Angle = angle.Valid, angle.Float64
		samples = append(samples, s)
	}
	return samples, errors.Wrap(rows.Err(), "could not read trajectory")
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
