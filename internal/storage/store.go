// Package storage persists compensated measurements into a SQLite session
// store for later analysis.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// Store handles database operations for recorded measurement sessions.
type Store struct {
	dbPath string

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store backed by the SQLite file at dbPath. The schema
// is initialized lazily on first use.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}
		if _, err := db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.dbErr
}

// Close releases the database connection.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

// CreateSession opens a new recording session and returns its row ID.
func (s *Store) CreateSession(ctx context.Context, source string) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, insertSessionSQL, uuid.NewString(), source)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading session id: %w", err)
	}
	return id, nil
}

// StoreMeasurement appends one compensated measurement to a session.
func (s *Store) StoreMeasurement(ctx context.Context, sessionID int64, m measure.CompensatedMeasurement) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var issues sql.NullString
	if len(m.Validation.Errors) > 0 || len(m.Validation.Warnings) > 0 {
		all := append(append([]measure.Issue{}, m.Validation.Errors...), m.Validation.Warnings...)
		p, err := json.Marshal(all)
		if err != nil {
			return fmt.Errorf("marshaling issues: %w", err)
		}
		issues.Valid = true
		issues.String = string(p)
	}

	_, err = db.ExecContext(ctx, insertMeasurementSQL,
		sessionID,
		m.Raw.Timestamp.UTC(),
		string(m.Raw.Kind),
		m.Raw.Value,
		m.Compensated.Value,
		string(m.Compensated.Stage),
		m.Compensated.Confidence,
		m.Assessment.EstimatedError,
		string(m.Assessment.Tier),
		boolToInt(m.Assessment.MeetsRequirements),
		boolToInt(m.Validation.IsValid),
		m.Validation.PrecisionScore,
		m.Validation.QualityScore,
		m.MotionState.String(),
		int64(m.Latency),
		issues,
	)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

// StoredMeasurement is one persisted measurement row.
type StoredMeasurement struct {
	Timestamp      time.Time
	Kind           measure.Kind
	RawValue       float64
	Value          float64
	Stage          measure.Stage
	Confidence     float64
	EstimatedError float64
	Tier           measure.Accuracy
	MeetsRequired  bool
	IsValid        bool
	PrecisionScore float64
	QualityScore   float64
	MotionState    string
	Latency        time.Duration
}

// SessionMeasurements returns all measurements of a session in timestamp
// order.
func (s *Store) SessionMeasurements(ctx context.Context, sessionID int64) ([]StoredMeasurement, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectMeasurementsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var out []StoredMeasurement
	for rows.Next() {
		var m StoredMeasurement
		var kind, stage, tier string
		var meets, valid int
		var latency int64
		if err := rows.Scan(
			&m.Timestamp, &kind, &m.RawValue, &m.Value, &stage,
			&m.Confidence, &m.EstimatedError, &tier, &meets, &valid,
			&m.PrecisionScore, &m.QualityScore, &m.MotionState, &latency,
		); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		m.Kind = measure.Kind(kind)
		m.Stage = measure.Stage(stage)
		m.Tier = measure.Accuracy(tier)
		m.MeetsRequired = meets != 0
		m.IsValid = valid != 0
		m.Latency = time.Duration(latency)
		out = append(out, m)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
