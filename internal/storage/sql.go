package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid       TEXT NOT NULL UNIQUE,
    start_time TIMESTAMP NOT NULL,
    source     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS measurements (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id       INTEGER NOT NULL REFERENCES sessions(id),
    timestamp        TIMESTAMP NOT NULL,
    kind             TEXT NOT NULL,
    raw_value        REAL NOT NULL,
    value            REAL NOT NULL,
    stage            TEXT NOT NULL,
    confidence       REAL NOT NULL,
    estimated_error  REAL NOT NULL,
    accuracy_tier    TEXT NOT NULL,
    meets_required   INTEGER NOT NULL,
    is_valid         INTEGER NOT NULL,
    precision_score  REAL NOT NULL,
    quality_score    REAL NOT NULL,
    motion_state     TEXT NOT NULL,
    latency_ns       INTEGER NOT NULL,
    issues           TEXT
);

CREATE INDEX IF NOT EXISTS idx_measurements_session
    ON measurements(session_id, timestamp);
`

const (
	insertSessionSQL = `
INSERT INTO sessions (uuid, start_time, source)
VALUES (?, CURRENT_TIMESTAMP, ?)`

	insertMeasurementSQL = `
INSERT INTO measurements (session_id,
                          timestamp,
                          kind,
                          raw_value,
                          value,
                          stage,
                          confidence,
                          estimated_error,
                          accuracy_tier,
                          meets_required,
                          is_valid,
                          precision_score,
                          quality_score,
                          motion_state,
                          latency_ns,
                          issues)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectMeasurementsSQL = `
SELECT timestamp,
       kind,
       raw_value,
       value,
       stage,
       confidence,
       estimated_error,
       accuracy_tier,
       meets_required,
       is_valid,
       precision_score,
       quality_score,
       motion_state,
       latency_ns
FROM measurements
WHERE session_id = ?
ORDER BY timestamp`
)
