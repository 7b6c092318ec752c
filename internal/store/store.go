package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS rack_power (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	rack_id     TEXT     NOT NULL,
	watts       REAL     NOT NULL,
	recorded_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rack_power_rack ON rack_power (rack_id, recorded_at);

CREATE TABLE IF NOT EXISTS sensor_readings (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sensor_id     TEXT     NOT NULL,
	location      TEXT     NOT NULL,
	temperature_c REAL     NOT NULL,
	humidity_pct  REAL     NOT NULL,
	recorded_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sensor_readings_sensor ON sensor_readings (sensor_id, recorded_at);
`

// RackPowerRecord is one rack's power reading as served to callers.
type RackPowerRecord struct {
	RackID     string    `json:"rack_id"`
	Watts      float64   `json:"watts"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SensorRecord is one environmental sensor reading as served to callers.
type SensorRecord struct {
	SensorID     string    `json:"sensor_id"`
	Location     string    `json:"location"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store is the relational primary source for telemetry. The fallback
// coordinator consults it before any remote API call.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and ensures the
// telemetry schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry store: %w", err)
	}

	// SQLite allows one writer, and an in-memory database exists per
	// connection; a single pooled connection keeps both correct.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging telemetry store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring telemetry schema: %w", err)
	}

	logger.Info("Telemetry store opened", slog.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RackPower returns the most recent power reading per rack as canonical
// JSON records, ordered by rack id.
func (s *Store) RackPower(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rack_id, watts, MAX(recorded_at) AS recorded_at
		FROM rack_power
		GROUP BY rack_id
		ORDER BY rack_id`)
	if err != nil {
		return nil, fmt.Errorf("querying rack power: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec RackPowerRecord
		if err := rows.Scan(&rec.RackID, &rec.Watts, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning rack power row: %w", err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, raw)
	}

	return records, rows.Err()
}

// SensorReadings returns the most recent reading per sensor as canonical
// JSON records, ordered by sensor id.
func (s *Store) SensorReadings(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sensor_id, location, temperature_c, humidity_pct, MAX(recorded_at) AS recorded_at
		FROM sensor_readings
		GROUP BY sensor_id
		ORDER BY sensor_id`)
	if err != nil {
		return nil, fmt.Errorf("querying sensor readings: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec SensorRecord
		if err := rows.Scan(&rec.SensorID, &rec.Location, &rec.TemperatureC, &rec.HumidityPct, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning sensor reading row: %w", err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, raw)
	}

	return records, rows.Err()
}

// InsertRackPower records one rack power sample.
func (s *Store) InsertRackPower(ctx context.Context, rec RackPowerRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rack_power (rack_id, watts, recorded_at) VALUES (?, ?, ?)`,
		rec.RackID, rec.Watts, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting rack power: %w", err)
	}
	return nil
}

// InsertSensorReading records one environmental sensor sample.
func (s *Store) InsertSensorReading(ctx context.Context, rec SensorRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_readings (sensor_id, location, temperature_c, humidity_pct, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SensorID, rec.Location, rec.TemperatureC, rec.HumidityPct, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting sensor reading: %w", err)
	}
	return nil
}
