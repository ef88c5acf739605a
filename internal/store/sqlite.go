package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DSBisht13/Weather-Union/internal/weather"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS weather_records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	station_id     TEXT NOT NULL,
	locality_name  TEXT NOT NULL DEFAULT '',
	latitude       TEXT NOT NULL DEFAULT '',
	longitude      TEXT NOT NULL DEFAULT '',
	observed_at    TEXT NOT NULL,
	temperature    TEXT,
	humidity       TEXT,
	wind_speed     TEXT,
	wind_direction TEXT,
	rain_intensity TEXT,
	total_rainfall TEXT
);
CREATE INDEX IF NOT EXISTS idx_weather_records_run ON weather_records(run_id);
`

const insertRecord = `
INSERT INTO weather_records (
	run_id, station_id, locality_name, latitude, longitude, observed_at,
	temperature, humidity, wind_speed, wind_direction, rain_intensity, total_rainfall
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink mirrors every run's records into a SQLite table.
type SQLiteSink struct {
	db *sql.DB
}

var _ weather.RecordSink = (*SQLiteSink)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLiteSink, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single writer per run; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(createRecordsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// SaveRecords inserts records in one transaction.
func (s *SQLiteSink) SaveRecords(ctx context.Context, runID string, records []weather.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			runID, r.StationID, r.LocalityName, r.Latitude, r.Longitude,
			r.ObservedAt.Format(time.RFC3339Nano),
			nullable(r.Temperature), nullable(r.Humidity), nullable(r.WindSpeed),
			nullable(r.WindDirection), nullable(r.RainIntensity), nullable(r.TotalRainfall),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountRecords returns the number of mirrored rows for runID.
func (s *SQLiteSink) CountRecords(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weather_records WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullable(m weather.Measurement) sql.NullString {
	return sql.NullString{String: string(m), Valid: m.Valid()}
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}

	// Ensure directory exists for file-backed sqlite db
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
