package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DSBisht13/Weather-Union/internal/weather"
)

// Header is the fixed column order of every output file.
var Header = []string{
	"Station ID",
	"Locality Name",
	"Latitude",
	"Longitude",
	"Observation Datetime",
	"Temperature",
	"Humidity",
	"Wind Speed",
	"Wind Direction",
	"Rain Intensity",
	"Total Rainfall",
}

// CSVWriter writes one date-partitioned file per run under BaseDir.
type CSVWriter struct {
	BaseDir string
}

var _ weather.BatchWriter = (*CSVWriter)(nil)

// NewCSVWriter creates a writer rooted at baseDir.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{BaseDir: baseDir}
}

// Path returns {BaseDir}/{YYYYMMDD}/weather_data_{YYYYMMDD_HHMM}.csv for a run
// started at startedAt.
func (w *CSVWriter) Path(startedAt time.Time) string {
	return filepath.Join(
		w.BaseDir,
		startedAt.Format("20060102"),
		fmt.Sprintf("weather_data_%s.csv", startedAt.Format("20060102_1504")),
	)
}

// Write creates the date directory if needed and writes the header followed
// by one row per record. A run in the same minute as an earlier one
// overwrites its file.
func (w *CSVWriter) Write(startedAt time.Time, records []weather.WeatherRecord) (string, error) {
	path := w.Path(startedAt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := writeRecords(f, records); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func writeRecords(f *os.File, records []weather.WeatherRecord) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders a record in Header order.
func Row(r weather.WeatherRecord) []string {
	return []string{
		r.StationID,
		r.LocalityName,
		r.Latitude,
		r.Longitude,
		r.ObservedAt.Format(time.RFC3339Nano),
		string(r.Temperature),
		string(r.Humidity),
		string(r.WindSpeed),
		string(r.WindDirection),
		string(r.RainIntensity),
		string(r.TotalRainfall),
	}
}
