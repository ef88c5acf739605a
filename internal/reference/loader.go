package reference

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/DSBisht13/Weather-Union/internal/common"
	"github.com/DSBisht13/Weather-Union/internal/weather"
)

// Kinds of ConfigurationError.
const (
	KindMissingFile   = "missing-file"
	KindMissingColumn = "missing-column"
	KindMalformed     = "malformed"
)

// ConfigurationError reports an input table that cannot be used. It is fatal
// to the run and is raised before any request is made.
type ConfigurationError struct {
	Kind string
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Column names accepted for each field, first one canonical.
var (
	stationIDColumns = []string{"localityId", "station_id", "stationId", "locality_id"}
	nameColumns      = []string{"localityName", "name", "locality_name"}
	latitudeColumns  = []string{"latitude", "lat"}
	longitudeColumns = []string{"longitude", "lon", "lng"}
	keyColumns       = []string{"API_KEY", "api_key", "key"}
)

var validate = validator.New()

// Loader reads the locality and API key tables from CSV files.
type Loader struct {
	LocalitiesPath string
	KeysPath       string
	logger         *slog.Logger
}

var _ weather.ReferenceLoader = (*Loader)(nil)

// NewLoader creates a Loader for the two given paths.
func NewLoader(localitiesPath, keysPath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		LocalitiesPath: localitiesPath,
		KeysPath:       keysPath,
		logger:         logger,
	}
}

// Load reads both tables. Either file missing is a *ConfigurationError.
func (l *Loader) Load(ctx context.Context) ([]weather.Locality, []weather.APIKey, error) {
	localities, err := l.loadLocalities()
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	keys, err := l.loadKeys()
	if err != nil {
		return nil, nil, err
	}
	return localities, keys, nil
}

func (l *Loader) loadLocalities() ([]weather.Locality, error) {
	header, rows, err := readTable(l.LocalitiesPath)
	if err != nil {
		l.logger.Error("CSV file not found or unreadable", "path", l.LocalitiesPath, "error", err)
		return nil, err
	}

	idCol := common.ColumnIndex(header, stationIDColumns...)
	if idCol < 0 {
		return nil, &ConfigurationError{
			Kind: KindMissingColumn,
			Path: l.LocalitiesPath,
			Err:  fmt.Errorf("no %s column in header %v", stationIDColumns[0], header),
		}
	}
	nameCol := common.ColumnIndex(header, nameColumns...)
	latCol := common.ColumnIndex(header, latitudeColumns...)
	lonCol := common.ColumnIndex(header, longitudeColumns...)

	localities := make([]weather.Locality, 0, len(rows))
	for i, row := range rows {
		loc := weather.Locality{
			StationID: common.Cell(row, idCol),
			Name:      common.Cell(row, nameCol),
			Latitude:  common.Cell(row, latCol),
			Longitude: common.Cell(row, lonCol),
		}
		if err := validate.Struct(loc); err != nil {
			l.logger.Warn("skipping locality without station id", "path", l.LocalitiesPath, "line", i+2)
			continue
		}
		localities = append(localities, loc)
	}
	return localities, nil
}

func (l *Loader) loadKeys() ([]weather.APIKey, error) {
	header, rows, err := readTable(l.KeysPath)
	if err != nil {
		l.logger.Error("CSV file not found or unreadable", "path", l.KeysPath, "error", err)
		return nil, err
	}

	keyCol := common.ColumnIndex(header, keyColumns...)
	if keyCol < 0 {
		return nil, &ConfigurationError{
			Kind: KindMissingColumn,
			Path: l.KeysPath,
			Err:  fmt.Errorf("no %s column in header", keyColumns[0]),
		}
	}

	keys := make([]weather.APIKey, 0, len(rows))
	for i, row := range rows {
		k := common.Cell(row, keyCol)
		if err := validate.Var(k, "required"); err != nil {
			l.logger.Warn("skipping blank API key", "path", l.KeysPath, "line", i+2)
			continue
		}
		keys = append(keys, weather.APIKey(k))
	}
	return keys, nil
}

// readTable returns the header row and the remaining rows of a CSV file.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &ConfigurationError{Kind: KindMissingFile, Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &ConfigurationError{Kind: KindMissingColumn, Path: path, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, nil, &ConfigurationError{Kind: KindMalformed, Path: path, Err: err}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, &ConfigurationError{Kind: KindMalformed, Path: path, Err: err}
	}
	return header, rows, nil
}
