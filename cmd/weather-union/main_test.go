package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DSBisht13/Weather-Union/internal/config"
)

// TestRunOnce drives a full run against a fake Weather Union endpoint: the
// first key is throttled, the second serves data, and one locality has none.
func TestRunOnce(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-zomato-api-key")
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
		if key == "k1" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		switch r.URL.Query().Get("locality_id") {
		case "L1":
			_, _ = io.WriteString(w, `{"status":"200","locality_weather_data":{"temperature":21.5,"humidity":60,"wind_speed":null}}`)
		case "L2":
			_, _ = io.WriteString(w, `{"status":"200","message":"no data"}`)
		default:
			_, _ = io.WriteString(w, `{"locality_weather_data":{"rain_accumulation":2.25}}`)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	locations := filepath.Join(dir, "locations.csv")
	apiKeys := filepath.Join(dir, "api_keys.csv")
	require.NoError(t, os.WriteFile(locations, []byte("localityId,localityName,latitude,longitude\nL1,Downtown,12.9,77.5\nL2,Uptown,,\nL3,Harbor,13.0,80.2\n"), 0o644))
	require.NoError(t, os.WriteFile(apiKeys, []byte("API_KEY\nk1\nk2\n"), 0o644))

	cfg := &config.AppConfig{
		AppEnv:          "dev",
		LocationsCSV:    locations,
		APIKeysCSV:      apiKeys,
		OutputBaseDir:   filepath.Join(dir, "output"),
		BaseURL:         srv.URL,
		KeyHeader:       "x-zomato-api-key",
		LocalityParam:   "locality_id",
		MaxCallsPerKey:  1000,
		HTTPTimeout:     time.Second,
		StoreMaxHistory: 10,
		SQLitePath:      filepath.Join(dir, "weather.db"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, run(context.Background(), cfg, logger))
	mu.Lock()
	require.Equal(t, []string{"k1", "k2", "k2", "k2"}, keys)
	mu.Unlock()

	files, err := filepath.Glob(filepath.Join(dir, "output", "*", "weather_data_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	require.Equal(t, "Station ID", rows[0][0])
	require.Equal(t, []string{"L1", "Downtown", "12.9", "77.5"}, rows[1][:4])
	require.Equal(t, []string{"21.5", "60", "", "", "", ""}, rows[1][5:])
	require.Equal(t, "L3", rows[2][0])
	require.Equal(t, "2.25", rows[2][10])
	require.True(t, strings.HasPrefix(filepath.Base(files[0]), "weather_data_"))
}

func TestRunOnce_MissingInputFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.AppConfig{
		LocationsCSV:   filepath.Join(dir, "missing.csv"),
		APIKeysCSV:     filepath.Join(dir, "also-missing.csv"),
		OutputBaseDir:  filepath.Join(dir, "output"),
		BaseURL:        srv.URL,
		MaxCallsPerKey: 1000,
		HTTPTimeout:    time.Second,
	}

	err := run(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	require.Zero(t, calls.Load())
	require.NoDirExists(t, filepath.Join(dir, "output"))
}
