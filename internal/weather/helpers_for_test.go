package weather

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fetchCall struct {
	StationID string
	Key       APIKey
}

// scriptedFetcher answers from respond and records every call.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	respond func(n int, stationID string, key APIKey) Outcome
}

func (f *scriptedFetcher) Fetch(_ context.Context, stationID string, key APIKey) Outcome {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, fetchCall{StationID: stationID, Key: key})
	f.mu.Unlock()
	return f.respond(n, stationID, key)
}

func (f *scriptedFetcher) keysUsed() []APIKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]APIKey, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Key
	}
	return out
}

func observed(temp, humidity string) Outcome {
	return Success(&Payload{Weather: &Observation{
		Temperature: Measurement(temp),
		Humidity:    Measurement(humidity),
	}})
}

func alwaysObserved(int, string, APIKey) Outcome { return observed("20", "50") }

func localities(ids ...string) []Locality {
	out := make([]Locality, len(ids))
	for i, id := range ids {
		out[i] = Locality{StationID: id, Name: "Locality " + id}
	}
	return out
}

func apiKeys(keys ...string) []APIKey {
	out := make([]APIKey, len(keys))
	for i, k := range keys {
		out[i] = APIKey(k)
	}
	return out
}

type staticLoader struct {
	localities []Locality
	keys       []APIKey
	err        error
}

func (l staticLoader) Load(context.Context) ([]Locality, []APIKey, error) {
	return l.localities, l.keys, l.err
}

type memoryWriter struct {
	startedAt time.Time
	records   []WeatherRecord
	writes    int
	err       error
}

func (w *memoryWriter) Write(startedAt time.Time, records []WeatherRecord) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.writes++
	w.startedAt = startedAt
	w.records = append([]WeatherRecord(nil), records...)
	return "memory://" + startedAt.Format("20060102_1504"), nil
}

type recordingSink struct {
	runIDs  []string
	records int
	err     error
}

func (s *recordingSink) SaveRecords(_ context.Context, runID string, records []WeatherRecord) error {
	if s.err != nil {
		return s.err
	}
	s.runIDs = append(s.runIDs, runID)
	s.records += len(records)
	return nil
}

type summaryList struct {
	saved []RunSummary
}

func (s *summaryList) SaveSummary(summary RunSummary) { s.saved = append(s.saved, summary) }

func (s *summaryList) GetLatest() (RunSummary, error) {
	if len(s.saved) == 0 {
		return RunSummary{}, errors.New("empty")
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *summaryList) GetRange(from, to time.Time) ([]RunSummary, error) {
	return s.saved, nil
}
