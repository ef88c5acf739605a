package weather

import (
	"context"
	"time"
)

// OutcomeKind classifies the result of a single fetch.
type OutcomeKind int

const (
	// OutcomeFailure covers non-200 statuses other than 429 and transport errors.
	OutcomeFailure OutcomeKind = iota
	// OutcomeSuccess is an HTTP 200 with a decoded payload.
	OutcomeSuccess
	// OutcomeRateLimited is an HTTP 429; the caller should rotate keys.
	OutcomeRateLimited
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failure"
	}
}

// Outcome is the result of Fetcher.Fetch. Payload is set only for OutcomeSuccess.
type Outcome struct {
	Kind       OutcomeKind
	Payload    *Payload
	StatusCode int   // 0 when no response was received
	Err        error // set for OutcomeFailure
}

// Success wraps a decoded payload.
func Success(p *Payload) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: p, StatusCode: 200}
}

// RateLimited is the outcome of an HTTP 429.
func RateLimited() Outcome {
	return Outcome{Kind: OutcomeRateLimited, StatusCode: 429}
}

// Failure records a failed attempt.
func Failure(status int, err error) Outcome {
	return Outcome{Kind: OutcomeFailure, StatusCode: status, Err: err}
}

// Observation returns the weather section of a successful outcome, if any.
func (o Outcome) Observation() (Observation, bool) {
	if o.Kind != OutcomeSuccess || o.Payload == nil || o.Payload.Weather == nil {
		return Observation{}, false
	}
	return *o.Payload.Weather, true
}

// Fetcher abstracts the Weather Union current-conditions endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, stationID string, key APIKey) Outcome
}

// ReferenceLoader provides the locality and API key tables for a run.
type ReferenceLoader interface {
	Load(ctx context.Context) ([]Locality, []APIKey, error)
}

// BatchWriter persists the output batch of a run and returns its location.
type BatchWriter interface {
	Write(startedAt time.Time, records []WeatherRecord) (string, error)
}

// RecordSink receives a copy of every run's records (e.g. a database mirror).
type RecordSink interface {
	SaveRecords(ctx context.Context, runID string, records []WeatherRecord) error
}

// Store is the contract the in-memory summary store must satisfy.
type Store interface {
	SaveSummary(summary RunSummary)
	GetLatest() (RunSummary, error)
	GetRange(from, to time.Time) ([]RunSummary, error)
}
