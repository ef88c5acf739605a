package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service runs the batch job: load reference data, collect, write, record.
type Service struct {
	loader    ReferenceLoader
	collector *Collector
	writer    BatchWriter
	sinks     []RecordSink
	store     Store
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new Service. store may be nil when run summaries are
// not kept.
func NewService(loader ReferenceLoader, collector *Collector, writer BatchWriter, store Store, logger *slog.Logger, sinks ...RecordSink) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		collector: collector,
		writer:    writer,
		sinks:     sinks,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one execution. Reference-data errors are returned before any
// request is made. Key exhaustion and cancellation end collection early but
// the partial batch is still written and no error is returned for them.
func (s *Service) Run(ctx context.Context) (RunSummary, error) {
	runID := uuid.NewString()
	startedAt := s.now()
	logger := s.logger.With("run_id", runID)

	localities, keys, err := s.loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load reference data", "error", err)
		return RunSummary{}, err
	}
	logger.Info("starting weather fetch", "localities", len(localities), "keys", len(keys))

	res, err := s.collector.Collect(ctx, localities, keys)
	summary := Summarize(runID, len(localities), len(keys), res)
	switch {
	case err == nil:
	case errors.Is(err, ErrKeysExhausted):
		logger.Warn("run ended early", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		summary.Interrupted = true
		logger.Warn("run interrupted; writing partial batch", "error", err)
	default:
		return summary, fmt.Errorf("collect: %w", err)
	}

	path, err := s.writer.Write(startedAt, res.Records)
	if err != nil {
		logger.Error("failed to write output", "error", err)
		return summary, fmt.Errorf("write output: %w", err)
	}
	summary.OutputPath = path

	// The record mirror is best effort; the CSV is the artifact of record.
	for _, sink := range s.sinks {
		if err := sink.SaveRecords(context.WithoutCancel(ctx), runID, res.Records); err != nil {
			logger.Error("failed to mirror records", "error", err)
		}
	}

	summary.StartedAt = startedAt
	summary.FinishedAt = s.now()
	summary.Duration = summary.FinishedAt.Sub(startedAt)
	if s.store != nil {
		s.store.SaveSummary(summary)
	}

	logger.Info("wrote weather records",
		"records", summary.Records,
		"path", summary.OutputPath,
		"elapsed", summary.Duration.Round(10*time.Millisecond).String(),
		"rate_limit_hits", summary.RateLimitHits,
		"keys_used", summary.KeysUsed,
	)
	return summary, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (RunSummary, error) {
	if s.store == nil {
		return RunSummary{}, errNoStore
	}
	return s.store.GetLatest()
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]RunSummary, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	return s.store.GetRange(from, to)
}

var errNoStore = errors.New("no summary store configured")
