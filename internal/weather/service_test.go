package weather

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[min(i, len(ts)-1)]
		i++
		return t
	}
}

func TestRun_WritesBatchAndSummary(t *testing.T) {
	start := time.Date(2024, 3, 4, 5, 6, 7, 0, time.Local)
	end := start.Add(1500 * time.Millisecond)

	fetcher := &scriptedFetcher{respond: alwaysObserved}
	writer := &memoryWriter{}
	sink := &recordingSink{}
	summaries := &summaryList{}

	svc := NewService(
		staticLoader{localities: localities("L1", "L2"), keys: apiKeys("k1")},
		NewCollector(fetcher, 1000, discard),
		writer, summaries, discard, sink,
	)
	svc.now = fixedClock(start, end)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, writer.writes)
	require.Equal(t, start, writer.startedAt)
	require.Len(t, writer.records, 2)

	require.NotEmpty(t, summary.RunID)
	require.Equal(t, []string{summary.RunID}, sink.runIDs)
	require.Equal(t, 2, sink.records)

	require.Equal(t, 2, summary.Records)
	require.Equal(t, 2, summary.LocalitiesTotal)
	require.Equal(t, 1, summary.KeysTotal)
	require.Equal(t, "memory://20240304_0506", summary.OutputPath)
	require.Equal(t, 1500*time.Millisecond, summary.Duration)
	require.False(t, summary.KeysExhausted)
	require.Equal(t, []RunSummary{summary}, summaries.saved)
}

func TestRun_ConfigurationErrorStopsBeforeFetching(t *testing.T) {
	loadErr := &fs.PathError{Op: "open", Path: "missing.csv", Err: fs.ErrNotExist}
	fetcher := &scriptedFetcher{respond: alwaysObserved}
	writer := &memoryWriter{}

	svc := NewService(staticLoader{err: loadErr}, NewCollector(fetcher, 1000, discard), writer, nil, discard)

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Empty(t, fetcher.calls)
	require.Zero(t, writer.writes)
}

func TestRun_ExhaustionStillWritesPartialBatch(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(n int, _ string, _ APIKey) Outcome {
		if n == 0 {
			return observed("25", "55")
		}
		return RateLimited()
	}}
	writer := &memoryWriter{}
	summaries := &summaryList{}

	svc := NewService(
		staticLoader{localities: localities("L1", "L2", "L3"), keys: apiKeys("k1", "k2")},
		NewCollector(fetcher, 1000, discard),
		writer, summaries, discard,
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.True(t, summary.KeysExhausted)
	require.Equal(t, 1, writer.writes)
	require.Len(t, writer.records, 1)
	require.Equal(t, 2, summary.LocalitiesAttempted)
	require.Len(t, summaries.saved, 1)
}

func TestRun_InterruptedStillWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &scriptedFetcher{respond: func(int, string, APIKey) Outcome {
		cancel()
		return observed("1", "2")
	}}
	writer := &memoryWriter{}

	svc := NewService(
		staticLoader{localities: localities("L1", "L2"), keys: apiKeys("k1")},
		NewCollector(fetcher, 1000, discard),
		writer, nil, discard,
	)

	summary, err := svc.Run(ctx)
	require.NoError(t, err)
	require.True(t, summary.Interrupted)
	require.Len(t, writer.records, 1)
}

func TestRun_WriteErrorIsReturned(t *testing.T) {
	writeErr := errors.New("disk full")
	svc := NewService(
		staticLoader{localities: localities("L1"), keys: apiKeys("k1")},
		NewCollector(&scriptedFetcher{respond: alwaysObserved}, 1000, discard),
		&memoryWriter{err: writeErr}, nil, discard,
	)

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, writeErr)
}

func TestRun_SinkErrorIsNotFatal(t *testing.T) {
	summaries := &summaryList{}
	svc := NewService(
		staticLoader{localities: localities("L1"), keys: apiKeys("k1")},
		NewCollector(&scriptedFetcher{respond: alwaysObserved}, 1000, discard),
		&memoryWriter{}, summaries, discard,
		&recordingSink{err: errors.New("database is locked")},
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Records)
	require.Len(t, summaries.saved, 1)
}

func TestService_WithoutStore(t *testing.T) {
	svc := NewService(staticLoader{}, NewCollector(&scriptedFetcher{respond: alwaysObserved}, 1000, discard), &memoryWriter{}, nil, discard)

	_, err := svc.GetLatest()
	require.Error(t, err)
	_, err = svc.GetRange(time.Time{}, time.Now())
	require.Error(t, err)
}

func TestAPIKey_Masked(t *testing.T) {
	require.Equal(t, "****", APIKey("abc").Masked())
	require.Equal(t, "****wxyz", APIKey("0123456789wxyz").Masked())
}
