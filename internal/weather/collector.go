package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrKeysExhausted is returned by Collect when every key has been rotated out
// while localities remain. The partial result is still valid.
var ErrKeysExhausted = errors.New("all API keys exhausted")

// RotationState tracks the current key and how many records it has produced.
type RotationState struct {
	KeyIndex int
	Calls    int
}

func (s *RotationState) advance() {
	s.KeyIndex++
	s.Calls = 0
}

// Exhausted reports whether no key is left to use.
func (s RotationState) Exhausted(keyCount int) bool {
	return s.KeyIndex >= keyCount
}

// CollectResult is the outcome of one pass over the localities.
type CollectResult struct {
	Records []WeatherRecord
	State   RotationState

	Attempted        int
	NoData           int
	RateLimitHits    int
	CeilingRotations int
	KeysUsed         int // distinct keys actually sent
	Exhausted        bool
}

// Collector walks the locality list sequentially, rotating API keys on
// rate-limit responses and when the per-key ceiling is reached.
type Collector struct {
	fetcher        Fetcher
	maxCallsPerKey int
	logger         *slog.Logger
	now            func() time.Time
}

// NewCollector creates a Collector. A maxCallsPerKey <= 0 disables the ceiling.
func NewCollector(fetcher Fetcher, maxCallsPerKey int, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		fetcher:        fetcher,
		maxCallsPerKey: maxCallsPerKey,
		logger:         logger,
		now:            time.Now,
	}
}

// Collect fetches current weather for every locality in order. It stops early,
// returning the records gathered so far, when the keys run out or ctx is done.
func (c *Collector) Collect(ctx context.Context, localities []Locality, keys []APIKey) (CollectResult, error) {
	var res CollectResult

	for i, loc := range localities {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if res.State.Exhausted(len(keys)) {
			remaining := len(localities) - i
			if !res.Exhausted {
				c.logger.Error("all API keys exhausted; stopping early",
					"keys", len(keys),
					"remaining_localities", remaining,
				)
			}
			res.Exhausted = true
			return res, fmt.Errorf("%w: %d localities not attempted", ErrKeysExhausted, remaining)
		}

		res.Attempted++
		c.collectLocality(ctx, loc, keys, &res)
	}

	return res, nil
}

// collectLocality tries loc with the current key, moving to the next key on
// every 429. Each 429 consumes a key, so the loop is bounded by the keys left.
func (c *Collector) collectLocality(ctx context.Context, loc Locality, keys []APIKey, res *CollectResult) {
	st := &res.State

	for remaining := len(keys) - st.KeyIndex; remaining > 0; remaining-- {
		key := keys[st.KeyIndex]
		res.KeysUsed = max(res.KeysUsed, st.KeyIndex+1)
		calledAt := c.now()
		out := c.fetcher.Fetch(ctx, loc.StationID, key)

		if out.Kind == OutcomeRateLimited {
			res.RateLimitHits++
			c.logger.Debug("rotating API key after rate limit",
				"station_id", loc.StationID,
				"from_key", st.KeyIndex,
				"to_key", st.KeyIndex+1,
			)
			st.advance()
			continue
		}

		obs, ok := out.Observation()
		if !ok {
			res.NoData++
			c.logger.Info("no data for station", "station_id", loc.StationID, "outcome", out.Kind.String())
			return
		}

		res.Records = append(res.Records, NewRecord(loc, obs, calledAt))
		st.Calls++

		if c.maxCallsPerKey > 0 && st.Calls >= c.maxCallsPerKey {
			c.logger.Info("per-key call ceiling reached; rotating",
				"key_index", st.KeyIndex,
				"calls", st.Calls,
				"ceiling", c.maxCallsPerKey,
			)
			st.advance()
			res.CeilingRotations++
		}
		return
	}

	// Every remaining key was rate limited on this locality.
	res.NoData++
	res.Exhausted = true
	c.logger.Error("all API keys exhausted",
		"station_id", loc.StationID,
		"keys", len(keys),
	)
}
