package weather

import "time"

// RunSummary describes one execution of the batch job.
type RunSummary struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"durationNs"`

	LocalitiesTotal     int  `json:"localitiesTotal"`
	LocalitiesAttempted int  `json:"localitiesAttempted"`
	Records             int  `json:"records"`
	NoData              int  `json:"noData"`
	RateLimitHits       int  `json:"rateLimitHits"`
	CeilingRotations    int  `json:"ceilingRotations"`
	KeysTotal           int  `json:"keysTotal"`
	KeysUsed            int  `json:"keysUsed"`
	KeysExhausted       bool `json:"keysExhausted"`
	Interrupted         bool `json:"interrupted"`

	OutputPath string `json:"outputPath"`
}

// Summarize folds a collection result into a RunSummary. Timing and output
// fields are filled in by the caller.
func Summarize(runID string, localities int, keys int, res CollectResult) RunSummary {
	return RunSummary{
		RunID:               runID,
		LocalitiesTotal:     localities,
		LocalitiesAttempted: res.Attempted,
		Records:             len(res.Records),
		NoData:              res.NoData,
		RateLimitHits:       res.RateLimitHits,
		CeilingRotations:    res.CeilingRotations,
		KeysTotal:           keys,
		KeysUsed:            res.KeysUsed,
		KeysExhausted:       res.Exhausted,
	}
}
