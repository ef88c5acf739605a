package weatherunion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/DSBisht13/Weather-Union/internal/weather"
)

const (
	DefaultKeyHeader     = "x-zomato-api-key"
	DefaultLocalityParam = "locality_id"

	weatherSection = "locality_weather_data"
)

// Config describes the Weather Union endpoint.
type Config struct {
	BaseURL       string
	KeyHeader     string
	LocalityParam string
	Breaker       BreakerConfig
}

// Client implements weather.Fetcher for the Weather Union locality endpoint.
type Client struct {
	baseURL       string
	keyHeader     string
	localityParam string
	http          *http.Client
	circuit       *gobreaker.CircuitBreaker
	logger        *slog.Logger
}

var _ weather.Fetcher = (*Client)(nil)

// NewClient creates a Client. The per-call timeout is the http.Client's.
func NewClient(client *http.Client, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyHeader == "" {
		cfg.KeyHeader = DefaultKeyHeader
	}
	if cfg.LocalityParam == "" {
		cfg.LocalityParam = DefaultLocalityParam
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		keyHeader:     cfg.KeyHeader,
		localityParam: cfg.LocalityParam,
		http:          client,
		circuit:       newBreaker("weatherunion", cfg.Breaker),
		logger:        logger,
	}
}

// Fetch makes one request for stationID with key. It never retries.
func (c *Client) Fetch(ctx context.Context, stationID string, key weather.APIKey) weather.Outcome {
	req, err := c.newRequest(stationID, key)
	if err != nil {
		c.logger.Error("failed to build request", "station_id", stationID, "error", err)
		return weather.Failure(0, err)
	}

	resp, err := doRequest(ctx, c.http, c.circuit, req)
	if err != nil {
		status := 0
		var se *statusError
		if errors.As(err, &se) {
			status = se.code
		}
		c.logger.Error("request failed",
			"station_id", stationID,
			"key", key.Masked(),
			"status", status,
			"error", err,
		)
		return weather.Failure(status, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("quota limit reached for key", "key", key.Masked(), "station_id", stationID)
		return weather.RateLimited()
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error("unexpected status fetching station",
			"station_id", stationID,
			"key", key.Masked(),
			"status", resp.StatusCode,
		)
		return weather.Failure(resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	payload, err := decodePayload(resp.Body)
	if err != nil {
		c.logger.Error("failed to decode response", "station_id", stationID, "key", key.Masked(), "error", err)
		return weather.Failure(resp.StatusCode, err)
	}
	return weather.Success(payload)
}

func (c *Client) newRequest(stationID string, key weather.APIKey) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	values := u.Query()
	values.Set(c.localityParam, stationID)
	u.RawQuery = values.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.keyHeader, string(key))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// decodePayload keeps measurement values as their raw JSON text so numbers
// reach the CSV exactly as the API sent them.
func decodePayload(r io.Reader) (*weather.Payload, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}

	payload := &weather.Payload{
		Status:  rawString(body["status"]),
		Message: rawString(body["message"]),
	}

	section, ok := body[weatherSection]
	if !ok || isNull(section) {
		return payload, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(section, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", weatherSection, err)
	}
	payload.Weather = &weather.Observation{
		Temperature:      measurement(fields["temperature"]),
		Humidity:         measurement(fields["humidity"]),
		WindSpeed:        measurement(fields["wind_speed"]),
		WindDirection:    measurement(fields["wind_direction"]),
		RainIntensity:    measurement(fields["rain_intensity"]),
		RainAccumulation: measurement(fields["rain_accumulation"]),
	}
	return payload, nil
}

func measurement(raw json.RawMessage) weather.Measurement {
	return weather.Measurement(rawString(raw))
}

// rawString renders a JSON value as text: strings are unquoted, null and
// missing values become "", everything else is kept verbatim.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
