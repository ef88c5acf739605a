package weather

import (
	"time"
)

// Locality represents a station for which we request current weather.
// StationID must be provided; the other fields are display metadata kept verbatim.
type Locality struct {
	StationID string `json:"stationId" validate:"required"`
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// APIKey is an opaque Weather Union credential.
type APIKey string

// Masked returns a form of the key that is safe to log.
func (k APIKey) Masked() string {
	s := string(k)
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// Measurement holds a single observation value as it appeared in the API
// response. The empty Measurement means the field was absent or null.
type Measurement string

// Valid reports whether the API returned a value.
func (m Measurement) Valid() bool {
	return m != ""
}

// WeatherRecord is one row of the output batch.
type WeatherRecord struct {
	StationID    string    `json:"stationId"`
	LocalityName string    `json:"localityName"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	ObservedAt   time.Time `json:"observedAt"` // time of the call, not of the measurement

	Temperature   Measurement `json:"temperature"`
	Humidity      Measurement `json:"humidity"`
	WindSpeed     Measurement `json:"windSpeed"`
	WindDirection Measurement `json:"windDirection"`
	RainIntensity Measurement `json:"rainIntensity"`
	TotalRainfall Measurement `json:"totalRainfall"`
}

// NewRecord builds a record for loc from an observation taken at ts.
func NewRecord(loc Locality, obs Observation, ts time.Time) WeatherRecord {
	return WeatherRecord{
		StationID:     loc.StationID,
		LocalityName:  loc.Name,
		Latitude:      loc.Latitude,
		Longitude:     loc.Longitude,
		ObservedAt:    ts,
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		WindSpeed:     obs.WindSpeed,
		WindDirection: obs.WindDirection,
		RainIntensity: obs.RainIntensity,
		TotalRainfall: obs.RainAccumulation,
	}
}

// Observation is the locality_weather_data section of a Weather Union response.
type Observation struct {
	Temperature      Measurement
	Humidity         Measurement
	WindSpeed        Measurement
	WindDirection    Measurement
	RainIntensity    Measurement
	RainAccumulation Measurement
}

// Payload is a decoded 200 response. Weather is nil when the response carried
// no weather-data section.
type Payload struct {
	Status  string
	Message string
	Weather *Observation
}
