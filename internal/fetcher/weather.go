package fetcher

import (
	"context"
	"time"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type weatherFetcher struct {
	api       providers.APIClient
	req       request
	cityID    uint
	timestamp time.Time
}

// NewWeatherFetcher fetches the current observation for a city. The record is
// stamped with timestamp rather than the observation time reported by the API.
func NewWeatherFetcher(api providers.APIClient, endpoints Endpoints, timestamp time.Time, cityID uint, lat, lon float64) Fetcher[weatherstore.Weather] {
	return &weatherFetcher{
		api:       api,
		cityID:    cityID,
		timestamp: timestamp.UTC(),
		req: request{
			kind:     KindWeather,
			endpoint: endpoints.Weather,
			params:   coordinates(lat, lon),
		},
	}
}

func (f *weatherFetcher) Kind() Kind {
	return KindWeather
}

func (f *weatherFetcher) Run(ctx context.Context) ([]weatherstore.Weather, error) {
	return run(ctx, f.api, f.req, f.ProcessResponse)
}

func (f *weatherFetcher) ProcessResponse(body []byte) []weatherstore.Weather {
	if !gjson.ValidBytes(body) {
		logMalformed(KindWeather, "response is not valid JSON")
		return nil
	}

	observation := gjson.ParseBytes(body)
	if !observation.IsObject() {
		logMalformed(KindWeather, "expected an object")
		return nil
	}

	reading := weather.Normalize(observation, f.cityID)
	ts := f.timestamp
	reading.Timestamp = &ts

	record, err := weather.ValidateWeather(reading)
	if err != nil {
		log.Warn().Err(err).Uint("city", f.cityID).Msg("dropping invalid weather record")
		return nil
	}

	return []weatherstore.Weather{record}
}
