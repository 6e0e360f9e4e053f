package fetcher

import (
	"context"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type forecastFetcher struct {
	api    providers.APIClient
	req    request
	cityID uint
}

// NewForecastFetcher fetches the 5 day / 3 hour forecast for a city. Each
// entry keeps its own forecast time.
func NewForecastFetcher(api providers.APIClient, endpoints Endpoints, cityID uint, lat, lon float64) Fetcher[weatherstore.Weather] {
	return &forecastFetcher{
		api:    api,
		cityID: cityID,
		req: request{
			kind:     KindForecast,
			endpoint: endpoints.Forecast,
			params:   coordinates(lat, lon),
		},
	}
}

func (f *forecastFetcher) Kind() Kind {
	return KindForecast
}

func (f *forecastFetcher) Run(ctx context.Context) ([]weatherstore.Weather, error) {
	return run(ctx, f.api, f.req, f.ProcessResponse)
}

func (f *forecastFetcher) ProcessResponse(body []byte) []weatherstore.Weather {
	if !gjson.ValidBytes(body) {
		logMalformed(KindForecast, "response is not valid JSON")
		return nil
	}

	entries := gjson.GetBytes(body, "list")
	if !entries.IsArray() {
		logMalformed(KindForecast, "missing forecast list")
		return nil
	}

	var records []weatherstore.Weather
	skipped := 0

	entries.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			skipped++
			return true
		}

		record, err := weather.ValidateWeather(weather.Normalize(entry, f.cityID))
		if err != nil {
			skipped++
			log.Debug().Err(err).Uint("city", f.cityID).Msg("skipping forecast entry")
			return true
		}

		records = append(records, record)
		return true
	})

	if skipped > 0 {
		log.Warn().
			Uint("city", f.cityID).
			Int("skipped", skipped).
			Int("kept", len(records)).
			Msg("dropped invalid forecast entries")
	}

	return records
}
