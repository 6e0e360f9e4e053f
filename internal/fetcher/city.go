package fetcher

import (
	"context"
	"net/url"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type cityFetcher struct {
	api  providers.APIClient
	req  request
	name string
}

// NewCityFetcher geocodes a free-text city name. At most one city is
// returned: the first match.
func NewCityFetcher(api providers.APIClient, endpoints Endpoints, name string) Fetcher[weatherstore.City] {
	return &cityFetcher{
		api:  api,
		name: name,
		req: request{
			kind:     KindCity,
			endpoint: endpoints.Geocoding,
			params:   url.Values{"q": {name}, "limit": {"1"}},
		},
	}
}

func (f *cityFetcher) Kind() Kind {
	return KindCity
}

func (f *cityFetcher) Run(ctx context.Context) ([]weatherstore.City, error) {
	return run(ctx, f.api, f.req, f.ProcessResponse)
}

func (f *cityFetcher) ProcessResponse(body []byte) []weatherstore.City {
	if !gjson.ValidBytes(body) {
		logMalformed(KindCity, "response is not valid JSON")
		return nil
	}

	matches := gjson.ParseBytes(body)
	if !matches.IsArray() {
		logMalformed(KindCity, "expected a list of matches")
		return nil
	}

	first := matches.Get("0")
	if !first.IsObject() {
		log.Info().Str("city", f.name).Msg("no geocoding match for city")
		return nil
	}

	city, err := weather.ValidateCity(weather.CityInput{
		Name:      first.Get("name").String(),
		Country:   first.Get("country").String(),
		State:     first.Get("state").String(),
		Latitude:  number(first.Get("lat")),
		Longitude: number(first.Get("lon")),
	})
	if err != nil {
		log.Warn().Err(err).Str("city", f.name).Msg("dropping invalid city")
		return nil
	}

	return []weatherstore.City{city}
}

func number(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}

	f := v.Float()
	return &f
}

func logMalformed(kind Kind, reason string) {
	log.Warn().
		Err(providers.ErrMalformedResponse).
		Str("kind", string(kind)).
		Str("reason", reason).
		Msg("discarding response")
}
