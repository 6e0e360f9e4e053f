// Package fetcher turns weather API responses into validated records. Each
// query kind (city geocoding, current weather, forecast) has its own Fetcher
// built by a dedicated constructor; they all share the same request and
// processing loop.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"ulascansenturk/weather-collector/internal/providers"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindCity     Kind = "city"
	KindWeather  Kind = "weather"
	KindForecast Kind = "forecast"
)

type State string

const (
	StatePending          State = "PENDING"
	StateRequesting       State = "REQUESTING"
	StateSucceeded        State = "SUCCEEDED"
	StateConnectionFailed State = "CONNECTION_FAILED"
	StateBadStatus        State = "BAD_STATUS"
	StateProcessing       State = "PROCESSING"
	StateValidatedRecords State = "VALIDATED_RECORDS"
	StateEmpty            State = "EMPTY"
)

type Fetcher[T any] interface {
	Kind() Kind
	// Run requests the API and returns the validated records. Transport and
	// status failures are returned as errors with no records; a response
	// that cannot be processed yields no records and no error.
	Run(ctx context.Context) ([]T, error)
	ProcessResponse(body []byte) []T
}

// Endpoints holds the API URLs the fetchers talk to.
type Endpoints struct {
	Weather   string
	Forecast  string
	Geocoding string
}

type request struct {
	kind     Kind
	endpoint string
	params   url.Values
}

func run[T any](ctx context.Context, api providers.APIClient, req request, process func(body []byte) []T) ([]T, error) {
	logger := log.With().
		Str("kind", string(req.kind)).
		Str("endpoint", req.endpoint).
		Logger()

	logState(logger, StatePending)

	body, err := api.Get(ctx, req.endpoint, req.params)
	if err != nil {
		state := StateConnectionFailed
		if errors.Is(err, providers.ErrBadStatus) {
			state = StateBadStatus
		}
		logger.Warn().Err(err).Str("state", string(state)).Msg("fetch failed")

		return nil, fmt.Errorf("%s fetch: %w", req.kind, err)
	}

	logState(logger, StateSucceeded)
	logState(logger, StateProcessing)

	records := process(body)
	if len(records) == 0 {
		logState(logger, StateEmpty)
		return nil, nil
	}

	logger.Debug().
		Str("state", string(StateValidatedRecords)).
		Int("records", len(records)).
		Msg("fetch state")

	return records, nil
}

func logState(logger zerolog.Logger, state State) {
	logger.Debug().Str("state", string(state)).Msg("fetch state")
}

func coordinates(lat, lon float64) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
}
