package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/fetcher"
	"ulascansenturk/weather-collector/internal/inmemorycache"
	"ulascansenturk/weather-collector/internal/metrics"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/reference"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const citiesCacheKey = "cities"

type WeatherCollector interface {
	LoadConditions(ctx context.Context, path string) error
	LoadCities(ctx context.Context, path string) error
	FetchWeather(ctx context.Context) error
}

type Options struct {
	Concurrency  int
	CityCacheTTL time.Duration
	Metrics      *metrics.Recorder
	Now          func() time.Time
}

type weatherCollector struct {
	repo        weatherstore.Repository
	api         providers.APIClient
	endpoints   fetcher.Endpoints
	cities      inmemorycache.Cache[[]weatherstore.City]
	cityTTL     time.Duration
	metrics     *metrics.Recorder
	concurrency int
	now         func() time.Time
}

func NewWeatherCollector(
	repo weatherstore.Repository,
	api providers.APIClient,
	endpoints fetcher.Endpoints,
	cityCache inmemorycache.Cache[[]weatherstore.City],
	opts Options,
) WeatherCollector {
	c := &weatherCollector{
		repo:        repo,
		api:         api,
		endpoints:   endpoints,
		cities:      cityCache,
		cityTTL:     opts.CityCacheTTL,
		metrics:     opts.Metrics,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}

	if c.metrics == nil {
		c.metrics = metrics.NewRecorder("", "")
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c
}

func (c *weatherCollector) LoadConditions(ctx context.Context, path string) error {
	return traced(ctx, "load_conditions", func(ctx context.Context) error {
		inputs := reference.ReadConditions(path)

		conditions := make([]weatherstore.Condition, 0, len(inputs))
		for _, in := range inputs {
			condition, err := weather.ValidateCondition(in)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("skipping invalid condition")
				continue
			}
			conditions = append(conditions, condition)
		}

		zerolog.Ctx(ctx).Info().
			Int("valid", len(conditions)).
			Int("total", len(inputs)).
			Msg("conditions read")

		err := c.repo.InsertConditions(ctx, conditions)
		c.metrics.ObservePersist(weatherstore.TableConditions, len(conditions), err)

		return err
	})
}

func (c *weatherCollector) LoadCities(ctx context.Context, path string) error {
	return traced(ctx, "load_cities", func(ctx context.Context) error {
		names := reference.ReadCityNames(path)

		var (
			mu     sync.Mutex
			cities []weatherstore.City
		)

		err := forEach(ctx, c.concurrency, names, func(ctx context.Context, name string) {
			f := fetcher.NewCityFetcher(c.api, c.endpoints, name)
			records, err := f.Run(ctx)
			c.metrics.ObserveFetch(string(f.Kind()), err)

			mu.Lock()
			cities = append(cities, records...)
			mu.Unlock()
		})
		if err != nil {
			return err
		}

		cities = uniqueCities(cities)

		zerolog.Ctx(ctx).Info().
			Int("resolved", len(cities)).
			Int("total", len(names)).
			Msg("got data for cities")

		err = c.repo.InsertCities(ctx, cities)
		c.metrics.ObservePersist(weatherstore.TableCities, len(cities), err)
		if err != nil {
			return err
		}

		c.cities.Delete(citiesCacheKey)

		return nil
	})
}

// FetchWeather runs one cycle: current weather and forecast for every known
// city, then forecast replacement and fact append. A failure in one of the two
// writes does not prevent the other. When no forecast came back at all, the
// forecasts already in the past are dropped and the rest are kept.
func (c *weatherCollector) FetchWeather(ctx context.Context) error {
	ctx = log.With().Str("cycle_id", uuid.NewString()).Logger().WithContext(ctx)

	return traced(ctx, "fetch_weather", func(ctx context.Context) error {
		start := time.Now()
		defer func() {
			c.metrics.ObserveCycle(time.Since(start))
			if err := c.metrics.Push(ctx); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to push metrics")
			}
		}()

		cities, err := c.listCities(ctx)
		if err != nil {
			return fmt.Errorf("listing cities: %w", err)
		}

		timestamp := c.now().UTC()

		var (
			mu        sync.Mutex
			facts     []weatherstore.Weather
			forecasts []weatherstore.Weather
		)

		err = forEach(ctx, c.concurrency, cities, func(ctx context.Context, city weatherstore.City) {
			wf := fetcher.NewWeatherFetcher(c.api, c.endpoints, timestamp, city.ID, city.Latitude, city.Longitude)
			current, err := wf.Run(ctx)
			c.metrics.ObserveFetch(string(wf.Kind()), err)

			ff := fetcher.NewForecastFetcher(c.api, c.endpoints, city.ID, city.Latitude, city.Longitude)
			predicted, err := ff.Run(ctx)
			c.metrics.ObserveFetch(string(ff.Kind()), err)

			mu.Lock()
			facts = append(facts, current...)
			forecasts = append(forecasts, predicted...)
			mu.Unlock()
		})
		if err != nil {
			return err
		}

		sortWeather(facts)
		sortWeather(forecasts)

		zerolog.Ctx(ctx).Info().
			Int("cities", len(cities)).
			Int("facts", len(facts)).
			Int("forecasts", len(forecasts)).
			Msg("got weather data")

		var result *multierror.Error

		if len(forecasts) > 0 {
			err = c.repo.ReplaceWeatherForecasts(ctx, forecasts)
			c.metrics.ObservePersist(weatherstore.TableWeatherForecast, len(forecasts), err)
		} else {
			err = c.repo.PruneWeatherForecasts(ctx, timestamp)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}

		err = c.repo.AppendWeatherFacts(ctx, facts)
		c.metrics.ObservePersist(weatherstore.TableWeatherFact, len(facts), err)
		if err != nil {
			result = multierror.Append(result, err)
		}

		return result.ErrorOrNil()
	})
}

func (c *weatherCollector) listCities(ctx context.Context) ([]weatherstore.City, error) {
	if cities, ok := c.cities.Get(citiesCacheKey); ok {
		return cities, nil
	}

	cities, err := c.repo.ListCities(ctx)
	if err != nil {
		return nil, err
	}

	c.cities.Set(citiesCacheKey, cities, c.cityTTL)

	return cities, nil
}

// forEach calls fn for every item with at most limit calls in flight. Items
// not yet started when ctx is cancelled are skipped.
func forEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T)) error {
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		item := item
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait()

	return ctx.Err()
}

func uniqueCities(cities []weatherstore.City) []weatherstore.City {
	seen := make(map[string]struct{}, len(cities))
	unique := cities[:0]

	for _, city := range cities {
		key := city.Name + "|"
		if city.Country != nil {
			key += *city.Country
		}

		if _, dup := seen[key]; dup {
			log.Info().Str("city", city.Name).Msg("skipping duplicate geocoding result")
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, city)
	}

	return unique
}

func sortWeather(records []weatherstore.Weather) {
	slices.SortFunc(records, func(a, b weatherstore.Weather) int {
		if n := cmp.Compare(a.City, b.City); n != 0 {
			return n
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func traced(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	logger := zerolog.Ctx(ctx).With().Str("operation", operation).Logger()
	if logger.GetLevel() == zerolog.Disabled {
		logger = log.With().Str("operation", operation).Logger()
	}
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Info().Msg("operation started")

	err := fn(ctx)

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Dur("duration", time.Since(start)).Msg("operation finished")

	return err
}
