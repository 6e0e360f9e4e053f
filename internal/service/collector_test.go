package service_test

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/fetcher"
	"ulascansenturk/weather-collector/internal/inmemorycache"
	"ulascansenturk/weather-collector/internal/metrics"
	"ulascansenturk/weather-collector/internal/mocks"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var endpoints = fetcher.Endpoints{
	Weather:   "http://api.openweathermap.org/data/2.5/weather",
	Forecast:  "http://api.openweathermap.org/data/2.5/forecast",
	Geocoding: "http://api.openweathermap.org/geo/1.0/direct",
}

const (
	currentBody  = `{"weather": [{"id": 802}], "main": {"temp": 283.49, "pressure": 1020, "humidity": 73}, "clouds": {"all": 40}, "dt": 1697311534}`
	forecastBody = `{"list": [
		{"dt": 1697317200, "main": {"temp": 285}, "weather": [{"id": 802}]},
		{"dt": 1697328000, "main": {"temp": 999}},
		{"dt": 1697338800, "main": {"temp": 283.35}, "weather": [{"id": 804}]}
	]}`
)

var now = time.Date(2023, 10, 14, 18, 0, 0, 0, time.UTC)

type CollectorTestSuite struct {
	suite.Suite
	repo      *mocks.MockRepository
	api       *mocks.MockAPIClient
	cache     *inmemorycache.InMemoryCache[[]weatherstore.City]
	recorder  *metrics.Recorder
	collector service.WeatherCollector
	ctx       context.Context
}

func (s *CollectorTestSuite) SetupTest() {
	s.repo = mocks.NewMockRepository(s.T())
	s.api = mocks.NewMockAPIClient(s.T())
	s.cache = inmemorycache.NewInMemoryCache[[]weatherstore.City](time.Minute)
	s.recorder = metrics.NewRecorder("", "weather-collector")
	s.collector = service.NewWeatherCollector(s.repo, s.api, endpoints, s.cache, service.Options{
		Concurrency:  2,
		CityCacheTTL: time.Minute,
		Metrics:      s.recorder,
		Now:          func() time.Time { return now },
	})
	s.ctx = context.Background()
}

func (s *CollectorTestSuite) TearDownTest() {
	s.cache.Close()
}

func (s *CollectorTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func withLat(lat string) interface{} {
	return mock.MatchedBy(func(p url.Values) bool { return p.Get("lat") == lat })
}

func withQuery(q string) interface{} {
	return mock.MatchedBy(func(p url.Values) bool { return p.Get("q") == q })
}

func country(c string) *string {
	return &c
}

func (s *CollectorTestSuite) TestLoadConditionsSkipsInvalidEntries() {
	path := s.writeFile("conditions.json", `[
		{"id": 800, "main": "Clear", "description": "clear sky"},
		{"main": "Clouds", "description": "missing id"},
		{"id": 802, "main": "Clouds", "description": "scattered clouds: 25-50%"}
	]`)

	s.repo.On("InsertConditions", mock.Anything, []weatherstore.Condition{
		{ID: 800, Main: "Clear", Description: "clear sky"},
		{ID: 802, Main: "Clouds", Description: "scattered clouds: 25-50%"},
	}).Return(nil).Once()

	s.NoError(s.collector.LoadConditions(s.ctx, path))
}

func (s *CollectorTestSuite) TestLoadConditionsMissingFile() {
	s.repo.On("InsertConditions", mock.Anything, mock.MatchedBy(func(c []weatherstore.Condition) bool {
		return len(c) == 0
	})).Return(nil).Once()

	s.NoError(s.collector.LoadConditions(s.ctx, filepath.Join(s.T().TempDir(), "missing.json")))
}

func (s *CollectorTestSuite) TestLoadConditionsReportsConflict() {
	path := s.writeFile("conditions.json", `[{"id": 800, "main": "Clear", "description": "clear sky"}]`)
	conflict := &weatherstore.ConflictError{Table: weatherstore.TableConditions, Err: errors.New("duplicated key")}

	s.repo.On("InsertConditions", mock.Anything, mock.Anything).Return(conflict).Once()

	err := s.collector.LoadConditions(s.ctx, path)
	s.True(errors.Is(err, weatherstore.ErrPersistenceConflict))
}

func (s *CollectorTestSuite) TestLoadCities() {
	path := s.writeFile("cities.json", `["São Paulo", "Sao Paulo", "Atlantis", "Moscow"]`)
	saoPaulo := []byte(`[{"name": "São Paulo", "local_names": {"pt": "São Paulo"}, "lat": -23.5506507, "lon": -46.6333824, "country": "BR", "state": "São Paulo"}]`)

	s.api.On("Get", mock.Anything, endpoints.Geocoding, withQuery("São Paulo")).Return(saoPaulo, nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Geocoding, withQuery("Sao Paulo")).Return(saoPaulo, nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Geocoding, withQuery("Atlantis")).Return([]byte(`[]`), nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Geocoding, withQuery("Moscow")).
		Return(nil, &providers.ConnectionError{Endpoint: endpoints.Geocoding, Attempts: 3, Err: errors.New("refused")}).
		Once()

	s.repo.On("InsertCities", mock.Anything, []weatherstore.City{
		{Name: "São Paulo", Country: country("BR"), State: country("São Paulo"), Latitude: -23.5506507, Longitude: -46.6333824},
	}).Return(nil).Once()

	s.cache.Set("cities", []weatherstore.City{{ID: 9}}, time.Minute)

	s.NoError(s.collector.LoadCities(s.ctx, path))

	_, cached := s.cache.Get("cities")
	s.False(cached)

	expected := `
# HELP weather_collector_fetch_total Weather API fetches by query kind and outcome.
# TYPE weather_collector_fetch_total counter
weather_collector_fetch_total{kind="city",outcome="connection_failed"} 1
weather_collector_fetch_total{kind="city",outcome="success"} 3
`
	s.NoError(testutil.GatherAndCompare(s.recorder.Registry(), strings.NewReader(expected), "weather_collector_fetch_total"))
}

func (s *CollectorTestSuite) TestFetchWeather() {
	cities := []weatherstore.City{
		{ID: 1, Name: "São Paulo", Latitude: 10, Longitude: 20},
		{ID: 2, Name: "Moscow", Latitude: 30, Longitude: 40},
	}
	s.repo.On("ListCities", mock.Anything).Return(cities, nil).Once()

	s.api.On("Get", mock.Anything, endpoints.Weather, mock.Anything).Return([]byte(currentBody), nil).Twice()
	s.api.On("Get", mock.Anything, endpoints.Forecast, withLat("10")).Return([]byte(forecastBody), nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Forecast, withLat("30")).
		Return(nil, &providers.BadStatusError{Endpoint: endpoints.Forecast, StatusCode: 429}).
		Once()

	s.repo.On("ReplaceWeatherForecasts", mock.Anything, mock.MatchedBy(func(records []weatherstore.Weather) bool {
		return len(records) == 2 &&
			records[0].City == 1 && *records[0].Temp == 285 &&
			records[1].City == 1 && *records[1].Temp == 283.35 &&
			records[0].Timestamp.Equal(time.Date(2023, 10, 14, 21, 0, 0, 0, time.UTC))
	})).Return(nil).Once()

	s.repo.On("AppendWeatherFacts", mock.Anything, mock.MatchedBy(func(records []weatherstore.Weather) bool {
		return len(records) == 2 &&
			records[0].City == 1 && records[1].City == 2 &&
			records[0].Timestamp.Equal(now) && records[1].Timestamp.Equal(now) &&
			*records[0].Condition == 802
	})).Return(nil).Once()

	s.NoError(s.collector.FetchWeather(s.ctx))

	expected := `
# HELP weather_collector_fetch_total Weather API fetches by query kind and outcome.
# TYPE weather_collector_fetch_total counter
weather_collector_fetch_total{kind="forecast",outcome="bad_status"} 1
weather_collector_fetch_total{kind="forecast",outcome="success"} 1
weather_collector_fetch_total{kind="weather",outcome="success"} 2
`
	s.NoError(testutil.GatherAndCompare(s.recorder.Registry(), strings.NewReader(expected), "weather_collector_fetch_total"))
}

func (s *CollectorTestSuite) TestFetchWeatherPersistsFactsWhenForecastsConflict() {
	s.repo.On("ListCities", mock.Anything).Return([]weatherstore.City{{ID: 1, Latitude: 10, Longitude: 20}}, nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Weather, mock.Anything).Return([]byte(currentBody), nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Forecast, mock.Anything).Return([]byte(forecastBody), nil).Once()

	conflict := &weatherstore.ConflictError{Table: weatherstore.TableWeatherForecast, Err: errors.New("foreign key")}
	s.repo.On("ReplaceWeatherForecasts", mock.Anything, mock.Anything).Return(conflict).Once()
	s.repo.On("AppendWeatherFacts", mock.Anything, mock.Anything).Return(nil).Once()

	err := s.collector.FetchWeather(s.ctx)

	s.Require().Error(err)
	s.True(errors.Is(err, weatherstore.ErrPersistenceConflict))
}

func (s *CollectorTestSuite) TestFetchWeatherPrunesStaleForecastsWhenNoneArrive() {
	s.repo.On("ListCities", mock.Anything).Return([]weatherstore.City{{ID: 1, Latitude: 10, Longitude: 20}}, nil).Once()
	s.api.On("Get", mock.Anything, endpoints.Weather, mock.Anything).
		Return(nil, &providers.ConnectionError{Endpoint: endpoints.Weather, Attempts: 3, Err: errors.New("refused")}).
		Once()
	s.api.On("Get", mock.Anything, endpoints.Forecast, mock.Anything).
		Return(nil, &providers.ConnectionError{Endpoint: endpoints.Forecast, Attempts: 3, Err: errors.New("refused")}).
		Once()

	s.repo.On("PruneWeatherForecasts", mock.Anything, now).Return(nil).Once()
	s.repo.On("AppendWeatherFacts", mock.Anything, mock.Anything).Return(nil).Once()

	s.NoError(s.collector.FetchWeather(s.ctx))
	s.repo.AssertNotCalled(s.T(), "ReplaceWeatherForecasts", mock.Anything, mock.Anything)
}

func (s *CollectorTestSuite) TestFetchWeatherCachesCityList() {
	s.repo.On("ListCities", mock.Anything).Return([]weatherstore.City{}, nil).Once()
	s.repo.On("PruneWeatherForecasts", mock.Anything, now).Return(nil).Twice()
	s.repo.On("AppendWeatherFacts", mock.Anything, mock.Anything).Return(nil).Twice()

	s.NoError(s.collector.FetchWeather(s.ctx))
	s.NoError(s.collector.FetchWeather(s.ctx))
}

func (s *CollectorTestSuite) TestFetchWeatherListCitiesError() {
	s.repo.On("ListCities", mock.Anything).Return(nil, errors.New("connection error")).Once()

	err := s.collector.FetchWeather(s.ctx)

	s.Require().Error(err)
	s.Contains(err.Error(), "connection error")
	s.repo.AssertNotCalled(s.T(), "AppendWeatherFacts", mock.Anything, mock.Anything)
}

func (s *CollectorTestSuite) TestFetchWeatherCancelled() {
	s.repo.On("ListCities", mock.Anything).Return([]weatherstore.City{{ID: 1, Latitude: 10, Longitude: 20}}, nil).Once()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.collector.FetchWeather(ctx)

	s.True(errors.Is(err, context.Canceled))
	s.api.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectorTestSuite(t *testing.T) {
	suite.Run(t, new(CollectorTestSuite))
}
