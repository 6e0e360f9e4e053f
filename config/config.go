package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultWeatherURL   = "http://api.openweathermap.org/data/2.5/weather"
	DefaultForecastURL  = "http://api.openweathermap.org/data/2.5/forecast"
	DefaultGeocodingURL = "http://api.openweathermap.org/geo/1.0/direct"
)

type Config struct {
	ServiceName string

	DBName     string
	DBPassword string
	DBUser     string
	DBPort     string
	DBHost     string

	MigrationsTable string

	Env         string
	LogLevel    string
	HTTPTimeout int32

	OpenWeatherAPIKey string
	WeatherURL        string
	ForecastURL       string
	GeocodingURL      string

	MaxRequestRetries int
	RequestRetryDelay time.Duration

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	FetchInterval    time.Duration
	FetchConcurrency int
	CityCacheTTL     time.Duration

	CitiesFile     string
	ConditionsFile string

	PushgatewayURL string
}

func LoadConfig() (*Config, error) {
	return loadConfig(".")
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVICE_NAME", "weather-collector")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("MIGRATIONS_TABLE", "schema_migrations")
	v.SetDefault("HTTP_TIMEOUT", 10)

	v.SetDefault("OPENWEATHER_WEATHER_URL", DefaultWeatherURL)
	v.SetDefault("OPENWEATHER_FORECAST_URL", DefaultForecastURL)
	v.SetDefault("OPENWEATHER_GEOCODING_URL", DefaultGeocodingURL)

	v.SetDefault("MAX_REQUEST_RETRIES", 3)
	v.SetDefault("REQUEST_RETRY_DELAY", "5s")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")

	v.SetDefault("FETCH_INTERVAL", "1h")
	v.SetDefault("FETCH_CONCURRENCY", 4)
	v.SetDefault("CITY_CACHE_TTL", "10m")

	v.SetDefault("CITIES_FILE", "data/cities.json")
	v.SetDefault("CONDITIONS_FILE", "data/conditions.json")

	v.AutomaticEnv()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Msg("No .env file found, using environment variables only")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	config := &Config{
		ServiceName:        v.GetString("SERVICE_NAME"),
		DBName:             v.GetString("DATABASE_NAME"),
		DBPassword:         v.GetString("DATABASE_PASSWORD"),
		DBUser:             v.GetString("DATABASE_USER"),
		DBPort:             v.GetString("DATABASE_PORT"),
		DBHost:             v.GetString("DATABASE_HOST"),
		MigrationsTable:    v.GetString("MIGRATIONS_TABLE"),
		Env:                v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		HTTPTimeout:        v.GetInt32("HTTP_TIMEOUT"),
		OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
		WeatherURL:         v.GetString("OPENWEATHER_WEATHER_URL"),
		ForecastURL:        v.GetString("OPENWEATHER_FORECAST_URL"),
		GeocodingURL:       v.GetString("OPENWEATHER_GEOCODING_URL"),
		MaxRequestRetries:  v.GetInt("MAX_REQUEST_RETRIES"),
		BreakerMaxFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
		FetchConcurrency:   v.GetInt("FETCH_CONCURRENCY"),
		CitiesFile:         v.GetString("CITIES_FILE"),
		ConditionsFile:     v.GetString("CONDITIONS_FILE"),
		PushgatewayURL:     v.GetString("PUSHGATEWAY_URL"),
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"REQUEST_RETRY_DELAY", &config.RequestRetryDelay},
		{"BREAKER_OPEN_TIMEOUT", &config.BreakerOpenTimeout},
		{"FETCH_INTERVAL", &config.FetchInterval},
		{"CITY_CACHE_TTL", &config.CityCacheTTL},
	}
	for _, d := range durations {
		value, err := parseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = value
	}

	if config.MaxRequestRetries < 1 {
		return nil, fmt.Errorf("MAX_REQUEST_RETRIES must be at least 1, got %d", config.MaxRequestRetries)
	}

	if config.FetchInterval <= 0 {
		return nil, fmt.Errorf("FETCH_INTERVAL must be positive, got %s", config.FetchInterval)
	}

	return config, nil
}

// parseDuration reads a bare integer as seconds and anything else as a Go
// duration string such as "90s" or "1h".
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return time.ParseDuration(raw)
}

func (c *Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}
