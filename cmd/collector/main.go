package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"ulascansenturk/weather-collector/config"
	"ulascansenturk/weather-collector/internal/db/weatherstore"
	"ulascansenturk/weather-collector/internal/fetcher"
	"ulascansenturk/weather-collector/internal/inmemorycache"
	"ulascansenturk/weather-collector/internal/metrics"
	"ulascansenturk/weather-collector/internal/providers"
	"ulascansenturk/weather-collector/internal/scheduler"
	"ulascansenturk/weather-collector/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	loadCities     = "cities"
	loadConditions = "conditions"
	startProgram   = "program"
)

func main() {
	flags := flag.NewFlagSet("weather-collector", flag.ContinueOnError)
	load := flags.String("load", "", "load reference data into the database: cities | conditions")
	start := flags.String("start", "", "start the periodic weather collection")
	migration := flags.String("migrate", "", "apply or revert the database schema: up | down")
	flags.Lookup("start").NoOptDefVal = startProgram

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logLevel, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).
		Level(logLevel).
		With().
		Str("service_name", conf.ServiceName).
		Timestamp().
		Logger()
	log.Logger = logger

	ctx, mainCtxStop := context.WithCancel(context.Background())
	defer mainCtxStop()

	switch {
	case *migration != "":
		err = runMigrations(conf, *migration)
	case *load == loadCities || *load == loadConditions:
		err = runLoad(ctx, conf, *load)
	case *start == startProgram && validStartArgs(flags.Args()):
		err = runCollector(ctx, mainCtxStop, conf)
	default:
		log.Error().Strs("args", os.Args[1:]).Msg("invalid option")
		fmt.Fprintln(os.Stderr, "usage: weather-collector [--load cities|conditions] [--start] [--migrate up|down]")
		flags.PrintDefaults()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("weather collector stopped with error")
	}
}

// validStartArgs accepts both "--start" and the older "--start program".
func validStartArgs(args []string) bool {
	return len(args) == 0 || (len(args) == 1 && args[0] == startProgram)
}

func runMigrations(conf *config.Config, direction string) error {
	sqlDB, err := sql.Open("pgx", conf.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	return weatherstore.Migrate(sqlDB, conf.MigrationsTable, direction)
}

func runLoad(ctx context.Context, conf *config.Config, target string) error {
	collector, cleanup, err := newCollector(conf)
	if err != nil {
		return err
	}
	defer cleanup()

	if target == loadConditions {
		return collector.LoadConditions(ctx, conf.ConditionsFile)
	}

	return collector.LoadCities(ctx, conf.CitiesFile)
}

func runCollector(ctx context.Context, cancel context.CancelFunc, conf *config.Config) error {
	collector, cleanup, err := newCollector(conf)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := collector.LoadConditions(ctx, conf.ConditionsFile); err != nil {
		log.Warn().Err(err).Msg("loading conditions failed, continuing")
	}
	if err := collector.LoadCities(ctx, conf.CitiesFile); err != nil {
		log.Warn().Err(err).Msg("loading cities failed, continuing")
	}

	sched := scheduler.New("fetch_weather", conf.FetchInterval, collector.FetchWeather)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	handleSignals(ctx, cancel, sched.Stop)

	<-ctx.Done()

	return nil
}

func newCollector(conf *config.Config) (service.WeatherCollector, func(), error) {
	db, err := initializeDatabase(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := weatherstore.NewRepository(db)

	apiClient := providers.NewClient(
		conf.OpenWeatherAPIKey,
		providers.WithTimeout(conf.HTTPTimeoutDuration()),
		providers.WithRetry(conf.MaxRequestRetries, conf.RequestRetryDelay),
		providers.WithCircuitBreaker(conf.BreakerMaxFailures, conf.BreakerOpenTimeout),
	)

	cityCache := inmemorycache.NewInMemoryCache[[]weatherstore.City](time.Minute)

	collector := service.NewWeatherCollector(
		repo,
		apiClient,
		fetcher.Endpoints{
			Weather:   conf.WeatherURL,
			Forecast:  conf.ForecastURL,
			Geocoding: conf.GeocodingURL,
		},
		cityCache,
		service.Options{
			Concurrency:  conf.FetchConcurrency,
			CityCacheTTL: conf.CityCacheTTL,
			Metrics:      metrics.NewRecorder(conf.PushgatewayURL, conf.ServiceName),
		},
	)

	cleanup := func() {
		cityCache.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	return collector, cleanup, nil
}

func initializeDatabase(config *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(3 * time.Minute)

	return db, nil
}

func handleSignals(ctx context.Context, cancelCtx context.CancelFunc, callback func()) {
	sig := make(chan os.Signal, 1)

	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	const shutdownDuration = 30 * time.Second

	go func() {
		<-sig

		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownDuration)

		go func() {
			<-shutdownCtx.Done()

			if shutdownCtx.Err() == context.DeadlineExceeded {
				panic("graceful shutdown timed out.. forcing exit.")
			}
		}()

		callback()

		cancel()
		cancelCtx()
	}()
}
