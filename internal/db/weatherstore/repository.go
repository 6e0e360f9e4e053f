package weatherstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrPersistenceConflict = errors.New("persistence conflict")

// ConflictError reports a uniqueness or foreign-key violation that aborted a
// bulk insert into Table.
type ConflictError struct {
	Table string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s on %s: %v", ErrPersistenceConflict, e.Table, e.Err)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrPersistenceConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

type Repository interface {
	InsertCities(ctx context.Context, cities []City) error
	InsertConditions(ctx context.Context, conditions []Condition) error
	AppendWeatherFacts(ctx context.Context, records []Weather) error
	ReplaceWeatherForecasts(ctx context.Context, records []Weather) error
	PruneWeatherForecasts(ctx context.Context, before time.Time) error
	ListCities(ctx context.Context) ([]City, error)
}

type WeatherSQLRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &WeatherSQLRepository{db: db}
}

func (r *WeatherSQLRepository) InsertCities(ctx context.Context, cities []City) error {
	return bulkInsert(ctx, r.db, TableCities, cities, nil)
}

func (r *WeatherSQLRepository) InsertConditions(ctx context.Context, conditions []Condition) error {
	return bulkInsert(ctx, r.db, TableConditions, conditions, nil)
}

func (r *WeatherSQLRepository) AppendWeatherFacts(ctx context.Context, records []Weather) error {
	return bulkInsert(ctx, r.db, TableWeatherFact, records, nil)
}

// ReplaceWeatherForecasts clears weather_forecast and inserts records in the
// same transaction. An empty batch leaves the table untouched.
func (r *WeatherSQLRepository) ReplaceWeatherForecasts(ctx context.Context, records []Weather) error {
	return bulkInsert(ctx, r.db, TableWeatherForecast, records, func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Table(TableWeatherForecast).
			Delete(&Weather{})
		if result.Error != nil {
			return result.Error
		}

		log.Debug().
			Str("table", TableWeatherForecast).
			Int64("rows", result.RowsAffected).
			Msg("cleared forecasts")

		return nil
	})
}

// PruneWeatherForecasts removes forecasts for timestamps before the given
// time. Later forecasts stay until a non-empty batch replaces them.
func (r *WeatherSQLRepository) PruneWeatherForecasts(ctx context.Context, before time.Time) error {
	result := r.db.WithContext(ctx).
		Table(TableWeatherForecast).
		Where(`"timestamp" < ?`, before.UTC()).
		Delete(&Weather{})
	if result.Error != nil {
		return fmt.Errorf("pruning %s: %w", TableWeatherForecast, result.Error)
	}

	log.Debug().
		Str("table", TableWeatherForecast).
		Int64("rows", result.RowsAffected).
		Time("before", before.UTC()).
		Msg("pruned stale forecasts")

	return nil
}

func (r *WeatherSQLRepository) ListCities(ctx context.Context) ([]City, error) {
	var cities []City
	err := r.db.WithContext(ctx).Order("id").Find(&cities).Error
	if err != nil {
		return nil, err
	}

	return cities, nil
}

func bulkInsert[T any](ctx context.Context, db *gorm.DB, table string, records []T, before func(tx *gorm.DB) error) error {
	if len(records) == 0 {
		return nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if before != nil {
			if err := before(tx); err != nil {
				return err
			}
		}

		return tx.Table(table).Create(&records).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return &ConflictError{Table: table, Err: err}
		}

		return fmt.Errorf("bulk insert into %s: %w", table, err)
	}

	log.Debug().Str("table", table).Int("rows", len(records)).Msg("bulk insert committed")

	return nil
}
