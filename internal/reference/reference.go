package reference

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/rs/zerolog/log"
)

// ReadCityNames reads a JSON array of city names. A missing or malformed file
// yields an empty list.
func ReadCityNames(path string) []string {
	names, _ := readJSON[[]string](path)
	return names
}

// ReadConditions reads the condition vocabulary. A missing or malformed file
// yields an empty list.
func ReadConditions(path string) []weather.ConditionInput {
	conditions, _ := readJSON[[]weather.ConditionInput](path)
	return conditions
}

func readJSON[T any](path string) (T, bool) {
	var out T

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error().Str("file", path).Msg("reference file not found")
		} else {
			log.Error().Err(err).Str("file", path).Msg("failed to read reference file")
		}
		return out, false
	}

	if err := json.Unmarshal(data, &out); err != nil {
		log.Error().Err(err).Str("file", path).Msg("malformed reference file")
		var zero T
		return zero, false
	}

	return out, true
}
