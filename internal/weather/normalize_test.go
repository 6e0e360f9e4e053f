package weather_test

import (
	"testing"
	"time"
	"ulascansenturk/weather-collector/internal/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const currentWeather = `{
	"coord": {"lon": -46.6334, "lat": -23.5507},
	"weather": [{"id": 802, "main": "Clouds", "description": "scattered clouds", "icon": "03n"}],
	"main": {"temp": 283.49, "feels_like": 282.73, "temp_min": 281.76, "temp_max": 285.47, "pressure": 1020, "humidity": 73},
	"wind": {"speed": 4.12, "deg": 290},
	"clouds": {"all": 40},
	"dt": 1697317200,
	"name": "São Paulo"
}`

func TestNormalizeCurrentWeather(t *testing.T) {
	reading := weather.Normalize(gjson.Parse(currentWeather), 7)

	assert.Equal(t, uint(7), reading.City)
	require.NotNil(t, reading.Condition)
	assert.Equal(t, 802.0, *reading.Condition)
	require.NotNil(t, reading.Temp)
	assert.Equal(t, 283.49, *reading.Temp)
	assert.Equal(t, 281.76, *reading.TempMin)
	assert.Equal(t, 285.47, *reading.TempMax)
	assert.Equal(t, 1020.0, *reading.Pressure)
	assert.Equal(t, 73.0, *reading.Humidity)
	assert.Equal(t, 4.12, *reading.WindSpeed)
	assert.Equal(t, 290.0, *reading.WindDirection)
	assert.Nil(t, reading.WindGust)
	assert.Equal(t, 40.0, *reading.Clouds)
	require.NotNil(t, reading.Timestamp)
	assert.Equal(t, time.Date(2023, 10, 14, 21, 0, 0, 0, time.UTC), *reading.Timestamp)
}

func TestNormalizeWithoutSubObjects(t *testing.T) {
	reading := weather.Normalize(gjson.Parse(`{"dt": 1, "visibility": 10000}`), 3)

	assert.Equal(t, weather.Reading{City: 3, Timestamp: reading.Timestamp}, reading)
	require.NotNil(t, reading.Timestamp)
	assert.Equal(t, time.Unix(1, 0).UTC(), *reading.Timestamp)

	reading = weather.Normalize(gjson.Parse(`{"visibility": 10000}`), 3)
	assert.Equal(t, weather.Reading{City: 3}, reading)
}

func TestNormalizeEmptyWeatherList(t *testing.T) {
	reading := weather.Normalize(gjson.Parse(`{"weather": [], "clouds": {"all": 0}}`), 1)

	assert.Nil(t, reading.Condition)
	require.NotNil(t, reading.Clouds)
	assert.Equal(t, 0.0, *reading.Clouds)
}

func TestNormalizeNonObjectInput(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `42`, `null`, ``, `{broken`} {
		reading := weather.Normalize(gjson.Parse(raw), 1)
		assert.Equal(t, weather.Reading{}, reading, "input %q", raw)
	}
}

func TestNormalizeKeepsFractionalNumbers(t *testing.T) {
	reading := weather.Normalize(gjson.Parse(`{"main": {"humidity": 100.9, "pressure": 0.5}, "wind": {"deg": 360.7}, "clouds": {"all": -0.4}}`), 1)

	assert.Equal(t, 100.9, *reading.Humidity)
	assert.Equal(t, 0.5, *reading.Pressure)
	assert.Equal(t, 360.7, *reading.WindDirection)
	assert.Equal(t, -0.4, *reading.Clouds)
}
