package weather

import (
	"time"

	"github.com/tidwall/gjson"
)

// Reading is a normalized weather payload. A nil field means the source
// payload did not carry it. Integer columns keep the number as received so a
// fractional value is rejected instead of truncated.
type Reading struct {
	City          uint       `json:"city" validate:"required"`
	Condition     *float64   `json:"condition" validate:"omitnil,integer"`
	Temp          *float64   `json:"temp" validate:"omitnil,gt=100,lt=400"`
	TempMin       *float64   `json:"temp_min" validate:"omitnil,gt=100,lt=400"`
	TempMax       *float64   `json:"temp_max" validate:"omitnil,gt=100,lt=400"`
	Pressure      *float64   `json:"pressure" validate:"omitnil,integer,gt=0,lt=2000"`
	Humidity      *float64   `json:"humidity" validate:"omitnil,integer,gte=0,lte=100"`
	WindSpeed     *float64   `json:"wind_speed" validate:"omitnil,gte=0,lt=1000"`
	WindDirection *float64   `json:"wind_direction" validate:"omitnil,integer,gte=0,lte=360"`
	WindGust      *float64   `json:"wind_gust" validate:"omitnil,gte=0,lt=1000"`
	Clouds        *float64   `json:"clouds" validate:"omitnil,integer,gte=0,lte=100"`
	Timestamp     *time.Time `json:"timestamp" validate:"required"`
}

// Normalize maps one current-weather object or one forecast list entry onto
// a Reading for cityID. Anything that is not a JSON object yields an empty
// Reading.
func Normalize(item gjson.Result, cityID uint) Reading {
	if !item.IsObject() {
		return Reading{}
	}
	reading := Reading{City: cityID}

	if conditions := item.Get("weather"); conditions.IsArray() {
		reading.Condition = floatField(conditions, "0.id")
	}

	if main := item.Get("main"); main.IsObject() {
		reading.Temp = floatField(main, "temp")
		reading.TempMin = floatField(main, "temp_min")
		reading.TempMax = floatField(main, "temp_max")
		reading.Pressure = floatField(main, "pressure")
		reading.Humidity = floatField(main, "humidity")
	}

	if wind := item.Get("wind"); wind.IsObject() {
		reading.WindSpeed = floatField(wind, "speed")
		reading.WindDirection = floatField(wind, "deg")
		reading.WindGust = floatField(wind, "gust")
	}

	if clouds := item.Get("clouds"); clouds.IsObject() {
		reading.Clouds = floatField(clouds, "all")
	}

	if dt := item.Get("dt"); dt.Type == gjson.Number {
		ts := time.Unix(dt.Int(), 0).UTC()
		reading.Timestamp = &ts
	}

	return reading
}

func floatField(obj gjson.Result, key string) *float64 {
	v := obj.Get(key)
	if v.Type != gjson.Number {
		return nil
	}

	f := v.Float()
	return &f
}

