package weatherstore

import (
	"time"
)

const (
	TableCities          = "cities"
	TableConditions      = "conditions"
	TableWeatherFact     = "weather_fact"
	TableWeatherForecast = "weather_forecast"
)

type City struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	Name      string  `json:"name" gorm:"size:50;not null"`
	Country   *string `json:"country" gorm:"size:2"`
	State     *string `json:"state" gorm:"size:50"`
	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`
}

func (City) TableName() string {
	return TableCities
}

type Condition struct {
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Main        string `json:"main" gorm:"size:20"`
	Description string `json:"description" gorm:"size:50"`
}

func (Condition) TableName() string {
	return TableConditions
}

// Weather is one row of either weather_fact or weather_forecast; both tables
// share this shape and the repository picks the table.
type Weather struct {
	Timestamp     time.Time `json:"timestamp" gorm:"column:timestamp;primaryKey"`
	Temp          *float64  `json:"temp" gorm:"column:temp"`
	TempMin       *float64  `json:"temp_min" gorm:"column:temp_min"`
	TempMax       *float64  `json:"temp_max" gorm:"column:temp_max"`
	Pressure      *int      `json:"pressure" gorm:"column:pressure"`
	Humidity      *int      `json:"humidity" gorm:"column:humidity"`
	WindSpeed     *float64  `json:"wind_speed" gorm:"column:wind_speed"`
	WindDirection *int      `json:"wind_direction" gorm:"column:wind_direction"`
	WindGust      *float64  `json:"wind_gust" gorm:"column:wind_gust"`
	Clouds        *int      `json:"clouds" gorm:"column:clouds"`
	City          uint      `json:"city" gorm:"column:city;primaryKey;autoIncrement:false"`
	Condition     *int      `json:"condition" gorm:"column:condition"`
}
