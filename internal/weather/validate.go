package weather

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"ulascansenturk/weather-collector/internal/db/weatherstore"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

const (
	KindCity      = "city"
	KindCondition = "condition"
	KindWeather   = "weather"
)

// ValidationError names the first field of a record that broke a rule.
type ValidationError struct {
	Kind  string
	Field string
	Rule  string
	Param string
	Value any
}

func (e *ValidationError) Error() string {
	rule := e.Rule
	if e.Param != "" {
		rule += "=" + e.Param
	}

	return fmt.Sprintf("invalid %s record: field %q failed %q (value: %v)", e.Kind, e.Field, rule, e.Value)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type CityInput struct {
	Name      string   `json:"name" validate:"required,max=50"`
	Country   string   `json:"country" validate:"omitempty,len=2"`
	State     string   `json:"state" validate:"omitempty,max=50"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type ConditionInput struct {
	ID          *int   `json:"id" validate:"required"`
	Main        string `json:"main" validate:"required,max=20"`
	Description string `json:"description" validate:"required,max=50"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("integer", isInteger)

	return v
}

// isInteger reports whether a numeric field holds a whole number.
func isInteger(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func ValidateCity(in CityInput) (weatherstore.City, error) {
	if err := check(KindCity, in); err != nil {
		return weatherstore.City{}, err
	}

	return weatherstore.City{
		Name:      in.Name,
		Country:   optionalString(in.Country),
		State:     optionalString(in.State),
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
	}, nil
}

func ValidateCondition(in ConditionInput) (weatherstore.Condition, error) {
	if err := check(KindCondition, in); err != nil {
		return weatherstore.Condition{}, err
	}

	return weatherstore.Condition{
		ID:          *in.ID,
		Main:        in.Main,
		Description: in.Description,
	}, nil
}

// ValidateWeather range-checks every field that is present, including
// present zero values, and requires at least one temperature.
func ValidateWeather(r Reading) (weatherstore.Weather, error) {
	if err := check(KindWeather, r); err != nil {
		return weatherstore.Weather{}, err
	}

	if r.Temp == nil && r.TempMin == nil && r.TempMax == nil {
		return weatherstore.Weather{}, &ValidationError{
			Kind:  KindWeather,
			Field: "temp",
			Rule:  "required_without_all",
			Param: "temp_min temp_max",
		}
	}

	return weatherstore.Weather{
		Timestamp:     r.Timestamp.UTC(),
		Temp:          r.Temp,
		TempMin:       r.TempMin,
		TempMax:       r.TempMax,
		Pressure:      wholeNumber(r.Pressure),
		Humidity:      wholeNumber(r.Humidity),
		WindSpeed:     r.WindSpeed,
		WindDirection: wholeNumber(r.WindDirection),
		WindGust:      r.WindGust,
		Clouds:        wholeNumber(r.Clouds),
		City:          r.City,
		Condition:     wholeNumber(r.Condition),
	}, nil
}

func wholeNumber(f *float64) *int {
	if f == nil {
		return nil
	}

	i := int(*f)
	return &i
}

func check(kind string, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &ValidationError{
			Kind:  kind,
			Field: first.Field(),
			Rule:  first.Tag(),
			Param: first.Param(),
			Value: first.Value(),
		}
	}

	return fmt.Errorf("%w: %s: %v", ErrValidation, kind, err)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
