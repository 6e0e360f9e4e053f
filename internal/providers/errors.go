package providers

import (
	"errors"
	"fmt"
)

var (
	ErrConnection        = errors.New("weather API connection failed")
	ErrBadStatus         = errors.New("weather API returned bad status")
	ErrMalformedResponse = errors.New("weather API returned malformed response")
)

type ConnectionError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", ErrConnection, e.Endpoint, e.Attempts, e.Err)
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type BadStatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("%s: %s responded with status code %d", ErrBadStatus, e.Endpoint, e.StatusCode)
}

func (e *BadStatusError) Is(target error) bool {
	return target == ErrBadStatus
}
