package repository

import (
	"errors"
	"fmt"
)

// Error kinds, usable with errors.Is.
var (
	ErrConfig     = errors.New("configuration error")
	ErrValidation = errors.New("validation error")
	ErrProvider   = errors.New("provider error")
	ErrTransport  = errors.New("transport error")
)

// ConfigError reports a missing setting. It is raised before any network call.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Missing %s. Add it to your .env and restart the server.", e.Key)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ValidationError reports a city that is empty after trimming.
type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return "Please enter a valid city name."
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProviderError is a non-2xx answer from the weather provider.
type ProviderError struct {
	City       string
	StatusCode int
	// Detail is the provider's message, its "cod", or the HTTP status code, in that order.
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Weather data not found for \"%s\" (%s)", e.City, e.Detail)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// TransportError wraps a network, read or decode failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "weather request failed: " + e.Err.Error()
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }
