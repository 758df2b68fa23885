package model

import (
	"bytes"
	"encoding/json"
)

// OpenWeatherMapResponse is the subset of the current-weather payload we consume.
// Pointer fields distinguish a missing value from an explicit zero.
type OpenWeatherMapResponse struct {
	Name    string                    `json:"name"`
	Main    *OpenWeatherMapMain       `json:"main"`
	Wind    *OpenWeatherMapWind       `json:"wind"`
	Weather []OpenWeatherMapCondition `json:"weather"`
}

type OpenWeatherMapMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
}

// OpenWeatherMapWind speed is in m/s with units=metric.
type OpenWeatherMapWind struct {
	Speed *float64 `json:"speed"`
}

type OpenWeatherMapCondition struct {
	Main        *string `json:"main"`
	Description string  `json:"description"`
}

// OpenWeatherMapError is the body returned with a non-2xx status.
type OpenWeatherMapError struct {
	Cod     ProviderCode `json:"cod"`
	Message string       `json:"message"`
}

// ProviderCode holds "cod", which the provider sends either as a number or as a string.
type ProviderCode string

func (c *ProviderCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ProviderCode(s)
		return nil
	}
	*c = ProviderCode(b)
	return nil
}
