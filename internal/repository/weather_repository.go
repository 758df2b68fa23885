package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
)

// maxErrorBody bounds how much of a non-2xx body is read.
const maxErrorBody = 64 << 10

// WeatherRepository fetches raw current weather from the provider.
type WeatherRepository interface {
	FetchWeather(ctx context.Context, city, apiKey string) (*model.OpenWeatherMapResponse, error)
}

// weatherRepository implements WeatherRepository. It holds no per-request state.
type weatherRepository struct {
	apiURL     string
	httpClient *http.Client
}

// NewWeatherRepository creates a repository for the given endpoint.
// An optional http.Client replaces http.DefaultClient.
func NewWeatherRepository(apiURL string, httpClient ...*http.Client) WeatherRepository {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		apiURL:     apiURL,
		httpClient: client,
	}
}

// FetchWeather issues exactly one GET for city. The key and the city are checked
// before anything goes on the wire.
func (r *weatherRepository) FetchWeather(ctx context.Context, city, apiKey string) (*model.OpenWeatherMapResponse, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigError{Key: config.APIKeyEnv}
	}
	query := strings.TrimSpace(city)
	if query == "" {
		return nil, &ValidationError{Input: city}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.buildURL(query, apiKey), nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providerError(city, resp)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return &data, nil
}

func (r *weatherRepository) buildURL(city, apiKey string) string {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", "metric")

	sep := "?"
	if strings.Contains(r.apiURL, "?") {
		sep = "&"
	}
	return r.apiURL + sep + params.Encode()
}

func providerError(city string, resp *http.Response) *ProviderError {
	perr := &ProviderError{
		City:       city,
		StatusCode: resp.StatusCode,
		Detail:     strconv.Itoa(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return perr
	}
	var apiErr model.OpenWeatherMapError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return perr
	}
	switch {
	case apiErr.Message != "":
		perr.Detail = apiErr.Message
	case apiErr.Cod != "":
		perr.Detail = string(apiErr.Cod)
	}
	return perr
}
