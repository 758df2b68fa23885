package service

import (
	"context"
	"errors"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
)

// TransportMessage is shown for network and parse failures.
const TransportMessage = "Unable to reach the weather service. Please try again."

// ErrWeatherService is a generic failure used by callers' test doubles.
var ErrWeatherService = errors.New("weather service error")

type WeatherServiceInterface interface {
	GetWeather(ctx context.Context, city string) (*model.WeatherModel, error)
}

// WeatherService fetches and normalizes. It keeps no state between calls.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	// APIKey is consulted on every call so a missing key surfaces when a search is made.
	APIKey func() string
}

// NewWeatherService creates a service. Without a repository it talks to the configured endpoint.
func NewWeatherService(repo ...repository.WeatherRepository) *WeatherService {
	var weatherRepo repository.WeatherRepository
	if len(repo) > 0 && repo[0] != nil {
		weatherRepo = repo[0]
	} else {
		weatherRepo = repository.NewWeatherRepository(config.GetOpenWeatherApiUrl())
	}
	return &WeatherService{
		WeatherRepo: weatherRepo,
		APIKey:      config.GetOpenWeatherMapAPIKey,
	}
}

func (s *WeatherService) GetWeather(ctx context.Context, city string) (*model.WeatherModel, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	apiKey := ""
	if s.APIKey != nil {
		apiKey = s.APIKey()
	}

	data, err := s.WeatherRepo.FetchWeather(ctx, city, apiKey)
	if err != nil {
		logFetchError(city, err)
		return nil, err
	}

	weather := Normalize(data)
	return &weather, nil
}

// DisplayMessage converts any fetch error into the single string shown to the user.
func DisplayMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrConfig),
		errors.Is(err, repository.ErrValidation),
		errors.Is(err, repository.ErrProvider):
		return err.Error()
	default:
		return TransportMessage
	}
}

func logFetchError(city string, err error) {
	log := config.GetLogger()
	var perr *repository.ProviderError
	switch {
	case errors.As(err, &perr):
		log.Infow("Provider rejected weather request", "city", city, "status", perr.StatusCode, "detail", perr.Detail)
	case errors.Is(err, repository.ErrValidation):
		log.Debugw("Rejected empty city", "input", city)
	case errors.Is(err, context.Canceled):
		log.Debugw("Weather request cancelled", "city", city)
	default:
		log.Errorw("Weather request failed", "city", city, "error", err)
	}
}
