package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockWeatherService struct {
	results map[string]*model.WeatherModel
	err     error
}

func (m *mockWeatherService) GetWeather(ctx context.Context, city string) (*model.WeatherModel, error) {
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(city) == "" {
		return nil, &repository.ValidationError{Input: city}
	}
	if res, ok := m.results[city]; ok {
		return res, nil
	}
	return nil, &repository.ProviderError{City: city, StatusCode: http.StatusNotFound, Detail: "city not found"}
}

// Ensure mockWeatherService implements WeatherServiceInterface
var _ service.WeatherServiceInterface = (*mockWeatherService)(nil)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

func newTestRouter(svc service.WeatherServiceInterface, limiters Limiters) http.Handler {
	return NewRouter(
		NewWeatherHandler(svc),
		NewWidgetHandler(widget.New(svc, widget.NewMemoryStore(0))),
		limiters,
		config.GetLogger(),
	)
}

func serve(h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr, env
}

func parisService() *mockWeatherService {
	return &mockWeatherService{results: map[string]*model.WeatherModel{
		"Paris": {Location: "Paris", TemperatureC: 20, FeelsLikeC: 20, HumidityPct: 55, WindSpeedKmh: 11, Condition: model.ConditionRainy},
	}}
}

func TestNewWeatherHandler(t *testing.T) {
	handler := NewWeatherHandler()
	require.NotNil(t, handler)
	assert.NotNil(t, handler.WeatherService)
}

func TestWeatherHandler_HandleWeather(t *testing.T) {
	tests := []struct {
		name           string
		svc            *mockWeatherService
		target         string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Missing city parameter",
			svc:            parisService(),
			target:         "/weather",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Please enter a valid city name.",
		},
		{
			name:           "Blank city parameter",
			svc:            parisService(),
			target:         "/weather?city=%20%20",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Please enter a valid city name.",
		},
		{
			name:           "Unknown city",
			svc:            parisService(),
			target:         "/weather?city=Atlantiss",
			expectedStatus: http.StatusNotFound,
			expectedError:  `Weather data not found for "Atlantiss" (city not found)`,
		},
		{
			name:           "Missing API key",
			svc:            &mockWeatherService{err: &repository.ConfigError{Key: config.APIKeyEnv}},
			target:         "/weather?city=Paris",
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Missing OPENWEATHERMAP_API_KEY. Add it to your .env and restart the server.",
		},
		{
			name:           "Invalid API key",
			svc:            &mockWeatherService{err: &repository.ProviderError{City: "Paris", StatusCode: 401, Detail: "Invalid API key"}},
			target:         "/weather?city=Paris",
			expectedStatus: http.StatusBadGateway,
			expectedError:  `Weather data not found for "Paris" (Invalid API key)`,
		},
		{
			name:           "Network failure",
			svc:            &mockWeatherService{err: &repository.TransportError{Err: context.DeadlineExceeded}},
			target:         "/weather?city=Paris",
			expectedStatus: http.StatusBadGateway,
			expectedError:  service.TransportMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := serve(newTestRouter(tt.svc, Limiters{}), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.expectedStatus, rr.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.expectedError, *env.Error)
			assert.Equal(t, "Error", env.Message)
		})
	}
}

func TestWeatherHandler_Success(t *testing.T) {
	rr, env := serve(newTestRouter(parisService(), Limiters{}), http.MethodGet, "/weather?city=Paris", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Success", env.Message)
	assert.JSONEq(t, `{"location":"Paris","temperatureC":20,"condition":"Rainy","humidityPct":55,"windSpeedKmh":11,"feelsLikeC":20,"icon":"rainy.svg"}`, string(env.Data))
}

func TestWeatherHandler_MethodNotAllowed(t *testing.T) {
	rr, env := serve(newTestRouter(parisService(), Limiters{}), http.MethodPost, "/weather?city=Paris", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Method not allowed", *env.Error)
}

func TestWeatherHandler_RateLimited(t *testing.T) {
	limiters := Limiters{
		Weather: middleware.NewRateLimiter(middleware.Limit{PerMinute: 10, Burst: 10}, middleware.Limit{PerMinute: 1, Burst: 1}, time.Minute, middleware.QueryKey("city")),
	}
	h := newTestRouter(parisService(), limiters)

	rr, _ := serve(h, http.MethodGet, "/weather?city=Paris", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = serve(h, http.MethodGet, "/weather?city=Paris", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestHealth(t *testing.T) {
	rr, _ := serve(newTestRouter(parisService(), Limiters{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func createSession(t *testing.T, h http.Handler) widget.Snapshot {
	t.Helper()
	rr, env := serve(h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var snap widget.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func decodeSnapshot(t *testing.T, env envelope) widget.Snapshot {
	t.Helper()
	var snap widget.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestWidgetHandler_Lifecycle(t *testing.T) {
	h := newTestRouter(parisService(), Limiters{})
	created := createSession(t, h)
	assert.Equal(t, widget.StateIdle, created.State)

	base := "/sessions/" + created.SessionID

	// refresh before any search
	rr, env := serve(h, http.MethodPost, base+"/refresh", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	require.NotNil(t, env.Error)

	rr, env = serve(h, http.MethodPost, base+"/search", `{"city":"Paris"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, env)
	assert.Equal(t, widget.StateSuccess, snap.State)
	require.NotNil(t, snap.Weather)
	assert.Equal(t, 11, snap.Weather.WindSpeedKmh)

	// provider failure is reported inside the snapshot and keeps the model
	rr, env = serve(h, http.MethodPost, base+"/search", `{"city":"Atlantiss"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, env)
	assert.Equal(t, widget.StateError, snap.State)
	assert.Equal(t, `Weather data not found for "Atlantiss" (city not found)`, snap.Error)
	assert.Equal(t, "Paris", snap.Weather.Location)

	rr, env = serve(h, http.MethodPost, base+"/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, env)
	assert.Equal(t, widget.StateSuccess, snap.State)
	assert.Empty(t, snap.Error)

	rr, env = serve(h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.SessionID, decodeSnapshot(t, env).SessionID)

	rr, _ = serve(h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, env = serve(h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Session not found", *env.Error)
}

func TestWidgetHandler_BadSearchRequests(t *testing.T) {
	h := newTestRouter(parisService(), Limiters{})
	base := "/sessions/" + createSession(t, h).SessionID

	rr, _ := serve(h, http.MethodPost, base+"/search", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env := serve(h, http.MethodPost, base+"/search", `{"city":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Please enter a valid city name.", *env.Error)

	rr, _ = serve(h, http.MethodPost, "/sessions/unknown/search", `{"city":"Paris"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
