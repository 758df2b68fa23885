package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/handler"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/widget"
)

const testAPIKey = "test_api_key"

func createMockRedisServer() *miniredis.Miniredis {
	mr := miniredis.NewMiniRedis()
	if err := mr.StartAddr(config.GetTestRedisMockPort()); err != nil {
		// port taken, any free port will do
		if err := mr.Start(); err != nil {
			panic(err)
		}
	}
	return mr
}

// mockOWMApi mimics the provider: London succeeds, a bad key is 401, anything else is 404.
func mockOWMApi(hits *int32) *httptest.Server {
	london, err := os.ReadFile("testdata/openweathermap_london.json")
	if err != nil {
		panic(err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("units") != "metric" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"cod":"400","message":"units must be metric"}`))
			return
		}
		if q.Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		if q.Get("q") == "London" {
			_, _ = w.Write(london)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
}

func setupIntegrationTestServer(apiURL string) *httptest.Server {
	weatherRepo := repository.NewWeatherRepository(apiURL, &http.Client{Timeout: config.GetFetchTimeout()})
	weatherService := service.NewWeatherService(weatherRepo)
	store := widget.NewRedisStore(redis.GetClient(), config.GetSessionTTL())

	router := handler.NewRouter(
		handler.NewWeatherHandler(weatherService),
		handler.NewWidgetHandler(widget.New(weatherService, store)),
		handler.Limiters{},
		config.GetLogger(),
	)
	return httptest.NewServer(router)
}
