package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/handler"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/widget"
)

func main() {
	log := config.GetLogger()
	defer func() { _ = log.Sync() }()

	settings, err := config.Load()
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}
	if config.GetOpenWeatherMapAPIKey() == "" {
		log.Warnw("API key is not set, searches will fail until it is configured", "env", config.APIKeyEnv)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newSessionStore(ctx, settings)
	if err != nil {
		log.Fatalw("Failed to set up session store", "store", settings.SessionStore, "error", err)
	}

	app := newApp(settings, store)
	go app.weatherLimiter.Run(ctx, time.Minute)
	go app.sessionLimiter.Run(ctx, time.Minute)

	srv := newServer(settings, app.handler)
	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Weather widget server running", "port", settings.ServerPort, "sessions", settings.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatalw("Server stopped", "error", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during shutdown", "error", err)
	}
	log.Infow("Shutdown complete")
}

type app struct {
	handler        http.Handler
	weatherLimiter *middleware.RateLimiter
	sessionLimiter *middleware.RateLimiter
}

func newApp(settings *config.Settings, store widget.Store) *app {
	httpClient := &http.Client{Timeout: settings.FetchTimeout}
	weatherService := service.NewWeatherService(repository.NewWeatherRepository(settings.APIURL, httpClient))

	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	global := middleware.Limit{PerMinute: globalRate, Burst: globalBurst}
	param := middleware.Limit{PerMinute: paramRate, Burst: paramBurst}

	a := &app{
		weatherLimiter: middleware.NewRateLimiter(global, param, settings.CleanupTimeout, middleware.QueryKey("city")),
		// sessions are polled, so only the per-IP budget applies there
		sessionLimiter: middleware.NewRateLimiter(global, global, settings.CleanupTimeout, nil),
	}
	a.handler = handler.NewRouter(
		handler.NewWeatherHandler(weatherService),
		handler.NewWidgetHandler(widget.New(weatherService, store)),
		handler.Limiters{Weather: a.weatherLimiter, Session: a.sessionLimiter},
		config.GetLogger(),
	)
	return a
}

func newSessionStore(ctx context.Context, settings *config.Settings) (widget.Store, error) {
	if settings.SessionStore != "redis" {
		return widget.NewMemoryStore(settings.SessionTTL), nil
	}
	client := redis.GetClient()
	if err := redis.Ping(ctx, client); err != nil {
		return nil, err
	}
	return widget.NewRedisStore(client, settings.SessionTTL), nil
}

func newServer(settings *config.Settings, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + settings.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 20*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 30*time.Second),
	}
}
