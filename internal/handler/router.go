package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-widget/internal/middleware"
)

// Limiters are applied to the lookup and to the session endpoints respectively.
type Limiters struct {
	Weather *middleware.RateLimiter
	Session *middleware.RateLimiter
}

func NewRouter(weather *WeatherHandler, widgets *WidgetHandler, limiters Limiters, log *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(limit(limiters.Weather)).Get("/weather", weather.HandleWeather)

	r.Route("/sessions", func(r chi.Router) {
		r.Use(limit(limiters.Session))
		r.Post("/", widgets.Create)
		r.Get("/{id}", widgets.Get)
		r.Delete("/{id}", widgets.Delete)
		r.Post("/{id}/search", widgets.Search)
		r.Post("/{id}/refresh", widgets.Refresh)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}
