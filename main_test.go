package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/widget"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	config.ReloadConfigForTest()
	s, err := config.Load()
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	s := testSettings(t)
	srv := newServer(s, http.NewServeMux())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 20*time.Second, srv.WriteTimeout)
	assert.Equal(t, 30*time.Second, srv.IdleTimeout)
}

func TestNewSessionStore_Memory(t *testing.T) {
	store, err := newSessionStore(context.Background(), testSettings(t))
	require.NoError(t, err)
	assert.IsType(t, &widget.MemoryStore{}, store)
}

func TestNewSessionStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	viper.Set("redis.addr", mr.Addr())
	defer viper.Set("redis.addr", "localhost:6379")
	redis.ResetClientForTest()
	defer redis.ResetClientForTest()

	s := testSettings(t)
	s.SessionStore = "redis"
	store, err := newSessionStore(context.Background(), s)
	require.NoError(t, err)
	assert.IsType(t, &widget.RedisStore{}, store)
}

func TestNewApp_Health(t *testing.T) {
	s := testSettings(t)
	a := newApp(s, widget.NewMemoryStore(0))

	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
