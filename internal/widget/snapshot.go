package widget

import (
	"context"
	"errors"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/model"
)

// State of a widget session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrBusy             = errors.New("a weather request is already in progress")
	ErrNothingToRefresh = errors.New("no weather loaded yet, search for a city first")
)

// Snapshot is everything a front end needs to render one widget.
type Snapshot struct {
	SessionID string             `json:"sessionId"`
	State     State              `json:"state"`
	Query     string             `json:"query,omitempty"`
	Weather   *model.WeatherView `json:"weather,omitempty"`
	Error     string             `json:"error,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Clone returns a copy that shares nothing with s.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	if s.Weather != nil {
		w := *s.Weather
		c.Weather = &w
	}
	return &c
}

// Store keeps the current snapshot of each session. It holds one slot per session.
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
}
