package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/google/uuid"
)

// flight is the request currently allowed to write a session's slot.
type flight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Widget owns the per-session display state and drives searches through the
// stateless weather service. A newer search on a session cancels the one in
// flight, and only the newest request may write the slot.
type Widget struct {
	service service.WeatherServiceInterface
	store   Store
	now     func() time.Time

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*flight
}

func New(svc service.WeatherServiceInterface, store Store) *Widget {
	return &Widget{
		service:  svc,
		store:    store,
		now:      time.Now,
		inflight: make(map[string]*flight),
	}
}

// Create starts a new session in the idle state.
func (w *Widget) Create(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		SessionID: uuid.NewString(),
		State:     StateIdle,
		UpdatedAt: w.now().UTC(),
	}
	if err := w.store.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (w *Widget) Get(ctx context.Context, id string) (*Snapshot, error) {
	return w.store.Load(ctx, id)
}

// Delete removes the session and cancels its in-flight request, if any.
func (w *Widget) Delete(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.inflight[id]; ok {
		f.cancel()
		delete(w.inflight, id)
	}
	return w.store.Delete(ctx, id)
}

// Search fetches weather for city and returns the snapshot once the request settles.
// On failure the previous weather stays and the error text is set. Blank input is
// rejected without touching the session.
func (w *Widget) Search(ctx context.Context, id, city string) (*Snapshot, error) {
	return w.run(ctx, id, func(*Snapshot, bool) (string, error) {
		if strings.TrimSpace(city) == "" {
			return "", &repository.ValidationError{Input: city}
		}
		return strings.TrimSpace(city), nil
	})
}

// Refresh repeats the search for the location currently shown. It is refused while
// a request is in flight or when nothing has been loaded yet.
func (w *Widget) Refresh(ctx context.Context, id string) (*Snapshot, error) {
	return w.run(ctx, id, func(snap *Snapshot, busy bool) (string, error) {
		if busy {
			return "", ErrBusy
		}
		if snap.Weather == nil {
			return "", ErrNothingToRefresh
		}
		return snap.Weather.Location, nil
	})
}

func (w *Widget) run(ctx context.Context, id string, pick func(snap *Snapshot, busy bool) (string, error)) (*Snapshot, error) {
	w.mu.Lock()
	snap, err := w.store.Load(ctx, id)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	prev, busy := w.inflight[id]
	city, err := pick(snap, busy)
	if err != nil {
		w.mu.Unlock()
		return snap, err
	}

	if busy {
		prev.cancel()
	}
	w.seq++
	gen := w.seq
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.inflight[id] = &flight{gen: gen, cancel: cancel}

	prevState := settledState(snap)
	snap.State = StateLoading
	snap.Query = city
	snap.UpdatedAt = w.now().UTC()
	if err := w.store.Save(ctx, snap); err != nil {
		delete(w.inflight, id)
		w.mu.Unlock()
		return nil, err
	}
	w.mu.Unlock()

	weather, fetchErr := w.service.GetWeather(fetchCtx, city)
	return w.settle(context.WithoutCancel(ctx), id, gen, prevState, ctx.Err() != nil, weather, fetchErr)
}

// settle writes the outcome of request gen, unless a newer request took over the slot.
func (w *Widget) settle(ctx context.Context, id string, gen uint64, prevState State, callerGone bool, weather *model.WeatherModel, fetchErr error) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, ok := w.inflight[id]
	if !ok || current.gen != gen {
		config.GetLogger().Debugw("Dropping superseded weather result", "session", id)
		return w.store.Load(ctx, id)
	}
	delete(w.inflight, id)

	snap, err := w.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.UpdatedAt = w.now().UTC()

	switch {
	case fetchErr == nil:
		view := model.NewWeatherView(*weather)
		snap.Weather = &view
		snap.Error = ""
		snap.State = StateSuccess
	case callerGone && errors.Is(fetchErr, context.Canceled):
		// nobody is waiting for this answer; leave the slot as it was before the search
		snap.State = prevState
	default:
		snap.Error = service.DisplayMessage(fetchErr)
		snap.State = StateError
	}

	if err := w.store.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// settledState is the state a snapshot had before its last search started.
func settledState(snap *Snapshot) State {
	switch {
	case snap.Error != "":
		return StateError
	case snap.Weather != nil:
		return StateSuccess
	default:
		return StateIdle
	}
}
