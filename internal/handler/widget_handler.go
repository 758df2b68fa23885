package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/widget"
	"github.com/go-chi/chi/v5"
)

// SearchRequest is the body of POST /sessions/{id}/search.
type SearchRequest struct {
	City string `json:"city"`
}

// WidgetHandler exposes widget sessions. Fetch failures are part of the snapshot,
// so a failed search still answers 200 with the error text set.
type WidgetHandler struct {
	Widget *widget.Widget
}

func NewWidgetHandler(w *widget.Widget) *WidgetHandler {
	return &WidgetHandler{Widget: w}
}

func (h *WidgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Widget.Create(r.Context())
	if err != nil {
		h.writeWidgetError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, model.Success(snap))
}

func (h *WidgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Widget.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeWidgetError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, model.Success(snap))
}

func (h *WidgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Widget.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeWidgetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WidgetHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	snap, err := h.Widget.Search(r.Context(), chi.URLParam(r, "id"), req.City)
	if err != nil {
		h.writeWidgetError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, model.Success(snap))
}

func (h *WidgetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Widget.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeWidgetError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, model.Success(snap))
}

func (h *WidgetHandler) writeWidgetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, widget.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, widget.ErrBusy), errors.Is(err, widget.ErrNothingToRefresh):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrValidation):
		writeError(w, http.StatusBadRequest, service.DisplayMessage(err))
	default:
		config.GetLogger().Errorw("Widget session operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
