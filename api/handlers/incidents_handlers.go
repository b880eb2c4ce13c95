package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"aulasec/core/incidents"
	"aulasec/core/store"
)

type IncidentsHandler struct {
	svc    *incidents.Service
	store  store.IncidentsStore
	logger *logrus.Logger
}

func NewIncidentsHandler(svc *incidents.Service, is store.IncidentsStore, logger *logrus.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, store: is, logger: logger}
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input incidents.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	incident, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, incident)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.svc.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (h *IncidentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewStatus string `json:"new_status"`
		UserID    string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.NewStatus) == "" || strings.TrimSpace(payload.UserID) == "" {
		http.Error(w, "new_status and user_id required", http.StatusBadRequest)
		return
	}
	incident, err := h.svc.UpdateStatus(r.Context(), urlParam(r, "id"), payload.NewStatus, payload.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (h *IncidentsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var input incidents.EditInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	incident, err := h.svc.Edit(r.Context(), urlParam(r, "id"), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

// List serves the pass-through secondary-attribute queries: by reporter, by
// floor (with numeric normalization) or by urgency. Without a filter the
// whole table comes back.
func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []store.Incident
		err   error
	)
	switch {
	case strings.TrimSpace(q.Get("student_id")) != "":
		items, err = h.store.ListByReporter(r.Context(), strings.TrimSpace(q.Get("student_id")))
	case strings.TrimSpace(q.Get("floor")) != "":
		floor, convErr := strconv.Atoi(strings.TrimSpace(q.Get("floor")))
		if convErr != nil {
			http.Error(w, "floor must be a number", http.StatusBadRequest)
			return
		}
		items, err = h.store.ListByFloor(r.Context(), floor)
	case strings.TrimSpace(q.Get("urgency")) != "":
		urgency := strings.TrimSpace(q.Get("urgency"))
		if !incidents.IsValidUrgency(urgency) {
			http.Error(w, "invalid urgency", http.StatusBadRequest)
			return
		}
		items, err = h.store.ListByUrgency(r.Context(), urgency)
	default:
		items, err = h.store.ListAll(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []store.Incident{}
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *IncidentsHandler) writeServiceError(w http.ResponseWriter, err error) {
	var validation *incidents.ValidationError
	var transition *incidents.TransitionError
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.Is(err, incidents.ErrIncidentNotFound), errors.Is(err, incidents.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, incidents.ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, incidents.ErrNotEditable), errors.As(err, &transition), errors.Is(err, store.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		if h.logger != nil {
			h.logger.Errorf("incidents handler: %v", err)
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
