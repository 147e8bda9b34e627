package http

import (
	"net/http"

	"water-scheduler-backend/internal/domain"
)

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var res domain.Resource
	if err := decodeJSON(r, &res); err != nil {
		writeError(w, r, err)
		return
	}
	res.ID = 0
	if err := h.svc.Resources.CreateResource(r.Context(), &res); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var res domain.Resource
	if err := decodeJSON(r, &res); err != nil {
		writeError(w, r, err)
		return
	}
	res.ID = id
	if err := h.svc.Resources.UpdateResource(r.Context(), &res); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Resources.GetResource(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	status := domain.ResourceStatus(r.URL.Query().Get("status"))
	resources, err := h.svc.Resources.ListResources(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}
