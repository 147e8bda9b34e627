package http

import (
	"net/http"

	"water-scheduler-backend/internal/domain"
)

// GenerateSlots handles POST /api/v1/resources/{id}/slots?date=yyyy-mm-dd.
func (h *Handler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := r.URL.Query().Get("date")
	n, err := h.svc.Slots.GenerateSlots(r.Context(), id, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resource_id": id, "date": date, "inserted": n})
}

func (h *Handler) ListResourceSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slots, err := h.svc.Slots.ListResourceSlots(r.Context(), id, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

// ListAvailableSlots uses the caller's tier. Coordinators may ask on behalf of another tier.
func (h *Handler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	tier := session.PriorityTier
	if q := r.URL.Query().Get("tier"); q != "" && session.IsCoordinator() {
		tier = domain.PriorityTier(q)
	}
	if tier == "" {
		tier = domain.PriorityNormal
	}
	slots, err := h.svc.Slots.ListAvailableSlots(r.Context(), r.URL.Query().Get("date"), tier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) UpdateSlotStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Status domain.SlotStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := h.svc.Slots.UpdateSlotStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}
