package http

import "net/http"

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	notes, total, err := h.svc.Notifications.GetNotifications(r.Context(), session.UserID, queryInt32(r, "page"), queryInt32(r, "page_size"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes, "total": total})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, _ := SessionFromContext(r.Context())
	if err := h.svc.Notifications.MarkAsRead(r.Context(), session.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
