package http

import (
	"fmt"
	"net/http"

	"water-scheduler-backend/internal/domain"
)

type createBookingRequest struct {
	SlotID        int32                `json:"slot_id"`
	Quantity      int32                `json:"quantity"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

type bookingResponse struct {
	Booking *domain.Booking `json:"booking"`
	Receipt *domain.Receipt `json:"receipt,omitempty"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	session, err := householdSession(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Bookings.CreateBooking(r.Context(), session.HouseholdID, req.SlotID, req.Quantity, req.PaymentMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, rc, err := h.svc.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, _ := SessionFromContext(r.Context())
	if !session.IsCoordinator() && b.HouseholdID != session.HouseholdID {
		writeError(w, r, fmt.Errorf("%w: booking %d belongs to another household", domain.ErrForbidden, id))
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b, Receipt: rc})
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	session, err := householdSession(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.BookingStatus(r.URL.Query().Get("status"))
	bookings, err := h.svc.Bookings.ListHouseholdBookings(r.Context(), session.HouseholdID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// ListBookingsByStatus is the coordinator queue. It defaults to pending bookings.
func (h *Handler) ListBookingsByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.BookingStatus(r.URL.Query().Get("status"))
	bookings, err := h.svc.Bookings.ListBookingsByStatus(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, rc, err := h.svc.Bookings.ApproveBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b, Receipt: rc})
}

func (h *Handler) DenyBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Bookings.DenyBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := householdSession(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Bookings.CancelBooking(r.Context(), id, session.HouseholdID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b})
}

func (h *Handler) MarkCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		CollectionStatus domain.CollectionStatus `json:"collection_status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.svc.Bookings.MarkCollection(r.Context(), id, body.CollectionStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{Booking: b})
}
