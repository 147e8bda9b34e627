package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"water-scheduler-backend/internal/security"
	"water-scheduler-backend/internal/service"
)

// Services groups what the HTTP layer calls into.
type Services struct {
	Resources     service.ResourceService
	Slots         service.SlotService
	Bookings      service.BookingService
	Accounts      service.AccountService
	Notifications service.NotificationService
	// Health is optional and reports backend reachability.
	Health func(ctx context.Context) error
}

type Handler struct {
	svc          Services
	tokenManager security.TokenManager
}

func NewHandler(svc Services, tm security.TokenManager) *Handler {
	return &Handler{svc: svc, tokenManager: tm}
}

// NewRouter registers every API route behind the auth middleware.
func NewRouter(svc Services, tm security.TokenManager) *mux.Router {
	h := NewHandler(svc, tm)
	r := mux.NewRouter()
	r.Use(h.logRequests, h.recoverPanics, h.authenticate)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/resources", h.ListResources).Methods(http.MethodGet)
	api.HandleFunc("/resources", h.CreateResource).Methods(http.MethodPost)
	api.HandleFunc("/resources/{id}", h.GetResource).Methods(http.MethodGet)
	api.HandleFunc("/resources/{id}", h.UpdateResource).Methods(http.MethodPut)
	api.HandleFunc("/resources/{id}/slots", h.ListResourceSlots).Methods(http.MethodGet)
	api.HandleFunc("/resources/{id}/slots", h.GenerateSlots).Methods(http.MethodPost)

	api.HandleFunc("/slots", h.ListAvailableSlots).Methods(http.MethodGet)
	api.HandleFunc("/slots/{id}/status", h.UpdateSlotStatus).Methods(http.MethodPut)

	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings", h.ListBookingsByStatus).Methods(http.MethodGet)
	api.HandleFunc("/bookings/mine", h.ListMyBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/approve", h.ApproveBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/deny", h.DenyBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/collection", h.MarkCollection).Methods(http.MethodPost)

	api.HandleFunc("/households", h.RegisterHousehold).Methods(http.MethodPost)
	api.HandleFunc("/households/{id}/deposits", h.Deposit).Methods(http.MethodPost)
	api.HandleFunc("/account/balance", h.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/account/transactions", h.ListTransactions).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Health != nil {
		if err := h.svc.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
