package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository/memory"
	"water-scheduler-backend/internal/retry"
	"water-scheduler-backend/internal/security"
	"water-scheduler-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testAPI struct {
	t           *testing.T
	handler     http.Handler
	tokens      security.TokenManager
	coordinator string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	svc := Services{
		Resources:     service.NewResourceService(store.ResourceRepository),
		Slots:         service.NewSlotService(store.SlotRepository, store.ResourceRepository, nil),
		Bookings:      service.NewBookingService(store.BookingRepository, store.SlotRepository, store.HouseholdRepository, store.ReceiptRepository, nil, retry.DefaultPolicy(), nil),
		Accounts:      service.NewAccountService(store.HouseholdRepository),
		Notifications: service.NewNotificationService(store.NotificationRepository),
	}
	tm := security.NewTokenManager(testSecret, time.Hour)
	coordinator, err := tm.GenerateAccessToken(domain.Session{UserID: 1, Role: domain.RoleCoordinator})
	require.NoError(t, err)
	return &testAPI{t: t, handler: NewRouter(svc, tm), tokens: tm, coordinator: coordinator}
}

func (a *testAPI) householdToken(userID, householdID int32, tier domain.PriorityTier) string {
	token, err := a.tokens.GenerateAccessToken(domain.Session{UserID: userID, HouseholdID: householdID, PriorityTier: tier, Role: domain.RoleHousehold})
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed creates one resource with a morning window, its slots for date and one household.
func (a *testAPI) seed(access string, tier domain.PriorityTier) (resourceID int32, household domain.Household) {
	rec := a.do(http.MethodPost, "/api/v1/resources", a.coordinator, map[string]any{
		"name":              "Well A",
		"location":          "North village",
		"capacity_per_hour": 3,
		"open_time":         "06:00",
		"close_time":        "09:00",
		"price_per_100":     "0.05",
		"priority_access":   access,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[domain.Resource](a.t, rec)

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/v1/resources/%d/slots?date=2026-11-02", res.ID), a.coordinator, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(a.t, 3, decode[map[string]any](a.t, rec)["inserted"])

	rec = a.do(http.MethodPost, "/api/v1/households", a.coordinator, map[string]any{
		"user_id":       10,
		"name":          "Household 1",
		"priority_tier": tier,
		"balance":       "50.00",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return res.ID, decode[domain.Household](a.t, rec)
}

func TestHealthzIsPublic(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)
	household := api.householdToken(10, 1, domain.PriorityNormal)

	rec := api.do(http.MethodGet, "/api/v1/slots?date=2026-11-02", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/slots?date=2026-11-02", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/bookings/1/approve", household, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/bookings", api.coordinator, map[string]any{"slot_id": 1, "quantity": 10, "payment_method": "cash"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "coordinator session has no household")
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)
	_, hh := api.seed("all", domain.PriorityNormal)
	household := api.householdToken(hh.UserID, hh.ID, hh.PriorityTier)

	rec := api.do(http.MethodGet, "/api/v1/slots?date=2026-11-02", household, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode[struct{ Slots []domain.Slot }](t, rec).Slots
	require.Len(t, slots, 3)
	assert.Equal(t, "06:00", slots[0].StartTime.String())
	slotID := slots[0].ID

	rec = api.do(http.MethodPost, "/api/v1/bookings", household, map[string]any{"slot_id": slotID, "quantity": 200, "payment_method": "mobile"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[domain.Booking](t, rec)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.True(t, booking.Amount.Equal(decimal.RequireFromString("0.10")))

	rec = api.do(http.MethodPost, "/api/v1/bookings", household, map[string]any{"slot_id": slotID, "quantity": 50, "payment_method": "cash"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", booking.ID), api.coordinator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[bookingResponse](t, rec)
	assert.Equal(t, domain.BookingStatusApproved, approved.Booking.Status)
	require.NotNil(t, approved.Receipt)
	assert.Equal(t, booking.ReceiptNumber, approved.Receipt.ReceiptNumber)

	rec = api.do(http.MethodGet, "/api/v1/account/balance", household, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[struct {
		Balance decimal.Decimal `json:"balance"`
	}](t, rec).Balance
	assert.True(t, balance.Equal(decimal.RequireFromString("49.90")), balance.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), household, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[bookingResponse](t, rec).Receipt)

	other := api.householdToken(99, 99, domain.PriorityNormal)
	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/deny", booking.ID), api.coordinator, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/account/transactions", household, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decode[struct {
		Transactions []domain.BalanceTransaction `json:"transactions"`
		Total        int32                       `json:"total"`
	}](t, rec)
	require.EqualValues(t, 2, txs.Total)
	assert.Equal(t, domain.TransactionTypeBookingDebit, txs.Transactions[0].Type)
	assert.Equal(t, domain.TransactionTypeDeposit, txs.Transactions[1].Type)
	sum := decimal.Zero
	for _, tx := range txs.Transactions {
		sum = sum.Add(tx.Amount)
	}
	assert.True(t, sum.Equal(balance), "ledger %s, balance %s", sum, balance)
}

func TestPriorityRestrictedResourceIsHidden(t *testing.T) {
	api := newTestAPI(t)
	_, hh := api.seed("high", domain.PriorityNormal)

	normal := api.householdToken(hh.UserID, hh.ID, domain.PriorityNormal)
	rec := api.do(http.MethodGet, "/api/v1/slots?date=2026-11-02", normal, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct{ Slots []domain.Slot }](t, rec).Slots)

	rec = api.do(http.MethodGet, "/api/v1/slots?date=2026-11-02&tier=high", api.coordinator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Slots []domain.Slot }](t, rec).Slots, 3)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	resourceID, hh := api.seed("all", domain.PriorityNormal)
	household := api.householdToken(hh.UserID, hh.ID, hh.PriorityTier)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"bad date", http.MethodGet, "/api/v1/slots?date=02-11-2026", household, nil, http.StatusBadRequest},
		{"bad id", http.MethodPost, "/api/v1/bookings/abc/approve", api.coordinator, nil, http.StatusBadRequest},
		{"unknown booking", http.MethodPost, "/api/v1/bookings/999/approve", api.coordinator, nil, http.StatusNotFound},
		{"unknown resource", http.MethodPost, "/api/v1/resources/999/slots?date=2026-11-02", api.coordinator, nil, http.StatusNotFound},
		{"zero quantity", http.MethodPost, "/api/v1/bookings", household, map[string]any{"slot_id": 1, "quantity": 0, "payment_method": "cash"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/bookings", household, map[string]any{"slot": 1}, http.StatusBadRequest},
		{"negative deposit", http.MethodPost, fmt.Sprintf("/api/v1/households/%d/deposits", hh.ID), api.coordinator, map[string]any{"amount": "-1"}, http.StatusBadRequest},
		{"set full", http.MethodPut, "/api/v1/slots/1/status", api.coordinator, map[string]any{"status": "full"}, http.StatusBadRequest},
		{"generate again", http.MethodPost, fmt.Sprintf("/api/v1/resources/%d/slots?date=2026-11-02", resourceID), api.coordinator, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("x", "bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrDuplicateBooking, http.StatusConflict},
		{domain.ErrCapacityExceeded, http.StatusConflict},
		{domain.ErrSlotUnavailable, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrTransientContention, http.StatusServiceUnavailable},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
		{domain.ErrHouseholdInactive, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}
