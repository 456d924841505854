package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/routes"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/testutil"
	"github.com/princinho/parkingbackend/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, limiter *middleware.RateLimiter) (*api, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	users := repository.NewUserRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	tokens, err := services.NewTokenService(testSecret, time.Hour, repository.NewRevokedTokenRepo(db))
	require.NoError(t, err)

	router, err := routes.NewRouter(routes.Deps{
		DB:             db,
		Authenticator:  services.NewAuthenticator(tokens, users),
		Auth:           services.NewAuthService(users, tokens),
		Slots:          services.NewSlotService(slotRepo, 20, 100),
		Bookings:       services.NewBookingService(bookingRepo, slotRepo),
		Availability:   services.NewAvailabilityService(slotRepo, bookingRepo),
		RateLimiter:    limiter,
		AllowedOrigins: map[string]bool{"http://localhost:3000": true},
	})
	require.NoError(t, err)
	return &api{t: t, router: router}, db
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) register(email string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":     email,
		"full_name": email,
		"password":  testutil.Password,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *api) login(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": testutil.Password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var res services.LoginResult
	decode(a.t, w, &res)
	assert.Equal(a.t, "bearer", res.TokenType)
	return res.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestBookingLifecycle(t *testing.T) {
	a, _ := newAPI(t, nil)
	a.register("alice@example.com")
	a.register("bob@example.com")
	alice := a.login("alice@example.com")
	bob := a.login("bob@example.com")

	w := a.do(http.MethodPost, "/api/v1/slots", alice, gin.H{"code": "S10", "description": "near the lift"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
	}
	decode(t, w, &slot)
	assert.Equal(t, "S10", slot.Code)

	tomorrow := testutil.Today().AddDays(1).String()
	w = a.do(http.MethodPost, "/api/v1/bookings", bob, gin.H{"slot_id": slot.ID, "booking_date": tomorrow})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking struct {
		ID          int64  `json:"id"`
		BookingDate string `json:"booking_date"`
		Status      string `json:"status"`
	}
	decode(t, w, &booking)
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, tomorrow, booking.BookingDate)

	t.Run("duplicate booking conflicts", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/v1/bookings", alice, gin.H{"slot_id": slot.ID, "booking_date": tomorrow})
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		var p utils.Problem
		decode(t, w, &p)
		assert.Equal(t, "BOOKING_CONFLICT", p.Code)
		assert.Contains(t, p.Errors, "slot_id")
		assert.Contains(t, p.Errors, "booking_date")
		assert.NotEmpty(t, p.CorrelationID)
	})

	t.Run("availability reflects the booking", func(t *testing.T) {
		w := a.do(http.MethodGet, "/api/v1/availability?target_date="+tomorrow+"&code=s10", bob, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var av services.Availability
		decode(t, w, &av)
		require.Len(t, av.Slots, 1)
		assert.False(t, av.Slots[0].IsAvailable)
	})

	t.Run("slot owner confirms", func(t *testing.T) {
		w := a.do(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), alice, gin.H{"status": "confirmed"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	})

	t.Run("booker cancels and rebooks", func(t *testing.T) {
		w := a.do(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), bob, nil)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = a.do(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), bob, gin.H{"status": "pending"})
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

		w = a.do(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), alice, gin.H{"status": "pending"})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		w = a.do(http.MethodPost, "/api/v1/bookings", bob, gin.H{"slot_id": slot.ID, "booking_date": tomorrow})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("past date is rejected", func(t *testing.T) {
		yesterday := testutil.Today().AddDays(-1).String()
		w := a.do(http.MethodPost, "/api/v1/bookings", bob, gin.H{"slot_id": slot.ID, "booking_date": yesterday})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		var p utils.Problem
		decode(t, w, &p)
		assert.Equal(t, "VALIDATION_ERROR", p.Code)
		assert.Contains(t, p.Errors, "booking_date")
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/v1/bookings", bob, gin.H{"slot_id": slot.ID, "booking_date": "2026/01/01"})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("items alias serves slots", func(t *testing.T) {
		w := a.do(http.MethodGet, "/api/v1/items", alice, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page services.SlotPage
		decode(t, w, &page)
		assert.EqualValues(t, 1, page.Total)
	})

	t.Run("bookings are scoped to caller", func(t *testing.T) {
		a.register("carol@example.com")
		carol := a.login("carol@example.com")
		w := a.do(http.MethodGet, "/api/v1/bookings", carol, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `[]`, w.Body.String())

		w = a.do(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), carol, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	t.Run("non admin cannot set roles", func(t *testing.T) {
		w := a.do(http.MethodPatch, "/api/v1/admin/users/1/role", bob, gin.H{"role": "admin"})
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	a, _ := newAPI(t, nil)
	a.register("dave@example.com")
	token := a.login("dave@example.com")

	w := a.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = a.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestUnauthenticated(t *testing.T) {
	a, _ := newAPI(t, nil)

	w := a.do(http.MethodGet, "/api/v1/slots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/slots", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var p utils.Problem
	decode(t, w, &p)
	assert.Equal(t, "AUTHENTICATION_FAILED", p.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "nobody@example.com", "password": testutil.Password})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	a, _ := newAPI(t, nil)

	w := a.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"parking-slots-api"}`, w.Body.String())

	w = a.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var p utils.Problem
	decode(t, w, &p)
	assert.Equal(t, "NOT_FOUND", p.Code)
}

func TestRateLimitedLogin(t *testing.T) {
	limiter, err := middleware.NewRateLimiter(16, map[string]middleware.Rule{
		middleware.CategoryAuth: {Limit: 2, Window: time.Minute},
	})
	require.NoError(t, err)
	a, _ := newAPI(t, limiter)

	body := gin.H{"email": "eve@example.com", "password": testutil.Password}
	for i := 0; i < 2; i++ {
		w := a.do(http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := a.do(http.MethodPost, "/api/v1/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	var p utils.Problem
	decode(t, w, &p)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", p.Code)
}

func TestSlotPatchKeepsOmittedDescription(t *testing.T) {
	a, _ := newAPI(t, nil)
	a.register("frank@example.com")
	token := a.login("frank@example.com")

	w := a.do(http.MethodPost, "/api/v1/slots", token, gin.H{"code": "S10", "description": "near the lift"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot struct {
		ID          int64   `json:"id"`
		Description *string `json:"description"`
	}
	decode(t, w, &slot)
	path := fmt.Sprintf("/api/v1/slots/%d", slot.ID)

	w = a.do(http.MethodPatch, path, token, gin.H{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &slot)
	require.NotNil(t, slot.Description)
	assert.Equal(t, "near the lift", *slot.Description)

	w = a.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"description":"near the lift"`)

	w = a.do(http.MethodPatch, path, token, gin.H{"description": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"description":null`)
}

func TestBadNumbersReportTheirField(t *testing.T) {
	a, _ := newAPI(t, nil)
	a.register("grace@example.com")
	token := a.login("grace@example.com")

	tests := []struct {
		path  string
		field string
	}{
		{"/api/v1/slots?limit=abc", "limit"},
		{"/api/v1/slots?limit=5&offset=x1", "offset"},
		{"/api/v1/bookings?slot_id=seven", "slot_id"},
		{"/api/v1/slots/abc", "id"},
		{"/api/v1/bookings/abc", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := a.do(http.MethodGet, tt.path, token, nil)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			var p utils.Problem
			decode(t, w, &p)
			assert.Equal(t, "VALIDATION_ERROR", p.Code)
			assert.Contains(t, p.Errors, tt.field)
			assert.NotContains(t, p.Errors, "params")
		})
	}
}
