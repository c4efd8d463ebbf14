package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medlab/booking-api/internal/config"
	"github.com/medlab/booking-api/internal/handler"
	authHandler "github.com/medlab/booking-api/internal/handler/auth"
	bookingHandler "github.com/medlab/booking-api/internal/handler/booking"
	catalogHandler "github.com/medlab/booking-api/internal/handler/catalog"
	patientHandler "github.com/medlab/booking-api/internal/handler/patient"
	"github.com/medlab/booking-api/internal/middleware"
	"github.com/medlab/booking-api/internal/service/auth"
)

// Route registration only; the services behind the handlers are never
// invoked, so they can stay nil.
func newTestRouter() *Router {
	authSvc := auth.NewService(nil, config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	r := NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		authHandler.NewHandler(nil),
		catalogHandler.NewHandler(nil, nil),
		bookingHandler.NewHandler(nil, nil),
		patientHandler.NewHandler(nil),
		handler.NewHandler(nil),
		Config{
			RateLimitRPS:   100,
			RateLimitBurst: 100,
			Timeout:        time.Second,
			MetricsPrefix:  "booking_api_test",
		},
	)
	r.Setup()
	return r
}

func TestRouteLayout(t *testing.T) {
	r := newTestRouter()

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.Engine().ServeHTTP(w, req)
		return w
	}

	// Ops endpoints live outside the versioned prefix.
	assert.Equal(t, http.StatusOK, get("/health/live", "").Code)
	assert.Equal(t, http.StatusOK, get("/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/v1/health/live", "").Code)

	// The staff group rejects anonymous callers before any handler runs.
	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/staff/bookings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/staff/dashboard/stats", "not.a.token").Code)

	// Public catalog route is registered (500 from the nil service is
	// fine here, 404 would mean the route is missing).
	assert.NotEqual(t, http.StatusNotFound, get("/api/v1/tests", "").Code)
}
