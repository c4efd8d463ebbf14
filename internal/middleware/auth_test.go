package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlab/booking-api/internal/config"
	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
	"github.com/medlab/booking-api/internal/service/auth"
)

var _ repository.UserRepository = (*stubUserRepo)(nil)

type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *model.User) error {
	if _, ok := s.users[u.Email]; ok {
		return nil
	}
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func newGuardedEngine(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := auth.NewService(
		&stubUserRepo{users: make(map[string]*model.User)},
		config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
	)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "s3cret", "Admin"))

	resp, err := svc.Login(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	engine := gin.New()
	staff := engine.Group("/staff")
	staff.Use(NewAuthMiddleware(svc).Authenticate())
	staff.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextUserEmail)})
	})

	return engine, resp.AccessToken
}

func TestAuthenticate(t *testing.T) {
	engine, token := newGuardedEngine(t)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"malformed header", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := auth.NewService(
		&stubUserRepo{users: make(map[string]*model.User)},
		config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
	)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "s3cret", "Admin"))
	resp, err := svc.Login(context.Background(), "admin@example.com", "s3cret")
	require.NoError(t, err)

	m := NewAuthMiddleware(svc)
	engine := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	engine.GET("/admin/ping", m.Authenticate(), m.RequireRole(model.RoleAdmin), ok)
	engine.GET("/super/ping", m.Authenticate(), m.RequireRole("superuser"), ok)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/super/ping", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthenticateSetsClaims(t *testing.T) {
	engine, token := newGuardedEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/staff/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")
}
