package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *database.Database
	auth   *auth.Service
	audit  *audit.Service

	// bearer tokens
	ace    string // publisher "P"
	tor    string // publisher "Tor"
	reader string // no publisher
}

func setupTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, database.Options{})
	require.NoError(t, err)

	authCfg := config.Auth{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 3,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}

	auditSvc := audit.NewService(auditRepo.NewRepository(db.DB))
	authSvc := auth.NewService(db.DB, authCfg)
	authController := auth.NewAuthController(authSvc, auditSvc, authCfg)

	t.Cleanup(func() {
		authController.Stop()
		auditSvc.Wait()
		db.Close()
	})

	router := NewRouter(RouterConfig{
		Database:       db,
		Catalog:        catalog.NewService(db.DB, auditSvc),
		Audit:          auditSvc,
		AuthService:    authSvc,
		AuthController: authController,
		StrictStatus:   strict,
		Version:        "test",
	})

	s := &testServer{router: router, db: db, auth: authSvc, audit: auditSvc}

	ace := &entities.Publisher{Name: "P"}
	tor := &entities.Publisher{Name: "Tor"}
	require.NoError(t, db.DB.Create(ace).Error)
	require.NoError(t, db.DB.Create(tor).Error)

	s.ace = s.tokenFor(t, "ace", &ace.ID)
	s.tor = s.tokenFor(t, "tor", &tor.ID)
	s.reader = s.tokenFor(t, "reader", nil)
	return s
}

func (s *testServer) tokenFor(t *testing.T, username string, publisherID *uint) string {
	t.Helper()
	user, err := s.auth.CreateUser(username, username+"@example.com", "correct-horse-battery", publisherID)
	require.NoError(t, err)
	token, _, err := s.auth.IssueAccessToken(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_Ping(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	s := setupTestServer(t, false)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/books"},
		{http.MethodPost, "/api/books"},
		{http.MethodGet, "/api/books/1"},
		{http.MethodPut, "/api/books/1"},
		{http.MethodDelete, "/api/books/1"},
		{http.MethodGet, "/api/user"},
		{http.MethodGet, "/api/audit"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := s.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Unauthenticated.", decode[ErrorResponse](t, w).Msg)

			w = s.do(t, r.method, r.path, "not-a-token", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_LoginThenCreateBook(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/login", "", gin.H{"username": "ace", "password": "correct-horse-battery"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[auth.LoginResponse](t, w)

	w = s.do(t, http.MethodPost, "/api/books", login.AccessToken, gin.H{
		"title":       "Dune",
		"description": "Spice",
		"author":      []string{"Herbert"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dune", decode[catalog.BookView](t, w).Title)
}

func TestRouter_SetsRequestIDAndSecurityHeaders(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestRouter_CurrentUserIncludesPublisher(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodGet, "/api/user", s.ace, nil)

	require.Equal(t, http.StatusOK, w.Code)
	user := decode[map[string]any](t, w)
	assert.Equal(t, "ace", user["username"])
	assert.NotNil(t, user["publisher_id"])
}

func TestRouter_APITokenAuthenticatesBookRoutes(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/auth/token", s.ace, nil)
	require.Equal(t, http.StatusOK, w.Code)
	apiToken := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, apiToken)

	w = s.do(t, http.MethodGet, "/api/books", apiToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/auth/token", s.ace, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/books", apiToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
