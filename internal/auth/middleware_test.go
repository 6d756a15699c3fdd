package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiddlewareRouter(t *testing.T) (*gin.Engine, *Service, uint) {
	t.Helper()

	db := setupTestDB(t)
	service := NewService(db, testAuthConfig())
	pubID := createPublisher(t, db, "Ace")

	router := gin.New()
	router.Use(NewMiddleware(service).Handler())
	router.GET("/whoami", func(c *gin.Context) {
		resp := gin.H{
			"user_id":   GetUserID(c),
			"username":  GetUsername(c),
			"auth_type": GetAuthType(c),
		}
		if p := GetPublisherID(c); p != nil {
			resp["publisher_id"] = *p
		}
		c.JSON(http.StatusOK, resp)
	})

	return router, service, pubID
}

func doGet(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	router, _, _ := setupMiddlewareRouter(t)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "token abc"} {
		rr := doGet(router, header)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rr.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["msg"] == "" {
			t.Errorf("header %q: expected {msg} body, got %s", header, rr.Body.String())
		}
	}
}

func TestMiddleware_RejectsUnknownToken(t *testing.T) {
	router, _, _ := setupMiddlewareRouter(t)

	rr := doGet(router, "Bearer not-a-real-token")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestMiddleware_AccessToken(t *testing.T) {
	router, service, pubID := setupMiddlewareRouter(t)
	user, err := service.CreateUser("alice", "alice@example.com", testPassword, &pubID)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	token, _, err := service.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	rr := doGet(router, "Bearer "+token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		UserID      uint   `json:"user_id"`
		Username    string `json:"username"`
		AuthType    string `json:"auth_type"`
		PublisherID *uint  `json:"publisher_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.UserID != user.ID || body.Username != "alice" {
		t.Errorf("unexpected identity %+v", body)
	}
	if body.AuthType != string(AuthTypeAccessToken) {
		t.Errorf("auth_type = %q, want %q", body.AuthType, AuthTypeAccessToken)
	}
	if body.PublisherID == nil || *body.PublisherID != pubID {
		t.Errorf("publisher_id = %v, want %d", body.PublisherID, pubID)
	}
}

func TestMiddleware_APITokenWithoutPublisher(t *testing.T) {
	router, service, _ := setupMiddlewareRouter(t)
	user, err := service.CreateUser("reader", "reader@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	token, err := service.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	rr := doGet(router, "bearer "+token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["publisher_id"]; ok {
		t.Error("publisher_id should be absent for a user without publisher")
	}
	if body["auth_type"] != string(AuthTypeAPIToken) {
		t.Errorf("auth_type = %v, want %q", body["auth_type"], AuthTypeAPIToken)
	}
}

func TestContextHelpers_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUserID(c) != 0 {
		t.Error("GetUserID should be 0 without auth")
	}
	if GetUsername(c) != "" {
		t.Error("GetUsername should be empty without auth")
	}
	if GetPublisherID(c) != nil {
		t.Error("GetPublisherID should be nil without auth")
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Error("GetAuthType should be none without auth")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "BEARER abc", want: "abc", ok: true},
		{header: "Bearer   abc  ", want: "abc", ok: true},
		{header: "Bearer", ok: false},
		{header: "Basic abc", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
