package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/testutil"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/config"
)

func setupAuthHandlerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:            testutil.JWTSecret,
			AccessTokenExpire: 24 * time.Hour,
			Issuer:            "av-cns-bom",
		},
	}
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, cfg, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	router.POST("/api/v1/auth/register", handlers.Auth.Register)
	router.POST("/api/v1/auth/login", handlers.Auth.Login)
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/auth/logout", handlers.Auth.Logout)
	api.GET("/auth/me", handlers.Auth.Me)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupAuthHandlerTest(t)

	body := map[string]interface{}{"username": "operator1", "password": "secret-pass"}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate username is rejected.
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/register", body, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["token"] == "" || data["token"] == nil {
		t.Fatalf("login response carries no token: %v", data)
	}

	wrong := map[string]interface{}{"username": "operator1", "password": "wrong-pass"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login", wrong, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}
}

func TestLogoutWithoutExpiry(t *testing.T) {
	env := setupAuthHandlerTest(t)

	// A validly signed token that carries no exp claim still passes the
	// auth middleware; logout must not assume the expiry is present.
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":  "test-user-002",
		"name": "No Expiry",
		"iat":  now.Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(testutil.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/logout", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Errorf("expected code 0, got %v", resp["code"])
	}
}

func TestLogoutWithExpiry(t *testing.T) {
	env := setupAuthHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/logout", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
