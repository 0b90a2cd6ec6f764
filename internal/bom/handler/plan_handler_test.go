package handler

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/entity"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/repository"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/testutil"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/config"
)

func setupPlanHandlerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		Craft: config.CraftConfig{
			EvalTimeout:     5 * time.Second,
			DefaultQuantity: 1,
			CacheTTL:        time.Minute,
		},
	}
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, cfg, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/plan", handlers.Plan.Plan)
	api.POST("/plan/rollback", handlers.Plan.RollbackAll)
	api.POST("/plan/finalize", handlers.Plan.Finalize)
	api.GET("/plan/allocations", handlers.Plan.ListAllocations)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestPlanEndpointSuccess(t *testing.T) {
	env := setupPlanHandlerTest(t)
	testutil.SeedSpecTree(t, env.DB, 10)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{"bom_number": "FG100", "quantity": 1}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/plan", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Fatalf("expected code 0, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	if data["max_units"].(float64) != 1 {
		t.Errorf("max_units = %v, want 1", data["max_units"])
	}
	allocations := data["allocations"].([]interface{})
	if len(allocations) != 2 {
		t.Errorf("allocations = %d entries, want 2", len(allocations))
	}
}

func TestPlanEndpointShortage(t *testing.T) {
	env := setupPlanHandlerTest(t)
	testutil.SeedSpecTree(t, env.DB, 4)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{"bom_number": "FG100", "quantity": 1}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/plan", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10004 {
		t.Fatalf("expected code 10004, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	missing := data["missing_items"].([]interface{})
	if len(missing) != 1 {
		t.Fatalf("missing_items = %v, want one entry", missing)
	}
	first := missing[0].(map[string]interface{})
	if first["item_code"] != "RAW1" || first["missing"].(float64) != 2 {
		t.Errorf("missing item = %v, want RAW1 short by 2", first)
	}
}

func TestPlanEndpointRequiresAuth(t *testing.T) {
	env := setupPlanHandlerTest(t)

	body := map[string]interface{}{"bom_number": "FG100", "quantity": 1}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/plan", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestFinalizeEndpoint(t *testing.T) {
	env := setupPlanHandlerTest(t)
	testutil.SeedSpecTree(t, env.DB, 10)
	token := testutil.DefaultTestToken()

	plan := map[string]interface{}{"bom_number": "FG100", "quantity": 1}
	if w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/plan", plan, token); w.Code != http.StatusOK {
		t.Fatalf("plan failed: %d %s", w.Code, w.Body.String())
	}

	finalize := map[string]interface{}{"bom_number": "FG100", "quantity": 1}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/plan/finalize", finalize, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	env.DB.Model(&entity.AssemblyLog{}).Count(&count)
	if count != 1 {
		t.Errorf("assembly logs = %d, want 1", count)
	}

	// Ledger consumed; allocations listing comes back empty.
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/plan/allocations?bom_number=FG100", nil, token)
	resp := testutil.ParseResponse(w)
	entries := resp["data"].([]interface{})
	if len(entries) != 0 {
		t.Errorf("allocations after finalize = %v, want empty", entries)
	}
}
