package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexcrm/internal/models"
	"nexcrm/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *services.RuleService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.AutomationRule{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	rules := services.NewRuleService(db, logger)

	router := gin.New()
	// Stand-in for the auth middleware: a fixed tenant and user.
	router.Use(func(c *gin.Context) {
		c.Set("org_id", "org-a")
		c.Set("user_id", "u-1")
	})
	api := router.Group("/api")
	RegisterAutomationRoutes(api, NewAutomationHandler(rules))
	return router, rules
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validRuleBody(name string) map[string]any {
	return map[string]any{
		"name":           name,
		"trigger_module": "Lead",
		"trigger_event":  "Created",
		"conditions": []map[string]any{
			{"field": "source", "operator": "equals", "value": "website"},
		},
		"actions": []map[string]any{
			{"type": "assign_user", "target_user_id": "u-9"},
		},
	}
}

func TestCreateRuleEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/automations", validRuleBody("route-website-leads"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var rule models.AutomationRule
	if err := json.Unmarshal(w.Body.Bytes(), &rule); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rule.ID == "" || rule.Name != "route-website-leads" || !rule.IsActive {
		t.Fatalf("unexpected rule: %+v", rule)
	}
	if rule.OrganizationID != "org-a" {
		t.Fatalf("organization_id = %q", rule.OrganizationID)
	}
	if len(rule.Actions) != 1 {
		t.Fatalf("actions = %+v", rule.Actions)
	}
}

func TestCreateRuleDuplicateNameConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodPost, "/api/automations", validRuleBody("dup")); w.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d", w.Code)
	}
	w := doJSON(t, router, http.MethodPost, "/api/automations", validRuleBody("dup"))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
}

func TestCreateRuleRejectsBadPayload(t *testing.T) {
	router, _ := newTestRouter(t)

	body := validRuleBody("bad-action")
	body["actions"] = []map[string]any{{"type": "launch_rocket"}}
	if w := doJSON(t, router, http.MethodPost, "/api/automations", body); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action type: status = %d", w.Code)
	}

	body = validRuleBody("bad-module")
	body["trigger_module"] = "Widget"
	if w := doJSON(t, router, http.MethodPost, "/api/automations", body); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown module: status = %d", w.Code)
	}

	body = validRuleBody("")
	delete(body, "name")
	if w := doJSON(t, router, http.MethodPost, "/api/automations", body); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d", w.Code)
	}
}

func TestGetUpdateDeleteRuleEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/automations", validRuleBody("lifecycle"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", w.Code)
	}
	var created models.AutomationRule
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if w := doJSON(t, router, http.MethodGet, "/api/automations/"+created.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}

	update := validRuleBody("lifecycle")
	update["is_active"] = false
	w = doJSON(t, router, http.MethodPut, "/api/automations/"+created.ID, update)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.AutomationRule
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.IsActive {
		t.Fatal("rule should be inactive after update")
	}

	if w := doJSON(t, router, http.MethodDelete, "/api/automations/"+created.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/automations/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d", w.Code)
	}
}

func TestRuleEndpointsUnknownID(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := doJSON(t, router, http.MethodGet, "/api/automations/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get: status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPut, "/api/automations/nope", validRuleBody("x")); w.Code != http.StatusNotFound {
		t.Fatalf("update: status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodDelete, "/api/automations/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete: status = %d", w.Code)
	}
}

func TestListRulesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, name := range []string{"a", "b", "c"} {
		if w := doJSON(t, router, http.MethodPost, "/api/automations", validRuleBody(name)); w.Code != http.StatusCreated {
			t.Fatalf("create %q: status = %d", name, w.Code)
		}
	}
	w := doJSON(t, router, http.MethodGet, "/api/automations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
	var rules []models.AutomationRule
	if err := json.Unmarshal(w.Body.Bytes(), &rules); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
}
