package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"embystats/api"
	"embystats/models"
	"embystats/services/servers"
)

func newTestServersHandler(t *testing.T) (*ServersHandler, *servers.Service) {
	t.Helper()
	registry, err := servers.NewService(filepath.Join(t.TempDir(), "servers.json"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defaults := models.ServerConfig{
		Name:    "Main",
		EmbyURL: "http://emby.local:8096",
		APIKey:  "top-secret",
		AuthDB:  "/data/authentication.db",
	}
	return NewServersHandler(registry, defaults), registry
}

func withSession(r *http.Request, isAdmin bool) *http.Request {
	ctx := context.WithValue(r.Context(), api.ContextKeySession, models.Session{
		Token:    "tok",
		Username: "alice",
		IsAdmin:  isAdmin,
	})
	return r.WithContext(ctx)
}

func TestServersListOmitsSecrets(t *testing.T) {
	handler, registry := newTestServersHandler(t)

	if _, err := registry.Add(models.ServerConfig{
		Name:    "Remote",
		EmbyURL: "http://remote:8096",
		APIKey:  "another-secret",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "secret") || strings.Contains(body, "authentication.db") {
		t.Errorf("response leaks credentials: %s", body)
	}

	var views []serverView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2", len(views))
	}
	if views[0].ID != models.DefaultServerID || views[0].Name != "Main" {
		t.Errorf("default entry = %+v", views[0])
	}
	if views[1].Name != "Remote" || views[1].ID == "" {
		t.Errorf("registered entry = %+v", views[1])
	}
}

func TestServersAddRequiresAdmin(t *testing.T) {
	handler, registry := newTestServersHandler(t)
	body := `{"name":"Remote","embyUrl":"http://remote:8096"}`

	req := httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Add(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous add: status = %d, want 403", rec.Code)
	}

	req = withSession(httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(body)), false)
	rec = httptest.NewRecorder()
	handler.Add(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin add: status = %d, want 403", rec.Code)
	}
	if len(registry.List()) != 0 {
		t.Error("registry mutated by rejected request")
	}
}

func TestServersAdd(t *testing.T) {
	handler, registry := newTestServersHandler(t)

	body := `{"name":"Remote","embyUrl":"http://remote:8096/","apiKey":"k"}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(body)), true)
	rec := httptest.NewRecorder()
	handler.Add(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var view serverView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID == "" || view.Name != "Remote" || view.EmbyURL != "http://remote:8096" {
		t.Errorf("unexpected view: %+v", view)
	}

	stored, ok := registry.Get(view.ID)
	if !ok {
		t.Fatal("server not in registry")
	}
	if stored.APIKey != "k" {
		t.Errorf("api key not stored: %+v", stored)
	}
}

func TestServersAddValidation(t *testing.T) {
	handler, _ := newTestServersHandler(t)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/servers",
		strings.NewReader(`{"name":"","embyUrl":"http://remote:8096"}`)), true)
	rec := httptest.NewRecorder()
	handler.Add(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d, want 400", rec.Code)
	}

	req = withSession(httptest.NewRequest(http.MethodPost, "/api/servers",
		strings.NewReader("{not json")), true)
	rec = httptest.NewRecorder()
	handler.Add(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestServersDelete(t *testing.T) {
	handler, registry := newTestServersHandler(t)

	added, err := registry.Add(models.ServerConfig{Name: "Remote", EmbyURL: "http://remote:8096"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/servers/"+added.ID, nil), true)
	req = mux.SetURLVars(req, map[string]string{"id": added.ID})
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(registry.List()) != 0 {
		t.Error("server still registered after delete")
	}

	req = withSession(httptest.NewRequest(http.MethodDelete, "/api/servers/missing", nil), true)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d, want 404", rec.Code)
	}
}
