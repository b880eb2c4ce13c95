package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"aulasec/config"
	"aulasec/core/incidents"
	"aulasec/core/rbac"
	"aulasec/core/store"
)

type noopNotifier struct{}

func (noopNotifier) NotifyAdmins(context.Context, any)       {}
func (noopNotifier) NotifyUser(context.Context, any, string) {}

type handlerFixture struct {
	handler *IncidentsHandler
	svc     *incidents.Service
	users   store.UsersStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := store.NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, "sqlite", nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	policy, err := rbac.NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	incidentsStore := store.NewIncidentsStore(db)
	users := store.NewUsersStore(db)
	svc := incidents.NewService(incidentsStore, users, policy, noopNotifier{}, "unknown", nil)
	return &handlerFixture{
		handler: NewIncidentsHandler(svc, incidentsStore, nil),
		svc:     svc,
		users:   users,
	}
}

func (f *handlerFixture) seedUser(t *testing.T, userID, role string) {
	t.Helper()
	err := f.users.Create(context.Background(), &store.User{
		UserID: userID, Role: role, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (f *handlerFixture) seedIncident(t *testing.T, createdBy string) *store.Incident {
	t.Helper()
	incident, err := f.svc.Create(context.Background(), incidents.CreateInput{
		Type: "security", Floor: 3, Ambient: "Laboratorio 301",
		Description: "Puerta forzada", Urgency: "high", CreatedBy: createdBy,
	})
	if err != nil {
		t.Fatalf("seed incident: %v", err)
	}
	return incident
}

func TestCreateHandler(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"type":"security","floor":3,"ambient":"Laboratorio 301","description":"Puerta forzada","urgency":"high","created_by":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/incidents", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var incident store.Incident
	if err := json.Unmarshal(rec.Body.Bytes(), &incident); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if incident.IncidentID == "" || incident.Status != "pending" || incident.Version != 1 {
		t.Fatalf("unexpected incident: %+v", incident)
	}
}

func TestCreateHandlerRejectsBadInput(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/incidents", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/incidents", bytes.NewBufferString(`{"type":"security","urgency":"high"}`))
	rec = httptest.NewRecorder()
	f.handler.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing description, got %d", rec.Code)
	}
}

func TestGetHandler(t *testing.T) {
	f := newHandlerFixture(t)
	seeded := f.seedIncident(t, "u1")

	req := httptest.NewRequest(http.MethodGet, "/api/incidents/"+seeded.IncidentID, nil)
	rec := httptest.NewRecorder()
	f.handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/incidents/ghost", nil)
	rec = httptest.NewRecorder()
	f.handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown incident, got %d", rec.Code)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "a1", rbac.RoleAuthority)
	f.seedUser(t, "s1", rbac.RoleStudent)
	seeded := f.seedIncident(t, "s1")

	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/incidents/"+seeded.IncidentID+"/status", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		f.handler.UpdateStatus(rec, req)
		return rec
	}

	if rec := do(`{"new_status":"in_progress"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user_id, got %d", rec.Code)
	}
	if rec := do(`{"new_status":"in_progress","user_id":"s1"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", rec.Code)
	}
	if rec := do(`{"new_status":"in_progress","user_id":"ghost"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}

	rec := do(`{"new_status":"in_progress","user_id":"a1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var incident store.Incident
	if err := json.Unmarshal(rec.Body.Bytes(), &incident); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if incident.Status != "in_progress" || incident.Version != 2 {
		t.Fatalf("unexpected incident: %+v", incident)
	}

	// completed -> pending is outside the transition table.
	if rec := do(`{"new_status":"completed","user_id":"a1"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(`{"new_status":"pending","user_id":"a1"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for illegal transition, got %d", rec.Code)
	}
}

func TestEditHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "a1", rbac.RoleAuthority)
	seeded := f.seedIncident(t, "u1")

	req := httptest.NewRequest(http.MethodPatch, "/api/incidents/"+seeded.IncidentID, bytes.NewBufferString(`{"description":"Puerta forzada y chapa rota"}`))
	rec := httptest.NewRecorder()
	f.handler.Edit(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var incident store.Incident
	if err := json.Unmarshal(rec.Body.Bytes(), &incident); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if incident.Description != "Puerta forzada y chapa rota" {
		t.Fatalf("edit not applied: %+v", incident)
	}

	// Move off pending, then edits must conflict.
	f.seedUser(t, "s1", rbac.RoleStudent)
	if _, err := f.svc.UpdateStatus(context.Background(), seeded.IncidentID, "in_progress", "a1"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	req = httptest.NewRequest(http.MethodPatch, "/api/incidents/"+seeded.IncidentID, bytes.NewBufferString(`{"description":"otra vez"}`))
	rec = httptest.NewRecorder()
	f.handler.Edit(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for non-pending edit, got %d", rec.Code)
	}
}

func TestListHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedIncident(t, "u1")
	f.seedIncident(t, "u1")
	f.seedIncident(t, "u2")

	do := func(query string) (*httptest.ResponseRecorder, []store.Incident) {
		req := httptest.NewRequest(http.MethodGet, "/api/incidents"+query, nil)
		rec := httptest.NewRecorder()
		f.handler.List(rec, req)
		var items []store.Incident
		if rec.Code == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
				t.Fatalf("decode list: %v", err)
			}
		}
		return rec, items
	}

	if _, items := do(""); len(items) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(items))
	}
	if _, items := do("?student_id=u1"); len(items) != 2 {
		t.Fatalf("expected 2 incidents for u1, got %d", len(items))
	}
	if _, items := do("?floor=3"); len(items) != 3 {
		t.Fatalf("expected 3 incidents on floor 3, got %d", len(items))
	}
	if _, items := do("?urgency=high"); len(items) != 3 {
		t.Fatalf("expected 3 high incidents, got %d", len(items))
	}
	if _, items := do("?urgency=low"); len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
	if rec, _ := do("?floor=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric floor, got %d", rec.Code)
	}
	if rec, _ := do("?urgency=urgent"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad urgency, got %d", rec.Code)
	}
}
