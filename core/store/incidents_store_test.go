package store

import (
	"context"
	"testing"
	"time"
)

func sampleIncident(id, createdBy string) *Incident {
	now := time.Now().UTC().Truncate(time.Second)
	return &Incident{
		IncidentID:     id,
		Type:           "security",
		Floor:          3,
		Ambient:        "Laboratorio 301",
		Description:    "Puerta forzada",
		Urgency:        "high",
		Status:         "pending",
		CreatedBy:      createdBy,
		ReportedByName: "Ana Pérez",
		History: []HistoryEntry{
			{Action: "created", By: createdBy, ByName: "Ana Pérez", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIncidentCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	in := sampleIncident("i1", "u1")
	if err := incidents.CreateIncident(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := incidents.GetIncident(ctx, "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("incident not found after create")
	}
	if got.Type != "security" || got.Urgency != "high" || got.Status != "pending" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
	if len(got.History) != 1 || got.History[0].Action != "created" {
		t.Fatalf("history not preserved: %+v", got.History)
	}

	missing, err := incidents.GetIncident(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing incident, got %+v", missing)
	}
}

func TestIncidentUpdateBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	in := sampleIncident("i1", "u1")
	if err := incidents.CreateIncident(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	in.Status = "in_progress"
	in.History = append(in.History, HistoryEntry{Action: "status_changed_to_in_progress", By: "a1", At: time.Now().UTC()})
	in.UpdatedAt = time.Now().UTC()
	if err := incidents.UpdateIncident(ctx, in, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if in.Version != 2 {
		t.Fatalf("expected version bumped to 2, got %d", in.Version)
	}

	got, err := incidents.GetIncident(ctx, "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "in_progress" || got.Version != 2 {
		t.Fatalf("update not persisted: %+v", got)
	}
	if len(got.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(got.History))
	}
}

func TestIncidentUpdateStaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	in := sampleIncident("i1", "u1")
	if err := incidents.CreateIncident(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	in.Status = "in_progress"
	if err := incidents.UpdateIncident(ctx, in, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A writer still holding version 1 must not clobber version 2.
	stale := sampleIncident("i1", "u1")
	stale.Status = "rejected"
	if err := incidents.UpdateIncident(ctx, stale, 1); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := incidents.GetIncident(ctx, "i1")
	if got.Status != "in_progress" {
		t.Fatalf("stale write leaked through: %+v", got)
	}
}

func TestIncidentListFilters(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	a := sampleIncident("i1", "u1")
	b := sampleIncident("i2", "u1")
	b.Floor = 5
	b.Urgency = "low"
	c := sampleIncident("i3", "u2")
	c.Floor = 5
	for _, in := range []*Incident{a, b, c} {
		if err := incidents.CreateIncident(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.IncidentID, err)
		}
	}

	byReporter, err := incidents.ListByReporter(ctx, "u1")
	if err != nil {
		t.Fatalf("list by reporter: %v", err)
	}
	if len(byReporter) != 2 {
		t.Fatalf("expected 2 incidents for u1, got %d", len(byReporter))
	}

	byFloor, err := incidents.ListByFloor(ctx, 5)
	if err != nil {
		t.Fatalf("list by floor: %v", err)
	}
	if len(byFloor) != 2 {
		t.Fatalf("expected 2 incidents on floor 5, got %d", len(byFloor))
	}

	byUrgency, err := incidents.ListByUrgency(ctx, "high")
	if err != nil {
		t.Fatalf("list by urgency: %v", err)
	}
	if len(byUrgency) != 2 {
		t.Fatalf("expected 2 high urgency incidents, got %d", len(byUrgency))
	}

	all, err := incidents.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(all))
	}
}

func TestUserDisplayName(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	ctx := context.Background()

	u := &User{UserID: "u1", Role: "Estudiante", FirstName: "Ana", LastName: "Pérez", Email: "ana@example.edu", CreatedAt: time.Now().UTC()}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	got, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil || got.DisplayName() != "Ana Pérez" {
		t.Fatalf("unexpected user: %+v", got)
	}

	anon := &User{UserID: "u2"}
	if anon.DisplayName() != "u2" {
		t.Fatalf("expected fallback to user id, got %q", anon.DisplayName())
	}

	missing, err := users.Get(ctx, "ghost")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing user, got %+v", missing)
	}
}
