package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// HistoryEntry is one line of an incident's append-only audit trail.
type HistoryEntry struct {
	Action string    `json:"action"`
	By     string    `json:"by"`
	ByName string    `json:"by_name,omitempty"`
	At     time.Time `json:"at"`
}

type Incident struct {
	IncidentID     string         `json:"incident_id"`
	Type           string         `json:"type"`
	Floor          int            `json:"floor"`
	Ambient        string         `json:"ambient"`
	Description    string         `json:"description"`
	Urgency        string         `json:"urgency"`
	Status         string         `json:"status"`
	CreatedBy      string         `json:"created_by"`
	ReportedByName string         `json:"reported_by_name"`
	History        []HistoryEntry `json:"history"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) error
	GetIncident(ctx context.Context, incidentID string) (*Incident, error)
	// UpdateIncident persists the mutable fields and the history trail with a
	// conditional write: the row is touched only when its stored version
	// still equals expectedVersion, otherwise ErrConflict is returned.
	UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error
	ListByReporter(ctx context.Context, userID string) ([]Incident, error)
	ListByFloor(ctx context.Context, floor int) ([]Incident, error)
	ListByUrgency(ctx context.Context, urgency string) ([]Incident, error)
	ListAll(ctx context.Context) ([]Incident, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `incident_id, type, floor, ambient, description, urgency, status,
	created_by, reported_by_name, history, version, created_at, updated_at`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) error {
	if incident.Version <= 0 {
		incident.Version = 1
	}
	history, err := historyToJSON(incident.History)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO incidents(`+incidentColumns+`)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		incident.IncidentID, incident.Type, incident.Floor, incident.Ambient,
		incident.Description, incident.Urgency, incident.Status,
		incident.CreatedBy, incident.ReportedByName, history,
		incident.Version, incident.CreatedAt.UTC(), incident.UpdatedAt.UTC())
	return err
}

func (s *incidentsStore) GetIncident(ctx context.Context, incidentID string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents WHERE incident_id = $1`, incidentID)
	incident, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (s *incidentsStore) UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error {
	history, err := historyToJSON(incident.History)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET
			type = $1, floor = $2, ambient = $3, description = $4, urgency = $5,
			status = $6, history = $7, updated_at = $8, version = $9
		WHERE incident_id = $10 AND version = $11`,
		incident.Type, incident.Floor, incident.Ambient, incident.Description, incident.Urgency,
		incident.Status, history, incident.UpdatedAt.UTC(), expectedVersion+1,
		incident.IncidentID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	incident.Version = expectedVersion + 1
	return nil
}

func (s *incidentsStore) ListByReporter(ctx context.Context, userID string) ([]Incident, error) {
	return s.list(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE created_by = $1 ORDER BY created_at DESC`, userID)
}

func (s *incidentsStore) ListByFloor(ctx context.Context, floor int) ([]Incident, error) {
	return s.list(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE floor = $1 ORDER BY created_at DESC`, floor)
}

func (s *incidentsStore) ListByUrgency(ctx context.Context, urgency string) ([]Incident, error) {
	return s.list(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE urgency = $1 ORDER BY created_at DESC`, urgency)
}

func (s *incidentsStore) ListAll(ctx context.Context) ([]Incident, error) {
	return s.list(ctx, `SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC`)
}

func (s *incidentsStore) list(ctx context.Context, query string, args ...any) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *incident)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*Incident, error) {
	incident := &Incident{}
	var history string
	err := row.Scan(
		&incident.IncidentID, &incident.Type, &incident.Floor, &incident.Ambient,
		&incident.Description, &incident.Urgency, &incident.Status,
		&incident.CreatedBy, &incident.ReportedByName, &history,
		&incident.Version, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if history != "" {
		if err := json.Unmarshal([]byte(history), &incident.History); err != nil {
			return nil, err
		}
	}
	return incident, nil
}

func historyToJSON(entries []HistoryEntry) (string, error) {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
