package incidents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"aulasec/core/rbac"
	"aulasec/core/store"
)

// Notifier is the slice of the dispatcher the service needs. Notification
// outcomes never affect the result of an operation: once the store write
// succeeded the operation succeeded.
type Notifier interface {
	NotifyAdmins(ctx context.Context, message any)
	NotifyUser(ctx context.Context, message any, userID string)
}

// Service owns the incident lifecycle: creation, role-gated status changes
// and pending-only edits, each followed by a push notification.
type Service struct {
	incidents store.IncidentsStore
	users     store.UsersStore
	policy    *rbac.Policy
	notifier  Notifier
	logger    *logrus.Logger

	unknownReporter string
}

func NewService(incidents store.IncidentsStore, users store.UsersStore, policy *rbac.Policy, notifier Notifier, unknownReporter string, logger *logrus.Logger) *Service {
	if strings.TrimSpace(unknownReporter) == "" {
		unknownReporter = "unknown"
	}
	return &Service{
		incidents:       incidents,
		users:           users,
		policy:          policy,
		notifier:        notifier,
		logger:          logger,
		unknownReporter: unknownReporter,
	}
}

type CreateInput struct {
	Type        string `json:"type"`
	Floor       int    `json:"floor"`
	Ambient     string `json:"ambient"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
	CreatedBy   string `json:"created_by"`
}

// Create validates the report, persists it as pending with a seeded history
// and notifies the admin roles.
func (s *Service) Create(ctx context.Context, input CreateInput) (*store.Incident, error) {
	if strings.TrimSpace(input.Type) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, validationf("type and description required")
	}
	if !IsValidUrgency(input.Urgency) {
		return nil, validationf("invalid urgency %q", input.Urgency)
	}

	createdBy := strings.TrimSpace(input.CreatedBy)
	if createdBy == "" {
		createdBy = s.unknownReporter
	}
	reporterName := s.resolveDisplayName(ctx, createdBy)

	now := time.Now().UTC()
	incident := &store.Incident{
		IncidentID:     uuid.Must(uuid.NewV4()).String(),
		Type:           input.Type,
		Floor:          input.Floor,
		Ambient:        input.Ambient,
		Description:    input.Description,
		Urgency:        input.Urgency,
		Status:         "pending",
		CreatedBy:      createdBy,
		ReportedByName: reporterName,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		History: []store.HistoryEntry{
			{Action: "created", By: createdBy, ByName: reporterName, At: now},
		},
	}
	if err := s.incidents.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	if s.logger != nil {
		s.logger.Infof("incident %s created by %s (%s, urgency %s)", incident.IncidentID, createdBy, incident.Type, incident.Urgency)
	}
	s.notifier.NotifyAdmins(ctx, newCreatedNotification(incident))
	return incident, nil
}

// UpdateStatus moves the incident to newStatus on behalf of actingUserID.
// Both admin roles may do this; the transition table decides which moves are
// legal. The write is conditional on the version read here, so a concurrent
// update surfaces as a store conflict instead of silently losing history.
func (s *Service) UpdateStatus(ctx context.Context, incidentID, newStatus, actingUserID string) (*store.Incident, error) {
	if !IsValidStatus(newStatus) {
		return nil, validationf("invalid status %q", newStatus)
	}
	actor, err := s.users.Get(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}
	if !s.policy.Allowed(actor.Role, rbac.PermIncidentsManage) {
		return nil, ErrNotAuthorized
	}
	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("load incident: %w", err)
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	if !CanTransition(incident.Status, newStatus) {
		return nil, &TransitionError{From: incident.Status, To: newStatus}
	}

	now := time.Now().UTC()
	expected := incident.Version
	incident.Status = newStatus
	incident.UpdatedAt = now
	incident.History = append(incident.History, store.HistoryEntry{
		Action: "status_changed_to_" + newStatus,
		By:     actor.UserID,
		ByName: actor.DisplayName(),
		At:     now,
	})
	if err := s.incidents.UpdateIncident(ctx, incident, expected); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if s.logger != nil {
		s.logger.Infof("incident %s status -> %s by %s", incidentID, newStatus, actor.UserID)
	}
	s.notifier.NotifyAdmins(ctx, StatusChangedNotification{
		Tipo:        "estado_cambiado",
		IncidentID:  incident.IncidentID,
		NuevoEstado: newStatus,
	})
	return incident, nil
}

// EditInput carries a partial set of content fields. Nil pointers mean
// "leave untouched".
type EditInput struct {
	Type        *string `json:"type"`
	Floor       *int    `json:"floor"`
	Ambient     *string `json:"ambient"`
	Description *string `json:"description"`
	Urgency     *string `json:"urgency"`
}

// Edit applies the supplied content fields to a pending incident and, when
// the reporter is a known user, tells them what changed.
func (s *Service) Edit(ctx context.Context, incidentID string, input EditInput) (*store.Incident, error) {
	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("load incident: %w", err)
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	if incident.Status != "pending" {
		return nil, ErrNotEditable
	}

	var changed []string
	if input.Type != nil {
		incident.Type = *input.Type
		changed = append(changed, "type")
	}
	if input.Description != nil {
		incident.Description = *input.Description
		changed = append(changed, "description")
	}
	if input.Floor != nil {
		incident.Floor = *input.Floor
		changed = append(changed, "floor")
	}
	if input.Ambient != nil {
		incident.Ambient = *input.Ambient
		changed = append(changed, "ambient")
	}
	if input.Urgency != nil {
		if !IsValidUrgency(*input.Urgency) {
			return nil, validationf("invalid urgency %q", *input.Urgency)
		}
		incident.Urgency = *input.Urgency
		changed = append(changed, "urgency")
	}
	if len(changed) == 0 {
		return nil, validationf("no editable fields supplied")
	}

	now := time.Now().UTC()
	expected := incident.Version
	incident.UpdatedAt = now
	if err := s.incidents.UpdateIncident(ctx, incident, expected); err != nil {
		return nil, fmt.Errorf("edit incident: %w", err)
	}
	if s.logger != nil {
		s.logger.Infof("incident %s edited (%s)", incidentID, strings.Join(changed, ","))
	}
	if incident.CreatedBy != s.unknownReporter {
		labels := FieldLabels(changed)
		s.notifier.NotifyUser(ctx, EditedNotification{
			Tipo:               "incidente_editado",
			IncidentID:         incident.IncidentID,
			TipoIncident:       TypeLabel(incident.Type),
			Piso:               incident.Floor,
			Ambiente:           incident.Ambient,
			Mensaje:            "Se actualizó tu reporte: " + strings.Join(labels, ", "),
			CamposActualizados: changed,
			CamposLabels:       labels,
			Timestamp:          now,
		}, incident.CreatedBy)
	}
	return incident, nil
}

// Get fetches one incident.
func (s *Service) Get(ctx context.Context, incidentID string) (*store.Incident, error) {
	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("load incident: %w", err)
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

func (s *Service) resolveDisplayName(ctx context.Context, userID string) string {
	if userID == s.unknownReporter {
		return userID
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil || user == nil {
		return userID
	}
	return user.DisplayName()
}
