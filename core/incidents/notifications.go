package incidents

import (
	"time"

	"aulasec/core/store"
)

// Notification payloads pushed over the websocket channel. The Spanish field
// vocabulary is the wire contract with the dashboards; codes stay English
// (status, urgency) and labels are resolved server-side.

// CreatedNotification goes to both admin roles when a new incident lands.
type CreatedNotification struct {
	Tipo         string `json:"tipo"`
	IncidentID   string `json:"incident_id"`
	TipoIncident string `json:"tipo_incidente"`
	Descripcion  string `json:"descripcion"`
	Urgencia     string `json:"urgencia"`
	Estado       string `json:"estado"`
	Piso         int    `json:"piso"`
	Ambiente     string `json:"ambiente"`
	ReportadoPor string `json:"reportado_por"`
}

// StatusChangedNotification goes to both admin roles after a status update.
type StatusChangedNotification struct {
	Tipo        string `json:"tipo"`
	IncidentID  string `json:"incident_id"`
	NuevoEstado string `json:"nuevo_estado"`
}

// EditedNotification goes directly to the reporter when staff edit a pending
// incident.
type EditedNotification struct {
	Tipo               string    `json:"tipo"`
	IncidentID         string    `json:"incident_id"`
	TipoIncident       string    `json:"tipo_incidente"`
	Piso               int       `json:"piso"`
	Ambiente           string    `json:"ambiente"`
	Mensaje            string    `json:"mensaje"`
	CamposActualizados []string  `json:"campos_actualizados"`
	CamposLabels       []string  `json:"campos_actualizados_labels"`
	Timestamp          time.Time `json:"timestamp"`
}

func newCreatedNotification(incident *store.Incident) CreatedNotification {
	return CreatedNotification{
		Tipo:         "nuevo_incidente",
		IncidentID:   incident.IncidentID,
		TipoIncident: TypeLabel(incident.Type),
		Descripcion:  incident.Description,
		Urgencia:     incident.Urgency,
		Estado:       incident.Status,
		Piso:         incident.Floor,
		Ambiente:     incident.Ambient,
		ReportadoPor: incident.ReportedByName,
	}
}
