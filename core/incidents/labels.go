package incidents

// Incident status and urgency vocabularies. Statuses move only through the
// service; urgency is set by the reporter.
var validStatus = map[string]struct{}{
	"pending":     {},
	"in_progress": {},
	"completed":   {},
	"rejected":    {},
}

var validUrgency = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

// typeLabels maps incident type codes to the labels shown in notifications.
// Unknown codes fall back to the raw code.
var typeLabels = map[string]string{
	"security":       "Seguridad",
	"health":         "Salud",
	"property":       "Propiedad",
	"infrastructure": "Infraestructura",
	"other":          "Otro",
}

// fieldLabels maps editable field names to their notification labels.
var fieldLabels = map[string]string{
	"type":        "tipo",
	"description": "descripción",
	"floor":       "piso",
	"ambient":     "ambiente",
	"urgency":     "urgencia",
}

// TypeLabel returns the display label for an incident type code.
func TypeLabel(code string) string {
	if label, ok := typeLabels[code]; ok {
		return label
	}
	return code
}

// FieldLabels translates edited field names for the edit notification.
func FieldLabels(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if label, ok := fieldLabels[f]; ok {
			out = append(out, label)
			continue
		}
		out = append(out, f)
	}
	return out
}

// IsValidStatus reports whether s is one of the four lifecycle states.
func IsValidStatus(s string) bool {
	_, ok := validStatus[s]
	return ok
}

// IsValidUrgency reports whether u is one of the four urgency levels.
func IsValidUrgency(u string) bool {
	_, ok := validUrgency[u]
	return ok
}
