package incidents

// transitions is the explicit status graph. Completed and rejected incidents
// can be reopened by the admin roles; a request for the current status is
// not a transition and is rejected.
var transitions = map[string]map[string]bool{
	"pending": {
		"in_progress": true,
		"completed":   true,
		"rejected":    true,
	},
	"in_progress": {
		"pending":   true,
		"completed": true,
		"rejected":  true,
	},
	"completed": {
		"in_progress": true,
	},
	"rejected": {
		"pending":     true,
		"in_progress": true,
	},
}

// CanTransition reports whether the status graph allows from → to.
func CanTransition(from, to string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}
