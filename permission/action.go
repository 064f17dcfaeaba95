package permission

import "strings"

// Action is an enumerated permission verb. Unknown verbs are rejected at the
// boundary by ParseAction rather than compared as free-form strings inside
// handlers.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Actions lists every recognized action in canonical order.
var Actions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// IsValid returns true if a is one of the recognized actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// IsMutation reports whether the action writes state. View is the only
// read-only action.
func (a Action) IsMutation() bool { return a != ActionView }

// ParseAction converts a string to Action, case-insensitive.
// Returns ok=false if the string is not recognized.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", false
	}
	return a, true
}
