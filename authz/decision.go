package authz

import "time"

// Status is the tri-state outcome of an access check. Callers map
// StatusNotFound to a 404-style response and StatusForbidden to 403, keeping
// resource existence separate from permission denial where the caller chooses
// to hide existence.
type Status int

const (
	StatusAllowed Status = iota
	StatusForbidden
	StatusNotFound
)

// Decision is the side-effect-free result of an access check.
type Decision struct {
	Status Status
	Reason Reason
	// TrialEndsAt is set when Reason is ReasonTrialExpired.
	TrialEndsAt *time.Time
}

// Allow is the allowed decision.
func Allow() Decision { return Decision{Status: StatusAllowed} }

// Deny is a forbidden decision with a reason.
func Deny(reason Reason) Decision { return Decision{Status: StatusForbidden, Reason: reason} }

// NotFound is a not-found decision with a reason.
func NotFound(reason Reason) Decision { return Decision{Status: StatusNotFound, Reason: reason} }

// Allowed reports whether the check passed.
func (d Decision) Allowed() bool { return d.Status == StatusAllowed }
