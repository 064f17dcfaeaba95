package authz

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies engine failures so callers pattern-match on kind, never on
// message strings.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthenticated: missing/invalid/expired credential, or identity not
	// found/deactivated. Never downgraded to anonymous access.
	KindUnauthenticated
	// KindForbidden: authenticated but lacking the required role, permission,
	// or workspace relationship.
	KindForbidden
	// KindResourceGone: the workspace's underlying project no longer exists.
	// Distinct from ordinary not-found because the workspace row may still be
	// present while functionally dead.
	KindResourceGone
	// KindGraphConflict: terminal link-validation failures, reported verbatim.
	KindGraphConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindResourceGone:
		return "resource_gone"
	case KindGraphConflict:
		return "graph_conflict"
	}
	return "unknown"
}

// Reason narrows a Kind so distinct user-facing messages can be produced.
type Reason string

const (
	ReasonInvalidCredential   Reason = "invalid_credential"
	ReasonCredentialExpired   Reason = "credential_expired"
	ReasonIdentityNotFound    Reason = "identity_not_found"
	ReasonIdentityDeactivated Reason = "identity_deactivated"
	ReasonPermission          Reason = "permission"
	ReasonTrialExpired        Reason = "trial_expired"
	ReasonWorkspace           Reason = "workspace"
	ReasonRole                Reason = "role"
	ReasonProjectGone         Reason = "project_gone"
	ReasonInvalidLink         Reason = "invalid_link"
	ReasonDuplicateLink       Reason = "duplicate_link"
	ReasonCyclicDependency    Reason = "cyclic_dependency"
)

// Error is the engine's returned failure type. All engine failures are
// returned, never panicked, and are terminal: none of them is retryable.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// TrialEndsAt accompanies ReasonTrialExpired so the caller can surface the
	// date in its upgrade prompt.
	TrialEndsAt *time.Time
	Err         error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthenticated builds a KindUnauthenticated error.
func Unauthenticated(reason Reason, msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Reason: reason, Message: msg}
}

// Forbidden builds a KindForbidden error.
func Forbidden(reason Reason, msg string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: msg}
}

// TrialExpired builds the forbidden error carrying the trial end date.
func TrialExpired(endsAt *time.Time) *Error {
	return &Error{Kind: KindForbidden, Reason: ReasonTrialExpired, Message: "workspace trial has ended", TrialEndsAt: endsAt}
}

// ResourceGone builds a KindResourceGone error.
func ResourceGone(msg string) *Error {
	return &Error{Kind: KindResourceGone, Reason: ReasonProjectGone, Message: msg}
}

// GraphConflict builds a KindGraphConflict error.
func GraphConflict(reason Reason, msg string) *Error {
	return &Error{Kind: KindGraphConflict, Reason: reason, Message: msg}
}

// KindOf extracts the Kind from an error chain, or KindUnknown for plain
// storage/connectivity errors (the only retryable class).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf extracts the Reason from an error chain, or "".
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
