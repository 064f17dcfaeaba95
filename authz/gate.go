package authz

import (
	"time"

	"github.com/crewdeskhq/crewdesk/models"
)

// SubscriptionGate evaluates whether a resolved workspace's trial or
// subscription state permits continued access. It is stateless; nothing is
// cached between evaluations.
type SubscriptionGate struct{}

// Check returns the allowed decision for nil workspaces (super-admin and
// no-tenant contexts always pass), for workspaces with a subscription
// reference, and for non-trial plans. A trial-only workspace is allowed only
// while now is before the trial-end timestamp; otherwise the decision carries
// ReasonTrialExpired and the trial end date for the caller's upgrade prompt.
func (SubscriptionGate) Check(ws *models.Workspace, now time.Time) Decision {
	if ws == nil {
		return Allow()
	}
	if ws.SubscriptionID != nil && *ws.SubscriptionID != "" {
		return Allow()
	}
	if !ws.Plan.IsTrial() {
		return Allow()
	}
	if ws.TrialEndsAt != nil && now.Before(*ws.TrialEndsAt) {
		return Allow()
	}
	return Decision{Status: StatusForbidden, Reason: ReasonTrialExpired, TrialEndsAt: ws.TrialEndsAt}
}
