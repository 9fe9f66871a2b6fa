package domain

import "fmt"

type Action string

const (
	ActionViewKOLProfiles         Action = "view_kol_profiles"
	ActionViewFullCampaignDetails Action = "view_full_campaign_details"
	ActionContactKOL              Action = "contact_kol"
	ActionViewKOLMetrics          Action = "view_kol_metrics"
	ActionInviteToCampaign        Action = "invite_to_campaign"
	ActionSaveCampaign            Action = "save_campaign"
	ActionApplyForJob             Action = "apply_for_job"
)

var Actions = []Action{
	ActionViewKOLProfiles,
	ActionViewFullCampaignDetails,
	ActionContactKOL,
	ActionViewKOLMetrics,
	ActionInviteToCampaign,
	ActionSaveCampaign,
	ActionApplyForJob,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

type Outcome string

const (
	OutcomeAllowed               Outcome = "allowed"
	OutcomeDeniedNoCredits       Outcome = "denied_no_credits"
	OutcomeDeniedNoAuth          Outcome = "denied_no_auth"
	OutcomeDeniedRoleForbidden   Outcome = "denied_role_forbidden"
	OutcomeDeniedUpgradeRequired Outcome = "denied_upgrade_required"
	OutcomeDeniedMonthlyLimit    Outcome = "denied_monthly_limit"
	OutcomeDeniedUnknown         Outcome = "denied_unknown"
)

// Decision is the result of a permission check. Only the fields relevant to Outcome are
// set: CreditsRequired for Allowed (when the action costs credits) and DeniedNoCredits,
// Limit and Used for DeniedMonthlyLimit.
type Decision struct {
	Outcome         Outcome
	Reason          string
	CreditsRequired int
	Limit           int
	Used            int
}

func Allow() Decision {
	return Decision{Outcome: OutcomeAllowed}
}

func AllowWithCost(credits int) Decision {
	return Decision{Outcome: OutcomeAllowed, CreditsRequired: credits}
}

func DenyNoCredits(reason string, required int) Decision {
	return Decision{Outcome: OutcomeDeniedNoCredits, Reason: reason, CreditsRequired: required}
}

func DenyNoAuth() Decision {
	return Decision{Outcome: OutcomeDeniedNoAuth, Reason: "Authentication required"}
}

func DenyRoleForbidden(reason string) Decision {
	return Decision{Outcome: OutcomeDeniedRoleForbidden, Reason: reason}
}

func DenyUpgradeRequired(reason string) Decision {
	return Decision{Outcome: OutcomeDeniedUpgradeRequired, Reason: reason}
}

func DenyMonthlyLimit(limit, used int) Decision {
	return Decision{
		Outcome: OutcomeDeniedMonthlyLimit,
		Reason:  fmt.Sprintf("Monthly contact limit reached (%d/%d). Upgrade your plan or wait until next month.", used, limit),
		Limit:   limit,
		Used:    used,
	}
}

func DenyUnknown() Decision {
	return Decision{Outcome: OutcomeDeniedUnknown, Reason: "Insufficient permissions"}
}

func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

func (d Decision) RequiresUpgrade() bool {
	return d.Outcome == OutcomeDeniedUpgradeRequired || d.Outcome == OutcomeDeniedMonthlyLimit
}

func (d Decision) RequiresAuthentication() bool {
	return d.Outcome == OutcomeDeniedNoAuth
}

func (d Decision) Intent() Intent {
	switch {
	case d.RequiresAuthentication():
		return IntentLogin
	case d.RequiresUpgrade(), d.Outcome == OutcomeDeniedNoCredits:
		return IntentUpgrade
	default:
		return IntentNone
	}
}

// CanPerform evaluates the static role/tier table. freeCredits is only consulted where
// access is metered (profile browsing by anonymous and free-tier brand users).
func CanPerform(actor Actor, action Action, freeCredits int) Decision {
	if !action.Valid() {
		return DenyUnknown()
	}

	if actor.Anonymous() {
		if action == ActionViewKOLProfiles {
			return meteredBrowse(freeCredits)
		}
		return DenyNoAuth()
	}

	switch actor.Role {
	case RoleAdmin:
		return Allow()
	case RoleKOL:
		switch action {
		case ActionViewKOLProfiles, ActionViewFullCampaignDetails, ActionSaveCampaign, ActionApplyForJob:
			return Allow()
		default:
			return DenyRoleForbidden(fmt.Sprintf("Creators cannot %s", actionPhrase(action)))
		}
	case RoleBrand:
		switch action {
		case ActionViewKOLProfiles:
			if actor.Tier.Paid() {
				return Allow()
			}
			return meteredBrowse(freeCredits)
		case ActionContactKOL, ActionInviteToCampaign, ActionViewFullCampaignDetails:
			return Allow()
		case ActionViewKOLMetrics:
			if actor.Tier.Paid() {
				return Allow()
			}
			return DenyUpgradeRequired("Upgrade to a paid plan to view creator metrics")
		}
	}

	return DenyUnknown()
}

func meteredBrowse(freeCredits int) Decision {
	if freeCredits > 0 {
		return Allow()
	}
	return DenyNoCredits("No credits remaining. Credits reset daily.", 1)
}

func actionPhrase(action Action) string {
	switch action {
	case ActionContactKOL:
		return "contact other creators"
	case ActionViewKOLMetrics:
		return "view creator metrics"
	case ActionInviteToCampaign:
		return "invite creators to campaigns"
	default:
		return string(action)
	}
}

// SearchResultLimit caps the number of search results returned to actor.
func SearchResultLimit(actor Actor) int {
	if actor.Anonymous() {
		return 3
	}
	if actor.Tier.Paid() {
		return 1000
	}
	switch actor.Role {
	case RoleKOL:
		return 10
	case RoleBrand:
		return 15
	default:
		return 5
	}
}
