package cmd

import (
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/spf13/cobra"
)

// actorFlags describes the caller the way the identity provider would.
type actorFlags struct {
	accountID string
	role      string
	tier      string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.accountID, "account", "", "Account ID of the caller")
	cmd.Flags().StringVar(&f.role, "role", "", "Caller role (guest|kol|brand|admin); empty means anonymous")
	cmd.Flags().StringVar(&f.tier, "tier", "free", "Subscription tier (free|pro|growth|enterprise|premium)")
}

func (f actorFlags) actor() (domain.Actor, error) {
	role, err := domain.ParseRole(f.role)
	if err != nil {
		return domain.Actor{}, err
	}
	tier, err := domain.ParseTier(f.tier)
	if err != nil {
		return domain.Actor{}, err
	}

	return domain.Actor{
		AccountID:     domain.AccountID(f.accountID),
		Authenticated: role != domain.RoleGuest,
		Role:          role,
		Tier:          tier,
	}, nil
}

func describeDecision(decision domain.Decision) string {
	if decision.Allowed() {
		if decision.CreditsRequired > 0 {
			return "allowed (costs " + pluralCredits(decision.CreditsRequired) + ")"
		}
		return "allowed"
	}

	line := string(decision.Outcome) + ": " + decision.Reason
	if intent := decision.Intent(); intent != domain.IntentNone {
		line += " [" + string(intent) + "]"
	}
	return line
}
