package application

import (
	"context"
	"fmt"

	"github.com/bnema/kol-credits/internal/domain"
)

type Permissions struct {
	ledger *Ledger
}

func NewPermissions(ledger *Ledger) *Permissions {
	return &Permissions{ledger: ledger}
}

// CanPerform evaluates the role table, reading the actor's free credits only where browsing
// is metered. An actor without an account id has no credits.
func (p *Permissions) CanPerform(ctx context.Context, actor domain.Actor, action domain.Action) (domain.Decision, error) {
	if !action.Valid() {
		return domain.DenyUnknown(), nil
	}

	freeCredits := 0
	if meteredAction(actor, action) && actor.AccountID != "" {
		account, err := p.ledger.Load(ctx, actor.AccountID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("load credit account: %w", err)
		}
		freeCredits = account.FreeCredits
	}

	return domain.CanPerform(actor, action, freeCredits), nil
}

func (p *Permissions) SearchResultLimit(actor domain.Actor) int {
	return domain.SearchResultLimit(actor)
}

func meteredAction(actor domain.Actor, action domain.Action) bool {
	if action != domain.ActionViewKOLProfiles {
		return false
	}
	return actor.Anonymous() || (actor.Role == domain.RoleBrand && !actor.Tier.Paid())
}
