package ports

import (
	"context"

	"github.com/bnema/kol-credits/internal/domain"
)

// CreditAccountRepository persists credit accounts with optimistic concurrency: Save only
// succeeds when account.Version equals the stored version (0 for a new account) and leaves
// the stored version at account.Version+1. A mismatch returns domain.ErrVersionConflict.
type CreditAccountRepository interface {
	GetByID(ctx context.Context, id domain.AccountID) (domain.CreditAccount, error)
	List(ctx context.Context) ([]domain.CreditAccount, error)
	Save(ctx context.Context, account domain.CreditAccount) error
}
