package ports

import (
	"context"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
)

type ContactRepository interface {
	ListHistory(ctx context.Context, actorID domain.AccountID) ([]domain.ContactHistoryEntry, error)
	AppendHistory(ctx context.Context, entry domain.ContactHistoryEntry) error
	RemoveHistory(ctx context.Context, entry domain.ContactHistoryEntry) error

	IsUnlocked(ctx context.Context, conversationKey string) (bool, error)
	Unlock(ctx context.Context, conversationKey string, at time.Time) error

	HasInvitation(ctx context.Context, brandID, kolID domain.AccountID) (bool, error)
	SaveInvitation(ctx context.Context, invitation domain.Invitation) error
}
