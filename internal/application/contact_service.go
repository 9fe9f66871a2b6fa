package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
)

const unlockCost = 1

type contactRoute int

const (
	routeDenied contactRoute = iota
	routeAlreadyUnlocked
	routeInvited
	routePaid
	routeMonthlyQuota
)

// ContactGate decides whether an actor may open a conversation and performs the one-way
// Locked to Unlocked transition together with its debit or history entry.
type ContactGate struct {
	ledger   *Ledger
	contacts ports.ContactRepository

	locksMu sync.Mutex
	locks   map[domain.AccountID]*sync.Mutex
}

func NewContactGate(ledger *Ledger, contacts ports.ContactRepository) *ContactGate {
	return &ContactGate{
		ledger:   ledger,
		contacts: contacts,
		locks:    make(map[domain.AccountID]*sync.Mutex),
	}
}

func (g *ContactGate) lockFor(id domain.AccountID) *sync.Mutex {
	g.locksMu.Lock()
	defer g.locksMu.Unlock()

	lock, ok := g.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[id] = lock
	}
	return lock
}

func (g *ContactGate) CanMessage(ctx context.Context, cmd MessageCommand) (domain.Decision, error) {
	decision, _, err := g.evaluate(ctx, cmd)
	return decision, err
}

func (g *ContactGate) evaluate(ctx context.Context, cmd MessageCommand) (domain.Decision, contactRoute, error) {
	actor := cmd.Actor
	if actor.Anonymous() {
		return domain.DenyNoAuth(), routeDenied, nil
	}
	if strings.TrimSpace(string(actor.AccountID)) == "" || strings.TrimSpace(string(cmd.TargetID)) == "" {
		return domain.Decision{}, routeDenied, domain.ErrMissingAccountID
	}

	unlocked, err := g.contacts.IsUnlocked(ctx, domain.ConversationKey(actor.AccountID, cmd.TargetID))
	if err != nil {
		return domain.Decision{}, routeDenied, fmt.Errorf("check conversation unlock: %w", err)
	}
	if unlocked {
		return domain.Allow(), routeAlreadyUnlocked, nil
	}

	switch {
	case actor.Role == domain.RoleKOL && cmd.TargetType == domain.ProfileTypeBrand:
		invited, err := g.contacts.HasInvitation(ctx, cmd.TargetID, actor.AccountID)
		if err != nil {
			return domain.Decision{}, routeDenied, fmt.Errorf("check invitation: %w", err)
		}
		if invited {
			return domain.Allow(), routeInvited, nil
		}

		account, err := g.ledger.Load(ctx, actor.AccountID)
		if err != nil {
			return domain.Decision{}, routeDenied, fmt.Errorf("load credit account: %w", err)
		}
		if account.SpendableCredits() < unlockCost {
			return domain.DenyNoCredits("You need 1 credit to message this brand", unlockCost), routeDenied, nil
		}
		return domain.AllowWithCost(unlockCost), routePaid, nil

	case actor.Role == domain.RoleBrand && cmd.TargetType == domain.ProfileTypeKOL:
		history, err := g.contacts.ListHistory(ctx, actor.AccountID)
		if err != nil {
			return domain.Decision{}, routeDenied, fmt.Errorf("list contact history: %w", err)
		}
		limit := domain.MonthlyContactLimit(actor)
		used := domain.CountMonthlyContacts(history, g.ledger.reset.MonthKey(g.ledger.clock.Now()))
		if used >= limit {
			return domain.DenyMonthlyLimit(limit, used), routeDenied, nil
		}
		return domain.Allow(), routeMonthlyQuota, nil

	default:
		return domain.DenyRoleForbidden("Your role cannot message this profile type"), routeDenied, nil
	}
}

// RecordMessage unlocks the conversation if the actor may message the target. The unlock
// and its debit (or history entry) either both persist or neither does: when the unlock
// write fails the debit is refunded or the entry removed.
func (g *ContactGate) RecordMessage(ctx context.Context, cmd MessageCommand) (MessageResult, error) {
	lock := g.lockFor(cmd.Actor.AccountID)
	lock.Lock()
	defer lock.Unlock()

	decision, route, err := g.evaluate(ctx, cmd)
	if err != nil {
		return MessageResult{}, err
	}

	key := domain.ConversationKey(cmd.Actor.AccountID, cmd.TargetID)
	result := MessageResult{Decision: decision, ConversationKey: key}

	switch route {
	case routeDenied, routeAlreadyUnlocked:
		return result, nil

	case routeInvited:
		if err := g.unlock(ctx, key); err != nil {
			return MessageResult{}, err
		}

	case routePaid:
		debit, ok, err := g.ledger.Spend(ctx, cmd.Actor.AccountID, unlockCost)
		if err != nil {
			return MessageResult{}, fmt.Errorf("debit unlock credit: %w", err)
		}
		if !ok {
			result.Decision = domain.DenyNoCredits("You need 1 credit to message this brand", unlockCost)
			return result, nil
		}
		if err := g.unlock(ctx, key); err != nil {
			if refundErr := g.ledger.Refund(ctx, cmd.Actor.AccountID, debit); refundErr != nil {
				return MessageResult{}, fmt.Errorf("unlock conversation and refund credit: %w", errors.Join(err, refundErr))
			}
			return MessageResult{}, err
		}
		result.Charged = debit.Total()

	case routeMonthlyQuota:
		now := g.ledger.clock.Now()
		entry := domain.ContactHistoryEntry{
			ActorID:     cmd.Actor.AccountID,
			ProfileID:   cmd.TargetID,
			ProfileType: cmd.TargetType,
			Timestamp:   now,
			MonthKey:    g.ledger.reset.MonthKey(now),
		}
		if err := g.contacts.AppendHistory(ctx, entry); err != nil {
			return MessageResult{}, fmt.Errorf("append contact history: %w", err)
		}
		if err := g.unlock(ctx, key); err != nil {
			if removeErr := g.contacts.RemoveHistory(ctx, entry); removeErr != nil {
				return MessageResult{}, fmt.Errorf("unlock conversation and remove contact history: %w", errors.Join(err, removeErr))
			}
			return MessageResult{}, err
		}
	}

	result.Unlocked = true
	g.ledger.notifier.Notify(ctx, domain.UnlockedNotification(cmd.Actor.AccountID, cmd.TargetID, result.Charged))
	g.ledger.logger.InfoContext(ctx, "conversation unlocked",
		slog.String("account_id", string(cmd.Actor.AccountID)),
		slog.String("target_id", string(cmd.TargetID)),
		slog.Int("charged", result.Charged))
	return result, nil
}

func (g *ContactGate) unlock(ctx context.Context, key string) error {
	if err := g.contacts.Unlock(ctx, key, g.ledger.clock.Now()); err != nil {
		return fmt.Errorf("unlock conversation: %w", err)
	}
	return nil
}

// RecordInvitation stores that a brand invited a creator, which lets the creator message
// the brand without paying.
func (g *ContactGate) RecordInvitation(ctx context.Context, cmd InviteCommand) (domain.Decision, error) {
	if !cmd.Brand.Anonymous() && strings.TrimSpace(string(cmd.Brand.AccountID)) == "" {
		return domain.Decision{}, domain.ErrMissingAccountID
	}
	decision := domain.CanPerform(cmd.Brand, domain.ActionInviteToCampaign, 0)
	if !decision.Allowed() {
		return decision, nil
	}
	if strings.TrimSpace(string(cmd.KOLID)) == "" {
		return domain.Decision{}, domain.ErrMissingAccountID
	}

	invitation := domain.Invitation{BrandID: cmd.Brand.AccountID, KOLID: cmd.KOLID, At: g.ledger.clock.Now()}
	if err := g.contacts.SaveInvitation(ctx, invitation); err != nil {
		return domain.Decision{}, fmt.Errorf("save invitation: %w", err)
	}

	return decision, nil
}
