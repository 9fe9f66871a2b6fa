package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
	"github.com/google/uuid"
)

const maxSaveAttempts = 5

// Ledger owns every read-modify-write of a credit account. Each operation loads the
// account, applies the daily reset and package sweep, runs its mutation and persists the
// result before reporting success. Version conflicts are retried from a fresh read.
type Ledger struct {
	accounts ports.CreditAccountRepository
	notifier ports.Notifier
	clock    ports.Clock
	reset    domain.ResetClock
	logger   *slog.Logger
}

func NewLedger(accounts ports.CreditAccountRepository, notifier ports.Notifier, clock ports.Clock, reset domain.ResetClock, logger *slog.Logger) *Ledger {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Ledger{
		accounts: accounts,
		notifier: notifier,
		clock:    clock,
		reset:    reset,
		logger:   logger,
	}
}

// mutation edits account in place and reports whether it needs saving. It runs again on
// every retry, so it must not carry state between calls other than plain assignments.
type mutation func(account *domain.CreditAccount, now time.Time) (changed bool, notifications []domain.Notification)

type applied struct {
	Account domain.CreditAccount
	Reset   bool
	Expired []domain.CreditPackage
	Now     time.Time
}

func (l *Ledger) apply(ctx context.Context, id domain.AccountID, mutate mutation) (applied, error) {
	if strings.TrimSpace(string(id)) == "" {
		return applied{}, domain.ErrMissingAccountID
	}

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		now := l.clock.Now()

		account, err := l.accounts.GetByID(ctx, id)
		created := false
		if err != nil {
			if !errors.Is(err, domain.ErrAccountNotFound) {
				return applied{}, fmt.Errorf("get credit account by id: %w", err)
			}
			account = domain.NewCreditAccount(id, now)
			created = true
		}

		result := applied{Now: now}
		dirty := created
		var notifications []domain.Notification

		if l.reset.IsPastResetBoundary(account.LastReset, now) {
			account.Reset(now)
			result.Reset = true
			dirty = true
		}

		result.Expired = account.RemoveExpiredPackages(now)
		for _, pkg := range result.Expired {
			notifications = append(notifications, domain.PackageExpiredNotification(account.ID, pkg))
			dirty = true
		}
		for i := range account.Packages {
			if account.Packages[i].ExpiringSoon(now) {
				account.Packages[i].ExpiryWarned = true
				notifications = append(notifications, domain.PackageExpiringNotification(account.ID, account.Packages[i], now))
				dirty = true
			}
		}

		if mutate != nil {
			changed, more := mutate(&account, now)
			dirty = dirty || changed
			notifications = append(notifications, more...)
		}

		if dirty {
			if err := l.accounts.Save(ctx, account); err != nil {
				if errors.Is(err, domain.ErrVersionConflict) {
					l.logger.DebugContext(ctx, "credit account changed concurrently, retrying",
						slog.String("account_id", string(id)), slog.Int("attempt", attempt))
					continue
				}
				return applied{}, fmt.Errorf("save credit account: %w", err)
			}
			account.Version++
		}

		if created {
			l.logger.InfoContext(ctx, "credit account created", slog.String("account_id", string(id)))
		}
		if result.Reset {
			l.logger.InfoContext(ctx, "free credits reset", slog.String("account_id", string(id)))
		}

		l.publish(ctx, notifications)
		result.Account = account
		return result, nil
	}

	return applied{}, fmt.Errorf("save credit account %s after %d attempts: %w", id, maxSaveAttempts, domain.ErrVersionConflict)
}

func (l *Ledger) publish(ctx context.Context, notifications []domain.Notification) {
	for _, notification := range notifications {
		l.notifier.Notify(ctx, notification)
	}
}

func (l *Ledger) exhausted(id domain.AccountID, now time.Time) []domain.Notification {
	return []domain.Notification{domain.ExhaustedNotification(id, l.reset.TimeUntilReset(now))}
}

// lowBalance warns once, on the debit that first takes free credits into the low band.
func lowBalance(freeBefore int, account domain.CreditAccount) []domain.Notification {
	wasLow := domain.CreditAccount{FreeCredits: freeBefore}.IsLowOnFreeCredits()
	if wasLow || !account.IsLowOnFreeCredits() {
		return nil
	}
	return []domain.Notification{domain.LowBalanceNotification(account.ID, account.FreeCredits)}
}

// Load returns the account, creating it with the daily allowance when absent.
func (l *Ledger) Load(ctx context.Context, id domain.AccountID) (domain.CreditAccount, error) {
	result, err := l.apply(ctx, id, nil)
	if err != nil {
		return domain.CreditAccount{}, err
	}
	return result.Account, nil
}

func (l *Ledger) Status(ctx context.Context, id domain.AccountID) (Status, error) {
	result, err := l.apply(ctx, id, nil)
	if err != nil {
		return Status{}, err
	}
	return l.statusFromAccount(result.Account, result.Now), nil
}

func (l *Ledger) StatusAll(ctx context.Context) ([]Status, error) {
	accounts, err := l.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list credit accounts: %w", err)
	}

	statuses := make([]Status, 0, len(accounts))
	for _, account := range accounts {
		status, err := l.Status(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (l *Ledger) statusFromAccount(account domain.CreditAccount, now time.Time) Status {
	return Status{
		Account:    account,
		Spendable:  account.SpendableCredits(),
		NextReset:  l.reset.NextReset(now),
		UntilReset: l.reset.TimeUntilReset(now),
		LowBalance: account.IsLowOnFreeCredits(),
	}
}

// DebitFree is the ledger's public debit of daily credits for callers outside the meter
// and contact gate. A short balance is not an error: it returns false and
// emits an exhausted notification with the time until the next reset.
func (l *Ledger) DebitFree(ctx context.Context, id domain.AccountID, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: %d", domain.ErrInvalidCreditAmount, n)
	}

	var ok bool
	_, err := l.apply(ctx, id, func(account *domain.CreditAccount, now time.Time) (bool, []domain.Notification) {
		before := account.FreeCredits
		ok = account.DebitFree(n)
		if !ok {
			return false, l.exhausted(account.ID, now)
		}
		return true, lowBalance(before, *account)
	})
	if err != nil {
		return false, err
	}

	return ok, nil
}

// DebitPremium is the ledger's public debit of premium credits. Like DebitFree it returns
// false on a short balance and emits an exhausted notification.
func (l *Ledger) DebitPremium(ctx context.Context, id domain.AccountID, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: %d", domain.ErrInvalidCreditAmount, n)
	}

	var ok bool
	_, err := l.apply(ctx, id, func(account *domain.CreditAccount, now time.Time) (bool, []domain.Notification) {
		ok = account.DebitPremium(n)
		if !ok {
			return false, l.exhausted(account.ID, now)
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	return ok, nil
}

// Spend draws n credits across packages, premium and free credits in that order.
func (l *Ledger) Spend(ctx context.Context, id domain.AccountID, n int) (domain.Debit, bool, error) {
	if n <= 0 {
		return domain.Debit{}, false, fmt.Errorf("%w: %d", domain.ErrInvalidCreditAmount, n)
	}

	var (
		debit domain.Debit
		ok    bool
	)
	_, err := l.apply(ctx, id, func(account *domain.CreditAccount, now time.Time) (bool, []domain.Notification) {
		before := account.FreeCredits
		debit, ok = account.Spend(n)
		if !ok {
			return false, l.exhausted(account.ID, now)
		}
		return true, lowBalance(before, *account)
	})
	if err != nil {
		return domain.Debit{}, false, err
	}

	return debit, ok, nil
}

func (l *Ledger) Refund(ctx context.Context, id domain.AccountID, debit domain.Debit) error {
	if debit.Total() == 0 {
		return nil
	}

	_, err := l.apply(ctx, id, func(account *domain.CreditAccount, _ time.Time) (bool, []domain.Notification) {
		account.Refund(debit)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}

	l.logger.InfoContext(ctx, "credits refunded", slog.String("account_id", string(id)), slog.Int("credits", debit.Total()))
	return nil
}

// MaybeReset restores the daily allowance and clears the general-question counter when a
// reset boundary has passed since the last reset. It reports whether a reset happened.
func (l *Ledger) MaybeReset(ctx context.Context, id domain.AccountID) (bool, error) {
	result, err := l.apply(ctx, id, nil)
	if err != nil {
		return false, err
	}
	return result.Reset, nil
}

// SweepExpiredPackages removes the account's expired packages and returns them.
func (l *Ledger) SweepExpiredPackages(ctx context.Context, id domain.AccountID) ([]domain.CreditPackage, error) {
	result, err := l.apply(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return result.Expired, nil
}

// SweepProgress is called after each account is swept.
type SweepProgress func(done, total int)

// SweepAll sweeps every stored account. A failure on one account does not stop the
// others; all failures are returned joined.
func (l *Ledger) SweepAll(ctx context.Context) (SweepReport, error) {
	return l.SweepAllWithProgress(ctx, nil)
}

func (l *Ledger) SweepAllWithProgress(ctx context.Context, progress SweepProgress) (SweepReport, error) {
	accounts, err := l.accounts.List(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list credit accounts: %w", err)
	}

	report := SweepReport{Accounts: len(accounts)}
	var errs error
	for i, account := range accounts {
		if err := ctx.Err(); err != nil {
			return report, errors.Join(errs, err)
		}
		expired, err := l.SweepExpiredPackages(ctx, account.ID)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("sweep account %s: %w", account.ID, err))
		} else {
			report.ExpiredPackages += len(expired)
			for _, pkg := range expired {
				report.ForfeitedCredits += pkg.CreditsRemaining
			}
		}
		if progress != nil {
			progress(i+1, len(accounts))
		}
	}

	return report, errs
}

func (l *Ledger) AllocatePremium(ctx context.Context, id domain.AccountID, credits int) (domain.CreditAccount, error) {
	if credits <= 0 {
		return domain.CreditAccount{}, fmt.Errorf("%w: %d", domain.ErrInvalidCreditAmount, credits)
	}

	result, err := l.apply(ctx, id, func(account *domain.CreditAccount, _ time.Time) (bool, []domain.Notification) {
		account.PremiumCredits += credits
		return true, nil
	})
	if err != nil {
		return domain.CreditAccount{}, fmt.Errorf("allocate premium credits: %w", err)
	}

	l.logger.InfoContext(ctx, "premium credits allocated", slog.String("account_id", string(id)), slog.Int("credits", credits))
	return result.Account, nil
}

// PurchasePackage adds a package of credits that expires after the package lifetime.
func (l *Ledger) PurchasePackage(ctx context.Context, id domain.AccountID, credits int) (domain.CreditPackage, error) {
	if credits <= 0 {
		return domain.CreditPackage{}, fmt.Errorf("%w: %d", domain.ErrInvalidCreditAmount, credits)
	}

	packageID := uuid.NewString()
	var pkg domain.CreditPackage
	_, err := l.apply(ctx, id, func(account *domain.CreditAccount, now time.Time) (bool, []domain.Notification) {
		pkg = domain.NewCreditPackage(packageID, credits, now)
		account.Packages = append(account.Packages[:len(account.Packages):len(account.Packages)], pkg)
		return true, nil
	})
	if err != nil {
		return domain.CreditPackage{}, fmt.Errorf("purchase credit package: %w", err)
	}

	l.logger.InfoContext(ctx, "credit package purchased",
		slog.String("account_id", string(id)),
		slog.String("package_id", pkg.ID),
		slog.Int("credits", credits),
		slog.Time("expires_at", pkg.ExpiresAt))
	return pkg, nil
}
