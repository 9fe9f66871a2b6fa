package domain

import (
	"slices"
	"sort"
	"time"
)

const (
	DailyCredits              = 5
	ResetHour                 = 7
	CreditPackageExpiryDays   = 60
	GeneralQuestionsPerCredit = 3

	lowBalancePercent = 20
)

type AccountID string

type CreditAccount struct {
	ID               AccountID
	FreeCredits      int
	PremiumCredits   int
	GeneralQuestions int
	LastReset        time.Time
	Packages         []CreditPackage
	// Version is the optimistic-concurrency token; a repository only accepts a Save whose
	// Version matches the stored one.
	Version int64
}

type CreditPackage struct {
	ID               string
	PurchasedAt      time.Time
	ExpiresAt        time.Time
	CreditsTotal     int
	CreditsRemaining int
	ExpiryWarned     bool
}

// Debit records which pools a spend was drawn from so it can be refunded.
type Debit struct {
	Packages map[string]int
	Premium  int
	Free     int
}

func (d Debit) Total() int {
	total := d.Premium + d.Free
	for _, n := range d.Packages {
		total += n
	}
	return total
}

func NewCreditAccount(id AccountID, now time.Time) CreditAccount {
	return CreditAccount{
		ID:          id,
		FreeCredits: DailyCredits,
		LastReset:   now,
	}
}

func NewCreditPackage(id string, credits int, purchasedAt time.Time) CreditPackage {
	return CreditPackage{
		ID:               id,
		PurchasedAt:      purchasedAt,
		ExpiresAt:        purchasedAt.AddDate(0, 0, CreditPackageExpiryDays),
		CreditsTotal:     credits,
		CreditsRemaining: credits,
	}
}

func (p CreditPackage) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// LowBalanceThreshold is 20% of the daily allowance, rounded up.
func LowBalanceThreshold() int {
	return (DailyCredits*lowBalancePercent + 99) / 100
}

func (a *CreditAccount) DebitFree(n int) bool {
	if n < 0 || a.FreeCredits < n {
		return false
	}
	a.FreeCredits -= n
	return true
}

func (a *CreditAccount) DebitPremium(n int) bool {
	if n < 0 || a.PremiumCredits < n {
		return false
	}
	a.PremiumCredits -= n
	return true
}

func (a CreditAccount) PackageCredits() int {
	total := 0
	for _, p := range a.Packages {
		total += p.CreditsRemaining
	}
	return total
}

func (a CreditAccount) SpendableCredits() int {
	return a.PackageCredits() + a.PremiumCredits + a.FreeCredits
}

// Spend draws n credits from packages (soonest expiry first), then premium, then free
// credits. Nothing is debited unless the combined balance covers n.
func (a *CreditAccount) Spend(n int) (Debit, bool) {
	if n < 0 || a.SpendableCredits() < n {
		return Debit{}, false
	}

	debit := Debit{}
	remaining := n
	a.Packages = slices.Clone(a.Packages)

	order := make([]int, len(a.Packages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return a.Packages[order[i]].ExpiresAt.Before(a.Packages[order[j]].ExpiresAt)
	})

	for _, idx := range order {
		if remaining == 0 {
			break
		}
		pkg := &a.Packages[idx]
		take := min(pkg.CreditsRemaining, remaining)
		if take == 0 {
			continue
		}
		pkg.CreditsRemaining -= take
		remaining -= take
		if debit.Packages == nil {
			debit.Packages = map[string]int{}
		}
		debit.Packages[pkg.ID] += take
	}

	take := min(a.PremiumCredits, remaining)
	a.PremiumCredits -= take
	debit.Premium = take
	remaining -= take

	a.FreeCredits -= remaining
	debit.Free = remaining

	return debit, true
}

// Refund returns a debit to the pools it came from. Credits drawn from a package that has
// since been swept are forfeited with it.
func (a *CreditAccount) Refund(d Debit) {
	a.Packages = slices.Clone(a.Packages)
	for id, n := range d.Packages {
		for i := range a.Packages {
			if a.Packages[i].ID == id {
				a.Packages[i].CreditsRemaining += n
				break
			}
		}
	}
	a.PremiumCredits += d.Premium
	a.FreeCredits += d.Free
}

func (a *CreditAccount) Reset(now time.Time) {
	a.FreeCredits = DailyCredits
	a.GeneralQuestions = 0
	a.LastReset = now
}

// RemoveExpiredPackages drops every package whose expiry is before now and returns them.
func (a *CreditAccount) RemoveExpiredPackages(now time.Time) []CreditPackage {
	var removed []CreditPackage
	kept := make([]CreditPackage, 0, len(a.Packages))
	for _, p := range a.Packages {
		if p.Expired(now) {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		kept = nil
	}
	a.Packages = kept
	return removed
}

func (a CreditAccount) IsLowOnFreeCredits() bool {
	return a.FreeCredits > 0 && a.FreeCredits <= LowBalanceThreshold()
}
