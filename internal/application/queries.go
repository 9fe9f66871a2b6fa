package application

import (
	"time"

	"github.com/bnema/kol-credits/internal/domain"
)

type Status struct {
	Account    domain.CreditAccount
	Spendable  int
	NextReset  time.Time
	UntilReset time.Duration
	LowBalance bool
}

type SweepReport struct {
	Accounts         int
	ExpiredPackages  int
	ForfeitedCredits int
}

type ConsumeResult struct {
	Allowed     bool
	KOLSpecific bool
	// Unlimited is set for paid plans, which are never metered.
	Unlimited     bool
	Charged       int
	EstimatedCost float64
	UntilReset    time.Duration
	Account       domain.CreditAccount
}

type MessageResult struct {
	Decision        domain.Decision
	ConversationKey string
	// Unlocked is true when this call performed the unlock.
	Unlocked bool
	Charged  int
}
