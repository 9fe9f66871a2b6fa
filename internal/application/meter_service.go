package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
)

// Meter charges chat and search queries. Creator-specific queries cost one free credit;
// general questions are counted and every third one costs a credit.
type Meter struct {
	ledger *Ledger
}

func NewMeter(ledger *Ledger) *Meter {
	return &Meter{ledger: ledger}
}

func (m *Meter) EstimateCost(text string) float64 {
	return domain.EstimateCost(text)
}

// TryConsume classifies the query before touching the account. When the credit cannot be
// taken nothing is persisted, including the general-question increment.
func (m *Meter) TryConsume(ctx context.Context, cmd ConsumeCommand) (ConsumeResult, error) {
	class := domain.ClassifyQuery(cmd.Text)
	result := ConsumeResult{
		KOLSpecific:   class.KOLSpecific,
		EstimatedCost: domain.EstimateCost(cmd.Text),
	}

	if cmd.Actor.Paid() {
		result.Allowed = true
		result.Unlimited = true
		return result, nil
	}

	applied, err := m.ledger.apply(ctx, cmd.Actor.AccountID, func(account *domain.CreditAccount, now time.Time) (bool, []domain.Notification) {
		result.Allowed, result.Charged = false, 0
		result.UntilReset = m.ledger.reset.TimeUntilReset(now)

		if !class.KOLSpecific && account.GeneralQuestions+1 < domain.GeneralQuestionsPerCredit {
			account.GeneralQuestions++
			result.Allowed = true
			return true, nil
		}

		before := account.FreeCredits
		if !account.DebitFree(1) {
			return false, m.ledger.exhausted(account.ID, now)
		}
		if !class.KOLSpecific {
			account.GeneralQuestions = 0
		}
		result.Allowed = true
		result.Charged = 1
		return true, lowBalance(before, *account)
	})
	if err != nil {
		return ConsumeResult{}, err
	}

	result.Account = applied.Account
	m.ledger.logger.DebugContext(ctx, "query metered",
		slog.String("account_id", string(cmd.Actor.AccountID)),
		slog.Bool("kol_specific", result.KOLSpecific),
		slog.Bool("allowed", result.Allowed),
		slog.Int("charged", result.Charged))
	return result, nil
}
