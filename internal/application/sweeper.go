package application

import (
	"context"
	"log/slog"
	"time"
)

const DefaultSweepInterval = 24 * time.Hour

// Sweeper removes expired credit packages across all accounts on a fixed interval.
type Sweeper struct {
	ledger   *Ledger
	interval time.Duration
}

func NewSweeper(ledger *Ledger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{ledger: ledger, interval: interval}
}

// Run sweeps once immediately, then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.ledger.logger.DebugContext(ctx, "package sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	report, err := s.ledger.SweepAll(ctx)
	if err != nil && ctx.Err() == nil {
		s.ledger.logger.ErrorContext(ctx, "sweep expired packages", slog.Any("error", err))
	}
	if report.ExpiredPackages > 0 {
		s.ledger.logger.InfoContext(ctx, "expired packages swept",
			slog.Int("accounts", report.Accounts),
			slog.Int("packages", report.ExpiredPackages),
			slog.Int("forfeited_credits", report.ForfeitedCredits))
	}
}
