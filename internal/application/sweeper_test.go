package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRemovesExpiredPackagesUntilCancelled(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 5, LastReset: testNow, Packages: []domain.CreditPackage{
		{ID: "pkg-1", ExpiresAt: testNow.AddDate(0, 0, 1), CreditsTotal: 5, CreditsRemaining: 5},
	}})
	clock := &testClock{now: testNow}
	notifier := &recordingNotifier{}
	sweeper := NewSweeper(newTestLedger(repo, clock, notifier), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()

	clock.advance(48 * time.Hour)
	require.Eventually(t, func() bool {
		account, _ := repo.get("acc-1")
		return len(account.Packages) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}

	assert.Contains(t, notifier.kinds(), domain.NotificationPackageExpired)
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSweepInterval, NewSweeper(nil, 0).interval)
}
