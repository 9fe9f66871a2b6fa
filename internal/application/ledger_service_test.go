package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestLedger(repo *inMemoryCreditAccountRepo, clock *testClock, notifier *recordingNotifier) *Ledger {
	return NewLedger(repo, notifier, clock, domain.NewResetClock(time.UTC), nil)
}

func TestLedgerLoadCreatesAccountWithDailyCredits(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	ledger := newTestLedger(repo, &testClock{now: testNow}, &recordingNotifier{})

	account, err := ledger.Load(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.DailyCredits, account.FreeCredits)
	assert.Equal(t, 0, account.GeneralQuestions)
	assert.Equal(t, testNow, account.LastReset)
	assert.Equal(t, int64(1), account.Version)

	stored, ok := repo.get("acc-1")
	require.True(t, ok)
	assert.Equal(t, account, stored)
}

func TestLedgerLoadRequiresAccountID(t *testing.T) {
	t.Parallel()

	ledger := newTestLedger(newInMemoryCreditAccountRepo(), &testClock{now: testNow}, &recordingNotifier{})

	_, err := ledger.Load(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrMissingAccountID)
}

func TestLedgerMaybeResetIsIdempotentBeforeBoundary(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 2, GeneralQuestions: 1, LastReset: testNow.Add(-time.Hour)})
	clock := &testClock{now: testNow}
	ledger := newTestLedger(repo, clock, &recordingNotifier{})

	for i := 0; i < 3; i++ {
		reset, err := ledger.MaybeReset(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.False(t, reset)
		clock.advance(time.Hour)
	}

	stored, _ := repo.get("acc-1")
	assert.Equal(t, 2, stored.FreeCredits)
	assert.Equal(t, 1, stored.GeneralQuestions)
	assert.Equal(t, testNow.Add(-time.Hour), stored.LastReset)
	assert.Equal(t, 0, repo.saveCount())
}

func TestLedgerMaybeResetAfterCrossingBoundary(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 0, GeneralQuestions: 2, LastReset: testNow})
	clock := &testClock{now: testNow.AddDate(0, 0, 1)}
	ledger := newTestLedger(repo, clock, &recordingNotifier{})

	reset, err := ledger.MaybeReset(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, reset)

	stored, _ := repo.get("acc-1")
	assert.Equal(t, domain.DailyCredits, stored.FreeCredits)
	assert.Equal(t, 0, stored.GeneralQuestions)
	assert.Equal(t, clock.Now(), stored.LastReset)
}

func TestLedgerDebitFreeEmitsExhaustedWithTimeUntilReset(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 0, LastReset: testNow})
	notifier := &recordingNotifier{}
	ledger := newTestLedger(repo, &testClock{now: testNow}, notifier)

	ok, err := ledger.DebitFree(context.Background(), "acc-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, notifier.all(), 1)
	got := notifier.all()[0]
	assert.Equal(t, domain.NotificationExhausted, got.Kind)
	assert.Contains(t, got.Message, "19h")
	assert.Equal(t, domain.IntentUpgrade, got.ActionHint)
	assert.Equal(t, 0, repo.saveCount())
}

func TestLedgerDebitFreeWarnsLowBalanceOnce(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 3, LastReset: testNow})
	notifier := &recordingNotifier{}
	ledger := newTestLedger(repo, &testClock{now: testNow}, notifier)

	for i := 0; i < 2; i++ {
		ok, err := ledger.DebitFree(context.Background(), "acc-1", 1)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, []domain.NotificationKind{domain.NotificationLowBalance}, notifier.kinds())
	assert.Contains(t, notifier.all()[0].Message, "1 free credit left")
}

func TestLedgerDebitPremium(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 5, PremiumCredits: 2, LastReset: testNow})
	notifier := &recordingNotifier{}
	ledger := newTestLedger(repo, &testClock{now: testNow}, notifier)

	ok, err := ledger.DebitPremium(context.Background(), "acc-1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.DebitPremium(context.Background(), "acc-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, _ := repo.get("acc-1")
	assert.Equal(t, 0, stored.PremiumCredits)
	assert.Equal(t, 5, stored.FreeCredits)
	assert.Equal(t, []domain.NotificationKind{domain.NotificationExhausted}, notifier.kinds())
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	t.Parallel()

	ledger := newTestLedger(newInMemoryCreditAccountRepo(), &testClock{now: testNow}, &recordingNotifier{})
	ctx := context.Background()

	_, err := ledger.DebitFree(ctx, "acc-1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidCreditAmount)
	_, _, err = ledger.Spend(ctx, "acc-1", -1)
	require.ErrorIs(t, err, domain.ErrInvalidCreditAmount)
	_, err = ledger.PurchasePackage(ctx, "acc-1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidCreditAmount)
	_, err = ledger.AllocatePremium(ctx, "acc-1", 0)
	require.ErrorIs(t, err, domain.ErrInvalidCreditAmount)
}

func TestLedgerSpendDrawsPackagesBeforePremiumAndFree(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	clock := &testClock{now: testNow}
	ledger := newTestLedger(repo, clock, &recordingNotifier{})
	ctx := context.Background()

	_, err := ledger.AllocatePremium(ctx, "acc-1", 1)
	require.NoError(t, err)
	pkg, err := ledger.PurchasePackage(ctx, "acc-1", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, pkg.ID)
	assert.Equal(t, testNow.AddDate(0, 0, domain.CreditPackageExpiryDays), pkg.ExpiresAt)

	debit, ok, err := ledger.Spend(ctx, "acc-1", 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{pkg.ID: 2}, debit.Packages)
	assert.Equal(t, 1, debit.Premium)
	assert.Equal(t, 1, debit.Free)

	require.NoError(t, ledger.Refund(ctx, "acc-1", debit))

	stored, _ := repo.get("acc-1")
	assert.Equal(t, domain.DailyCredits, stored.FreeCredits)
	assert.Equal(t, 1, stored.PremiumCredits)
	assert.Equal(t, 2, stored.PackageCredits())
}

func TestLedgerSweepRemovesExpiredPackageAndNotifiesOnce(t *testing.T) {
	t.Parallel()

	expired := domain.CreditPackage{ID: "old", ExpiresAt: testNow.Add(-time.Minute), CreditsTotal: 50, CreditsRemaining: 40}
	current := domain.CreditPackage{ID: "new", ExpiresAt: testNow.AddDate(0, 0, 30), CreditsTotal: 10, CreditsRemaining: 10}

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 5, LastReset: testNow, Packages: []domain.CreditPackage{expired, current}})

	notifier := mocks.NewMockNotifier(t)
	notifier.EXPECT().Notify(mockAnyContext(), domain.PackageExpiredNotification("acc-1", expired)).Return().Once()

	ledger := NewLedger(repo, notifier, &testClock{now: testNow}, domain.NewResetClock(time.UTC), nil)

	removed, err := ledger.SweepExpiredPackages(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CreditPackage{expired}, removed)
	assert.Contains(t, domain.PackageExpiredNotification("acc-1", expired).Message, "40 unused credits forfeited")

	removed, err = ledger.SweepExpiredPackages(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Empty(t, removed)

	stored, _ := repo.get("acc-1")
	assert.Equal(t, []domain.CreditPackage{current}, stored.Packages)
}

func TestLedgerWarnsAboutExpiringPackageOnce(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 5, LastReset: testNow, Packages: []domain.CreditPackage{
		{ID: "soon", ExpiresAt: testNow.Add(72 * time.Hour), CreditsTotal: 10, CreditsRemaining: 6},
	}})
	notifier := &recordingNotifier{}
	ledger := newTestLedger(repo, &testClock{now: testNow}, notifier)

	for i := 0; i < 2; i++ {
		_, err := ledger.Load(context.Background(), "acc-1")
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.NotificationKind{domain.NotificationPackageExpiring}, notifier.kinds())
	assert.Contains(t, notifier.all()[0].Message, "6 package credits expire in 72h")
	stored, _ := repo.get("acc-1")
	assert.True(t, stored.Packages[0].ExpiryWarned)
}

func TestLedgerSweepAllReportsAcrossAccounts(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	for _, id := range []domain.AccountID{"acc-1", "acc-2"} {
		repo.put(domain.CreditAccount{ID: id, FreeCredits: 5, LastReset: testNow, Packages: []domain.CreditPackage{
			{ID: string(id) + "-pkg", ExpiresAt: testNow.Add(-time.Hour), CreditsRemaining: 7},
		}})
	}
	repo.put(domain.CreditAccount{ID: "acc-3", FreeCredits: 5, LastReset: testNow})
	ledger := newTestLedger(repo, &testClock{now: testNow}, &recordingNotifier{})

	var progress [][2]int
	report, err := ledger.SweepAllWithProgress(context.Background(), func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Accounts: 3, ExpiredPackages: 2, ForfeitedCredits: 14}, report)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestLedgerRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockCreditAccountRepository(t)
	ledger := NewLedger(repo, nil, &testClock{now: testNow}, domain.NewResetClock(time.UTC), nil)

	stale := domain.CreditAccount{ID: "acc-1", FreeCredits: 3, LastReset: testNow, Version: 4}
	fresh := domain.CreditAccount{ID: "acc-1", FreeCredits: 2, LastReset: testNow, Version: 5}

	staleDebited := stale
	staleDebited.FreeCredits = 2
	freshDebited := fresh
	freshDebited.FreeCredits = 1

	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("acc-1")).Return(stale, nil).Once()
	repo.EXPECT().Save(mockAnyContext(), staleDebited).Return(domain.ErrVersionConflict).Once()
	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("acc-1")).Return(fresh, nil).Once()
	repo.EXPECT().Save(mockAnyContext(), freshDebited).Return(nil).Once()

	ok, err := ledger.DebitFree(context.Background(), "acc-1", 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedgerGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockCreditAccountRepository(t)
	ledger := NewLedger(repo, nil, &testClock{now: testNow}, domain.NewResetClock(time.UTC), nil)

	account := domain.CreditAccount{ID: "acc-1", FreeCredits: 3, LastReset: testNow}
	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("acc-1")).Return(account, nil).Times(maxSaveAttempts)
	repo.EXPECT().Save(mockAnyContext(), mock.Anything).Return(domain.ErrVersionConflict).Times(maxSaveAttempts)

	_, err := ledger.DebitFree(context.Background(), "acc-1", 1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestLedgerDoesNotReportDebitWhenSaveFails(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockCreditAccountRepository(t)
	notifier := mocks.NewMockNotifier(t)
	ledger := NewLedger(repo, notifier, &testClock{now: testNow}, domain.NewResetClock(time.UTC), nil)

	saveErr := errors.New("disk full")
	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("acc-1")).
		Return(domain.CreditAccount{ID: "acc-1", FreeCredits: 2, LastReset: testNow}, nil)
	repo.EXPECT().Save(mockAnyContext(), mock.Anything).Return(saveErr)

	ok, err := ledger.DebitFree(context.Background(), "acc-1", 1)
	require.ErrorIs(t, err, saveErr)
	assert.False(t, ok)
}

func TestLedgerReturnsRepositoryReadError(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockCreditAccountRepository(t)
	ledger := NewLedger(repo, nil, nil, domain.NewResetClock(time.UTC), nil)

	readErr := errors.New("read failed")
	repo.EXPECT().GetByID(mockAnyContext(), domain.AccountID("acc-1")).Return(domain.CreditAccount{}, readErr)

	_, err := ledger.Status(context.Background(), "acc-1")
	require.ErrorIs(t, err, readErr)
}

func TestLedgerStatus(t *testing.T) {
	t.Parallel()

	repo := newInMemoryCreditAccountRepo()
	repo.put(domain.CreditAccount{ID: "acc-1", FreeCredits: 1, PremiumCredits: 3, LastReset: testNow})
	ledger := newTestLedger(repo, &testClock{now: testNow}, &recordingNotifier{})

	status, err := ledger.Status(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, 4, status.Spendable)
	assert.True(t, status.LowBalance)
	assert.Equal(t, time.Date(2026, 2, 15, 7, 0, 0, 0, time.UTC), status.NextReset)
	assert.Equal(t, 19*time.Hour, status.UntilReset)

	statuses, err := ledger.StatusAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, status, statuses[0])
}

func mockAnyContext() interface{} {
	return mock.Anything
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.notifications...)
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	var kinds []domain.NotificationKind
	for _, notification := range n.all() {
		kinds = append(kinds, notification.Kind)
	}
	return kinds
}

type inMemoryCreditAccountRepo struct {
	mu       sync.Mutex
	accounts map[domain.AccountID]domain.CreditAccount
	saves    int
}

func newInMemoryCreditAccountRepo() *inMemoryCreditAccountRepo {
	return &inMemoryCreditAccountRepo{accounts: map[domain.AccountID]domain.CreditAccount{}}
}

// put seeds an account without counting as a save.
func (r *inMemoryCreditAccountRepo) put(account domain.CreditAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
}

func (r *inMemoryCreditAccountRepo) get(id domain.AccountID) (domain.CreditAccount, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	return account, ok
}

func (r *inMemoryCreditAccountRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *inMemoryCreditAccountRepo) GetByID(_ context.Context, id domain.AccountID) (domain.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.CreditAccount{}, domain.ErrAccountNotFound
	}
	account.Packages = append([]domain.CreditPackage(nil), account.Packages...)
	return account, nil
}

func (r *inMemoryCreditAccountRepo) List(_ context.Context) ([]domain.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]domain.CreditAccount, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *inMemoryCreditAccountRepo) Save(_ context.Context, account domain.CreditAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.accounts[account.ID]; ok && stored.Version != account.Version {
		return domain.ErrVersionConflict
	}
	if _, ok := r.accounts[account.ID]; !ok && account.Version != 0 {
		return domain.ErrVersionConflict
	}

	account.Version++
	account.Packages = append([]domain.CreditPackage(nil), account.Packages...)
	r.accounts[account.ID] = account
	r.saves++
	return nil
}
