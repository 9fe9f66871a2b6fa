package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetClockTimeUntilReset(t *testing.T) {
	clock := NewResetClock(time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "before reset hour", now: time.Date(2026, 2, 14, 6, 0, 0, 0, time.UTC), want: time.Hour},
		{name: "exactly at reset hour", now: time.Date(2026, 2, 14, 7, 0, 0, 0, time.UTC), want: 24 * time.Hour},
		{name: "evening", now: time.Date(2026, 2, 14, 20, 30, 0, 0, time.UTC), want: 10*time.Hour + 30*time.Minute},
		{name: "month rollover", now: time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC), want: 8 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.TimeUntilReset(tt.now))
		})
	}
}

func TestResetClockIsPastResetBoundary(t *testing.T) {
	clock := NewResetClock(time.UTC)

	tests := []struct {
		name      string
		lastReset time.Time
		now       time.Time
		want      bool
	}{
		{
			name:      "one day later after reset hour",
			lastReset: time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "next day before reset hour",
			lastReset: time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 15, 6, 59, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "same day crossing reset hour",
			lastReset: time.Date(2026, 2, 14, 6, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 14, 7, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "same day early morning to half past reset hour",
			lastReset: time.Date(2026, 2, 14, 6, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 14, 7, 30, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "same day both before reset hour",
			lastReset: time.Date(2026, 2, 14, 1, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 14, 6, 59, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "same day both after reset hour",
			lastReset: time.Date(2026, 2, 14, 7, 30, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 14, 23, 59, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "several boundaries crossed",
			lastReset: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "zero last reset",
			lastReset: time.Time{},
			now:       time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.IsPastResetBoundary(tt.lastReset, tt.now))
		})
	}
}

func TestResetClockAcrossDSTStart(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	clock := NewResetClock(loc)

	lastReset := time.Date(2026, 3, 7, 7, 0, 0, 0, loc)
	now := time.Date(2026, 3, 8, 7, 0, 0, 0, loc)

	assert.True(t, clock.IsPastResetBoundary(lastReset, now))
	assert.Equal(t, 23*time.Hour, now.Sub(lastReset))
	assert.Equal(t, 22*time.Hour, clock.TimeUntilReset(time.Date(2026, 3, 7, 8, 0, 0, 0, loc)))
}

func TestFormatWait(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "now"},
		{in: 20 * time.Second, want: "1m"},
		{in: 45 * time.Minute, want: "45m"},
		{in: 3 * time.Hour, want: "3h"},
		{in: 3*time.Hour + 12*time.Minute, want: "3h 12m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWait(tt.in), tt.in.String())
	}
}

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "find a gaming influencer", want: true},
		{text: "Which INFLUENCER fits my brand?", want: true},
		{text: "best TikTok creators for skincare", want: true},
		{text: "how does this work", want: false},
		{text: "what are your opening hours", want: false},
		{text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyQuery(tt.text).KOLSpecific)
		})
	}
}

func TestEstimateCost(t *testing.T) {
	assert.Equal(t, 1.0, EstimateCost("campaign ideas"))
	assert.InDelta(t, 1.0/3, EstimateCost("hello there"), 1e-9)
}

func TestCreditAccountDebits(t *testing.T) {
	account := NewCreditAccount("acc-1", time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC))
	account.PremiumCredits = 2

	assert.True(t, account.DebitFree(5))
	assert.False(t, account.DebitFree(1))
	assert.Equal(t, 0, account.FreeCredits)

	assert.True(t, account.DebitPremium(2))
	assert.False(t, account.DebitPremium(1))
	assert.False(t, account.DebitPremium(-1))
}

func TestCreditAccountSpendOrder(t *testing.T) {
	now := time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)
	account := NewCreditAccount("acc-1", now)
	account.PremiumCredits = 1
	account.Packages = []CreditPackage{
		NewCreditPackage("late", 2, now),
		NewCreditPackage("early", 1, now.AddDate(0, 0, -10)),
	}

	debit, ok := account.Spend(3)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"early": 1, "late": 2}, debit.Packages)
	assert.Equal(t, 0, debit.Premium)
	assert.Equal(t, 3, debit.Total())

	debit, ok = account.Spend(3)
	require.True(t, ok)
	assert.Equal(t, 1, debit.Premium)
	assert.Equal(t, 2, debit.Free)
	assert.Equal(t, 3, account.FreeCredits)

	_, ok = account.Spend(4)
	assert.False(t, ok)
	assert.Equal(t, 3, account.FreeCredits)
}

func TestCreditAccountRefund(t *testing.T) {
	now := time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)
	account := NewCreditAccount("acc-1", now)
	account.Packages = []CreditPackage{NewCreditPackage("pkg-1", 1, now)}

	debit, ok := account.Spend(2)
	require.True(t, ok)
	account.Refund(debit)

	assert.Equal(t, DailyCredits, account.FreeCredits)
	assert.Equal(t, 1, account.Packages[0].CreditsRemaining)
}

func TestCreditAccountRemoveExpiredPackages(t *testing.T) {
	now := time.Date(2026, 4, 20, 8, 0, 0, 0, time.UTC)
	expired := CreditPackage{ID: "old", ExpiresAt: now.Add(-time.Second), CreditsRemaining: 40}
	current := CreditPackage{ID: "new", ExpiresAt: now, CreditsRemaining: 10}
	account := CreditAccount{ID: "acc-1", Packages: []CreditPackage{expired, current}}

	removed := account.RemoveExpiredPackages(now)

	assert.Equal(t, []CreditPackage{expired}, removed)
	assert.Equal(t, []CreditPackage{current}, account.Packages)
}

func TestNewCreditPackageExpiresAfterSixtyDays(t *testing.T) {
	purchased := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	pkg := NewCreditPackage("pkg-1", 100, purchased)

	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), pkg.ExpiresAt)
	assert.False(t, pkg.ExpiringSoon(purchased))
	assert.True(t, pkg.ExpiringSoon(pkg.ExpiresAt.Add(-24*time.Hour)))
}

func TestLowBalanceThreshold(t *testing.T) {
	assert.Equal(t, 1, LowBalanceThreshold())
	assert.True(t, CreditAccount{FreeCredits: 1}.IsLowOnFreeCredits())
	assert.False(t, CreditAccount{FreeCredits: 0}.IsLowOnFreeCredits())
	assert.False(t, CreditAccount{FreeCredits: 2}.IsLowOnFreeCredits())
}

func TestParseRoleAndTier(t *testing.T) {
	role, err := ParseRole(" Brand ")
	require.NoError(t, err)
	assert.Equal(t, RoleBrand, role)

	_, err = ParseRole("owner")
	require.ErrorIs(t, err, ErrUnknownRole)

	tier, err := ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierFree, tier)

	_, err = ParseTier("platinum")
	require.ErrorIs(t, err, ErrUnknownTier)
}
