package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyIsSymmetric(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConversationKey("brand-9", "kol-1"), ConversationKey("kol-1", "brand-9"))
	assert.Equal(t, "brand-9_kol-1", ConversationKey("kol-1", "brand-9"))
}

func TestMonthlyContactLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor Actor
		want  int
	}{
		{name: "free brand", actor: Actor{Authenticated: true, Role: RoleBrand, Tier: TierFree}, want: 10},
		{name: "brand without tier", actor: Actor{Authenticated: true, Role: RoleBrand}, want: 10},
		{name: "pro brand", actor: Actor{Authenticated: true, Role: RoleBrand, Tier: TierPro}, want: 25},
		{name: "growth brand", actor: Actor{Authenticated: true, Role: RoleBrand, Tier: TierGrowth}, want: 50},
		{name: "enterprise brand", actor: Actor{Authenticated: true, Role: RoleBrand, Tier: TierEnterprise}, want: 100},
		{name: "premium brand", actor: Actor{Authenticated: true, Role: RoleBrand, Tier: TierPremium}, want: 50},
		{name: "kol", actor: Actor{Authenticated: true, Role: RoleKOL, Tier: TierPro}, want: 0},
		{name: "unauthenticated brand", actor: Actor{Role: RoleBrand, Tier: TierEnterprise}, want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MonthlyContactLimit(tc.actor))
		})
	}
}

func TestCountMonthlyContactsIgnoresOtherMonthsAndDuplicates(t *testing.T) {
	t.Parallel()

	entries := []ContactHistoryEntry{
		{ProfileID: "1", MonthKey: "2026-02"},
		{ProfileID: "2", MonthKey: "2026-02"},
		{ProfileID: "2", MonthKey: "2026-02"},
		{ProfileID: "3", MonthKey: "2026-01"},
	}

	assert.Equal(t, 2, CountMonthlyContacts(entries, "2026-02"))
	assert.Equal(t, 1, CountMonthlyContacts(entries, "2026-01"))
	assert.Equal(t, 0, CountMonthlyContacts(entries, "2026-03"))
}

func TestParseProfileType(t *testing.T) {
	t.Parallel()

	got, err := ParseProfileType("KOL")
	assert.NoError(t, err)
	assert.Equal(t, ProfileTypeKOL, got)

	_, err = ParseProfileType("agency")
	assert.ErrorIs(t, err, ErrUnknownProfileType)
}
