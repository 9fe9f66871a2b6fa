package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleKOL   Role = "kol"
	RoleBrand Role = "brand"
	RoleAdmin Role = "admin"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierGrowth     Tier = "growth"
	TierEnterprise Tier = "enterprise"
	TierPremium    Tier = "premium"
)

// Actor is the identity supplied by the identity provider for a single request.
type Actor struct {
	AccountID     AccountID
	Authenticated bool
	Role          Role
	Tier          Tier
}

func (a Actor) Anonymous() bool {
	return !a.Authenticated || a.Role == "" || a.Role == RoleGuest
}

// Paid reports whether the actor holds any subscription above free.
func (a Actor) Paid() bool {
	return !a.Anonymous() && a.Tier.Paid()
}

func (t Tier) Paid() bool {
	return t != "" && t != TierFree
}

func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case "":
		return RoleGuest, nil
	case RoleGuest, RoleKOL, RoleBrand, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

func ParseTier(raw string) (Tier, error) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(raw))); tier {
	case "":
		return TierFree, nil
	case TierFree, TierPro, TierGrowth, TierEnterprise, TierPremium:
		return tier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, raw)
	}
}
