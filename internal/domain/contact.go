package domain

import (
	"fmt"
	"strings"
	"time"
)

type ProfileType string

const (
	ProfileTypeKOL   ProfileType = "kol"
	ProfileTypeBrand ProfileType = "brand"
)

func ParseProfileType(raw string) (ProfileType, error) {
	switch profile := ProfileType(strings.ToLower(strings.TrimSpace(raw))); profile {
	case ProfileTypeKOL, ProfileTypeBrand:
		return profile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfileType, raw)
	}
}

type ContactHistoryEntry struct {
	ActorID     AccountID
	ProfileID   AccountID
	ProfileType ProfileType
	Timestamp   time.Time
	MonthKey    string
}

type Invitation struct {
	BrandID AccountID
	KOLID   AccountID
	At      time.Time
}

var brandMonthlyContactLimits = map[Tier]int{
	TierFree:       10,
	TierPro:        25,
	TierGrowth:     50,
	TierEnterprise: 100,
}

const defaultPaidMonthlyContactLimit = 50

// ConversationKey is symmetric: either party derives the same key.
func ConversationKey(a, b AccountID) string {
	left, right := strings.TrimSpace(string(a)), strings.TrimSpace(string(b))
	if right < left {
		left, right = right, left
	}
	return left + "_" + right
}

// MonthlyContactLimit is the number of new creators a brand may contact per month.
func MonthlyContactLimit(actor Actor) int {
	if actor.Anonymous() || actor.Role != RoleBrand {
		return 0
	}
	tier := actor.Tier
	if tier == "" {
		tier = TierFree
	}
	if limit, ok := brandMonthlyContactLimits[tier]; ok {
		return limit
	}
	return defaultPaidMonthlyContactLimit
}

// CountMonthlyContacts counts distinct profiles contacted in monthKey. Entries from other
// months are ignored, never deleted.
func CountMonthlyContacts(entries []ContactHistoryEntry, monthKey string) int {
	seen := make(map[AccountID]struct{}, len(entries))
	for _, entry := range entries {
		if entry.MonthKey != monthKey {
			continue
		}
		seen[entry.ProfileID] = struct{}{}
	}
	return len(seen)
}
