package domain

import (
	"fmt"
	"time"
)

type NotificationKind string

const (
	NotificationExhausted       NotificationKind = "exhausted"
	NotificationLowBalance      NotificationKind = "low_balance"
	NotificationPackageExpiring NotificationKind = "package_expiring"
	NotificationPackageExpired  NotificationKind = "package_expired"
	NotificationUnlocked        NotificationKind = "unlocked"
)

// Intent is where the UI should send the user after a denial.
type Intent string

const (
	IntentNone    Intent = ""
	IntentLogin   Intent = "login"
	IntentUpgrade Intent = "upgrade"
)

type Notification struct {
	Kind       NotificationKind
	AccountID  AccountID
	Message    string
	ActionHint Intent
}

const packageExpiryWarning = 7 * 24 * time.Hour

func ExhaustedNotification(id AccountID, untilReset time.Duration) Notification {
	return Notification{
		Kind:       NotificationExhausted,
		AccountID:  id,
		Message:    fmt.Sprintf("You're out of credits. Free credits reset in %s.", FormatWait(untilReset)),
		ActionHint: IntentUpgrade,
	}
}

func LowBalanceNotification(id AccountID, remaining int) Notification {
	return Notification{
		Kind:       NotificationLowBalance,
		AccountID:  id,
		Message:    fmt.Sprintf("Running low: %d free %s left today.", remaining, pluralCredits(remaining)),
		ActionHint: IntentUpgrade,
	}
}

func PackageExpiringNotification(id AccountID, pkg CreditPackage, now time.Time) Notification {
	return Notification{
		Kind:      NotificationPackageExpiring,
		AccountID: id,
		Message: fmt.Sprintf("%d package %s expire in %s.",
			pkg.CreditsRemaining, pluralCredits(pkg.CreditsRemaining), FormatWait(pkg.ExpiresAt.Sub(now))),
	}
}

func PackageExpiredNotification(id AccountID, pkg CreditPackage) Notification {
	return Notification{
		Kind:      NotificationPackageExpired,
		AccountID: id,
		Message: fmt.Sprintf("Credit package %s expired; %d unused %s forfeited.",
			pkg.ID, pkg.CreditsRemaining, pluralCredits(pkg.CreditsRemaining)),
	}
}

func UnlockedNotification(id, other AccountID, cost int) Notification {
	message := fmt.Sprintf("Conversation with %s unlocked.", other)
	if cost > 0 {
		message = fmt.Sprintf("Conversation with %s unlocked for %d %s.", other, cost, pluralCredits(cost))
	}
	return Notification{Kind: NotificationUnlocked, AccountID: id, Message: message}
}

// ExpiringSoon reports whether pkg expires within the warning window and has not been
// warned about yet.
func (p CreditPackage) ExpiringSoon(now time.Time) bool {
	return !p.ExpiryWarned && p.CreditsRemaining > 0 && !p.Expired(now) && p.ExpiresAt.Sub(now) <= packageExpiryWarning
}

func pluralCredits(n int) string {
	if n == 1 {
		return "credit"
	}
	return "credits"
}
