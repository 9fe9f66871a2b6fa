package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	freeBarWidth   = 20
	expiringWindow = 7 * 24 * time.Hour
)

type RenderOptions struct {
	Now time.Time
}

func renderView(statuses []application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("KOL Credit Balance"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(statuses))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No credit accounts yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderAccount(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(status application.Status, opts RenderOptions, s styles) string {
	account := status.Account
	parts := []string{
		s.account.Render(string(account.ID)),
		freeLine(status, opts, s),
		s.detail.Render(fmt.Sprintf("premium: %d", account.PremiumCredits)),
		s.detail.Render(fmt.Sprintf("general questions: %d/%d", account.GeneralQuestions, domain.GeneralQuestionsPerCredit)),
	}

	parts = append(parts, packageLines(account.Packages, opts.Now, s)...)
	parts = append(parts, s.lineMeta.Render(fmt.Sprintf("spendable: %d", status.Spendable)))

	if status.LowBalance {
		parts = append(parts, s.warning.Render(lowBalanceWarning(account.FreeCredits)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func freeLine(status application.Status, opts RenderOptions, s styles) string {
	free := status.Account.FreeCredits
	label := s.lineKey.Render("free:")
	bar := renderProgressBar(free, domain.DailyCredits, freeBarWidth, s)
	countStyle := lipgloss.NewStyle().Foreground(interpolateColor(float64(free), 0, domain.DailyCredits))
	count := countStyle.Render(fmt.Sprintf("%d/%d", free, domain.DailyCredits))
	reset := s.lineMeta.Render(fmt.Sprintf("(%s)", formatResetRelative(status.NextReset, status.UntilReset, opts.Now)))

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", count, " ", reset)
}

func packageLines(packages []domain.CreditPackage, now time.Time, s styles) []string {
	if len(packages) == 0 {
		return nil
	}

	lines := make([]string, 0, len(packages))
	for _, pkg := range packages {
		line := s.detail.Render(fmt.Sprintf("package %s: %d/%d, expires %s",
			shortID(pkg.ID), pkg.CreditsRemaining, pkg.CreditsTotal, formatExpiry(pkg.ExpiresAt, now)))
		if !now.IsZero() && !pkg.Expired(now) && pkg.ExpiresAt.Sub(now) <= expiringWindow {
			line += " " + s.warning.Render("[expiring]")
		}
		lines = append(lines, line)
	}

	return lines
}

func lowBalanceWarning(free int) string {
	if free <= 0 {
		return "No free credits left today."
	}
	return fmt.Sprintf("Running low: %d free %s left today.", free, plural(free, "credit", "credits"))
}

func renderProgressBar(value, total, width int, s styles) string {
	if width <= 0 || total <= 0 {
		return ""
	}

	fraction := float64(value) / float64(total)
	filled := int(math.Round(float64(width) * fraction))
	filled = min(max(filled, 0), width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func formatResetRelative(nextReset time.Time, until time.Duration, now time.Time) string {
	if nextReset.IsZero() {
		return "reset unknown"
	}
	if now.IsZero() {
		return "resets " + nextReset.Format(time.RFC3339)
	}
	if until <= 0 {
		return "reset now"
	}

	return fmt.Sprintf("resets in %s (%s)", domain.FormatWait(until), nextReset.Format("15:04"))
}

func formatExpiry(expiresAt, now time.Time) string {
	if expiresAt.IsZero() {
		return "never"
	}
	if now.IsZero() || expiresAt.Year() != now.Year() {
		return expiresAt.Format("02 Jan 2006")
	}
	return expiresAt.Format("02 Jan")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, faded at min and bright at max.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
