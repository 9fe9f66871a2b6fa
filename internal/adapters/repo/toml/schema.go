package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID               string          `toml:"id"`
	FreeCredits      int             `toml:"free_credits"`
	PremiumCredits   int             `toml:"premium_credits"`
	GeneralQuestions int             `toml:"general_questions"`
	LastReset        string          `toml:"last_reset"`
	Version          int64           `toml:"version"`
	Packages         []packageSchema `toml:"packages,omitempty"`
}

type packageSchema struct {
	ID               string `toml:"id"`
	PurchasedAt      string `toml:"purchased_at"`
	ExpiresAt        string `toml:"expires_at"`
	CreditsTotal     int    `toml:"credits_total"`
	CreditsRemaining int    `toml:"credits_remaining"`
	ExpiryWarned     bool   `toml:"expiry_warned,omitempty"`
}
