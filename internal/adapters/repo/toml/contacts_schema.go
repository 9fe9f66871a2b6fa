package toml

import "fmt"

const currentContactsSchemaVersion = 1

type contactsFileSchema struct {
	Version       int                  `toml:"version"`
	History       []historySchema      `toml:"history"`
	Conversations []conversationSchema `toml:"conversations"`
	Invitations   []invitationSchema   `toml:"invitations"`
}

func (s *contactsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentContactsSchemaVersion
	}
}

func (s contactsFileSchema) validateVersion() error {
	if s.Version > currentContactsSchemaVersion {
		return fmt.Errorf("unsupported contacts schema version %d (current %d)", s.Version, currentContactsSchemaVersion)
	}
	return nil
}

type historySchema struct {
	ActorID     string `toml:"actor_id"`
	ProfileID   string `toml:"profile_id"`
	ProfileType string `toml:"profile_type"`
	Timestamp   string `toml:"timestamp"`
	MonthKey    string `toml:"month_key"`
}

type conversationSchema struct {
	Key        string `toml:"key"`
	UnlockedAt string `toml:"unlocked_at"`
}

type invitationSchema struct {
	BrandID string `toml:"brand_id"`
	KOLID   string `toml:"kol_id"`
	At      string `toml:"at"`
}
