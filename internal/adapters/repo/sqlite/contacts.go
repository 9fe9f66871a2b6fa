package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
)

func (s *Store) ListHistory(ctx context.Context, actorID domain.AccountID) ([]domain.ContactHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor_id, profile_id, profile_type, ts, month_key
		 FROM contact_history WHERE actor_id = ? ORDER BY rowid`, string(actorID))
	if err != nil {
		return nil, fmt.Errorf("list contact history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ContactHistoryEntry
	for rows.Next() {
		var (
			entry                                 domain.ContactHistoryEntry
			actor, profile, profileType, monthKey string
			ts                                    sql.NullString
		)
		if err := rows.Scan(&actor, &profile, &profileType, &ts, &monthKey); err != nil {
			return nil, fmt.Errorf("scan contact history: %w", err)
		}
		entry.ActorID = domain.AccountID(actor)
		entry.ProfileID = domain.AccountID(profile)
		entry.ProfileType = domain.ProfileType(profileType)
		entry.MonthKey = monthKey
		if entry.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *Store) AppendHistory(ctx context.Context, entry domain.ContactHistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_history (actor_id, profile_id, profile_type, ts, month_key) VALUES (?, ?, ?, ?, ?)`,
		string(entry.ActorID), string(entry.ProfileID), string(entry.ProfileType), formatTime(entry.Timestamp), entry.MonthKey)
	if err != nil {
		return fmt.Errorf("append contact history: %w", err)
	}
	return nil
}

// RemoveHistory deletes the most recent row matching entry.
func (s *Store) RemoveHistory(ctx context.Context, entry domain.ContactHistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM contact_history WHERE rowid = (
			SELECT rowid FROM contact_history
			WHERE actor_id = ? AND profile_id = ? AND profile_type = ? AND ts = ? AND month_key = ?
			ORDER BY rowid DESC LIMIT 1
		)`,
		string(entry.ActorID), string(entry.ProfileID), string(entry.ProfileType), formatTime(entry.Timestamp), entry.MonthKey)
	if err != nil {
		return fmt.Errorf("remove contact history: %w", err)
	}
	return nil
}

func (s *Store) IsUnlocked(ctx context.Context, conversationKey string) (bool, error) {
	var key string
	err := s.db.QueryRowContext(ctx, `SELECT key FROM conversations WHERE key = ?`, conversationKey).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check conversation: %w", err)
	}
	return true, nil
}

func (s *Store) Unlock(ctx context.Context, conversationKey string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (key, unlocked_at) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		conversationKey, formatTime(at))
	if err != nil {
		return fmt.Errorf("unlock conversation: %w", err)
	}
	return nil
}

func (s *Store) HasInvitation(ctx context.Context, brandID, kolID domain.AccountID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invitations WHERE brand_id = ? AND kol_id = ?`, string(brandID), string(kolID)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check invitation: %w", err)
	}
	return count > 0, nil
}

func (s *Store) SaveInvitation(ctx context.Context, invitation domain.Invitation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invitations (brand_id, kol_id, at) VALUES (?, ?, ?)
		 ON CONFLICT(brand_id, kol_id) DO UPDATE SET at = excluded.at`,
		string(invitation.BrandID), string(invitation.KOLID), formatTime(invitation.At))
	if err != nil {
		return fmt.Errorf("save invitation: %w", err)
	}
	return nil
}
