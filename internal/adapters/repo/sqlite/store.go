package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/kol-credits/internal/ports"
	_ "modernc.org/sqlite"
)

// Store keeps credit accounts and contact state in one SQLite database. Account rows carry
// a version column that every update compares and increments.
type Store struct {
	db *sql.DB
}

var (
	_ ports.CreditAccountRepository = (*Store)(nil)
	_ ports.ContactRepository       = (*Store)(nil)
)

// Open opens or creates the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serialises write transactions inside the process.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id                TEXT PRIMARY KEY,
		free_credits      INTEGER NOT NULL,
		premium_credits   INTEGER NOT NULL DEFAULT 0,
		general_questions INTEGER NOT NULL DEFAULT 0,
		last_reset        TEXT,
		version           INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS credit_packages (
		id                TEXT PRIMARY KEY,
		account_id        TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		seq               INTEGER NOT NULL,
		purchased_at      TEXT NOT NULL,
		expires_at        TEXT NOT NULL,
		credits_total     INTEGER NOT NULL,
		credits_remaining INTEGER NOT NULL,
		expiry_warned     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_packages_account ON credit_packages(account_id, seq);

	CREATE TABLE IF NOT EXISTS contact_history (
		actor_id     TEXT NOT NULL,
		profile_id   TEXT NOT NULL,
		profile_type TEXT NOT NULL,
		ts           TEXT NOT NULL,
		month_key    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_actor_month ON contact_history(actor_id, month_key);

	CREATE TABLE IF NOT EXISTS conversations (
		key         TEXT PRIMARY KEY,
		unlocked_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invitations (
		brand_id TEXT NOT NULL,
		kol_id   TEXT NOT NULL,
		at       TEXT NOT NULL,
		PRIMARY KEY (brand_id, kol_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTime(value time.Time) sql.NullString {
	if value.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(raw sql.NullString) (time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw.String, err)
	}
	return parsed, nil
}
