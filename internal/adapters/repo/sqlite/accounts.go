package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bnema/kol-credits/internal/domain"
)

func (s *Store) GetByID(ctx context.Context, id domain.AccountID) (domain.CreditAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, free_credits, premium_credits, general_questions, last_reset, version
		 FROM accounts WHERE id = ?`, string(id))

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CreditAccount{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.CreditAccount{}, fmt.Errorf("get account: %w", err)
	}

	packages, err := s.packagesFor(ctx, id)
	if err != nil {
		return domain.CreditAccount{}, err
	}
	account.Packages = packages

	return account, nil
}

func (s *Store) List(ctx context.Context) ([]domain.CreditAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, free_credits, premium_credits, general_questions, last_reset, version
		 FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.CreditAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	rows.Close()

	for i := range accounts {
		packages, err := s.packagesFor(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		accounts[i].Packages = packages
	}

	return accounts, nil
}

// Save inserts a new account at version 0 or updates a stored one whose version matches,
// replacing its packages in the same transaction.
func (s *Store) Save(ctx context.Context, account domain.CreditAccount) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if account.Version == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, free_credits, premium_credits, general_questions, last_reset, version)
			 VALUES (?, ?, ?, ?, ?, 1)
			 ON CONFLICT(id) DO NOTHING`,
			string(account.ID), account.FreeCredits, account.PremiumCredits, account.GeneralQuestions,
			formatTime(account.LastReset))
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		if err := expectOneRow(res, account); err != nil {
			return err
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts
			 SET free_credits = ?, premium_credits = ?, general_questions = ?, last_reset = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			account.FreeCredits, account.PremiumCredits, account.GeneralQuestions, formatTime(account.LastReset),
			string(account.ID), account.Version)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if err := expectOneRow(res, account); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM credit_packages WHERE account_id = ?`, string(account.ID)); err != nil {
		return fmt.Errorf("clear packages: %w", err)
	}
	for i, pkg := range account.Packages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO credit_packages (id, account_id, seq, purchased_at, expires_at, credits_total, credits_remaining, expiry_warned)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			pkg.ID, string(account.ID), i, formatTime(pkg.PurchasedAt), formatTime(pkg.ExpiresAt),
			pkg.CreditsTotal, pkg.CreditsRemaining, pkg.ExpiryWarned)
		if err != nil {
			return fmt.Errorf("insert package %s: %w", pkg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, account domain.CreditAccount) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("save account %s at version %d: %w", account.ID, account.Version, domain.ErrVersionConflict)
	}
	return nil
}

func (s *Store) packagesFor(ctx context.Context, id domain.AccountID) ([]domain.CreditPackage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, purchased_at, expires_at, credits_total, credits_remaining, expiry_warned
		 FROM credit_packages WHERE account_id = ? ORDER BY seq`, string(id))
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []domain.CreditPackage
	for rows.Next() {
		var (
			pkg                    domain.CreditPackage
			purchasedAt, expiresAt sql.NullString
		)
		if err := rows.Scan(&pkg.ID, &purchasedAt, &expiresAt, &pkg.CreditsTotal, &pkg.CreditsRemaining, &pkg.ExpiryWarned); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		if pkg.PurchasedAt, err = parseTime(purchasedAt); err != nil {
			return nil, err
		}
		if pkg.ExpiresAt, err = parseTime(expiresAt); err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}

	return packages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.CreditAccount, error) {
	var (
		account   domain.CreditAccount
		id        string
		lastReset sql.NullString
	)
	if err := row.Scan(&id, &account.FreeCredits, &account.PremiumCredits, &account.GeneralQuestions, &lastReset, &account.Version); err != nil {
		return domain.CreditAccount{}, err
	}
	account.ID = domain.AccountID(id)

	parsed, err := parseTime(lastReset)
	if err != nil {
		return domain.CreditAccount{}, err
	}
	account.LastReset = parsed

	return account, nil
}
