package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	accountsPathKey    = "accounts.path"
	accountsFileMode   = 0o600
	accountsDirMode    = 0o700
	accountsConfigDir  = ".kol-credits"
	accountsConfigFile = "accounts.toml"
	tempFilePattern    = ".kol-credits-*.toml.tmp"
)

// Repository stores credit accounts in a single TOML file. Writes replace the file
// atomically; a per-path lock serialises read-modify-write cycles within the process.
type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CreditAccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	path, err := resolvePath(cfg, accountsPathKey, accountsConfigFile)
	if err != nil {
		return nil, err
	}

	return &Repository{accountsPath: path, mu: lockForPath(path)}, nil
}

func (r *Repository) Path() string {
	return r.accountsPath
}

func (r *Repository) Save(ctx context.Context, account domain.CreditAccount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(account)
	encoded.Version = account.Version + 1

	updated := false
	for i := range file.Accounts {
		if file.Accounts[i].ID != encoded.ID {
			continue
		}
		if file.Accounts[i].Version != account.Version {
			return fmt.Errorf("save account %s at version %d (stored %d): %w",
				account.ID, account.Version, file.Accounts[i].Version, domain.ErrVersionConflict)
		}
		file.Accounts[i] = encoded
		updated = true
		break
	}

	if !updated {
		if account.Version != 0 {
			return fmt.Errorf("save account %s at version %d (not stored): %w", account.ID, account.Version, domain.ErrVersionConflict)
		}
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.accountsPath, file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.CreditAccount, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreditAccount{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.CreditAccount{}, err
	}

	for _, entry := range file.Accounts {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.CreditAccount{}, domain.ErrAccountNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.CreditAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.CreditAccount, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	return accounts, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.accountsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func resolvePath(cfg *viper.Viper, key, fileName string) (string, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(key)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, accountsConfigDir, fileName)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", key, err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeTOMLFile(path string, file any) error {
	if err := os.MkdirAll(filepath.Dir(path), accountsDirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(accountsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(path, accountsFileMode); err != nil {
		return fmt.Errorf("chmod file: %w", err)
	}

	return nil
}

func toSchema(account domain.CreditAccount) accountSchema {
	packages := make([]packageSchema, 0, len(account.Packages))
	for _, pkg := range account.Packages {
		packages = append(packages, packageSchema{
			ID:               pkg.ID,
			PurchasedAt:      formatTime(pkg.PurchasedAt),
			ExpiresAt:        formatTime(pkg.ExpiresAt),
			CreditsTotal:     pkg.CreditsTotal,
			CreditsRemaining: pkg.CreditsRemaining,
			ExpiryWarned:     pkg.ExpiryWarned,
		})
	}

	return accountSchema{
		ID:               string(account.ID),
		FreeCredits:      account.FreeCredits,
		PremiumCredits:   account.PremiumCredits,
		GeneralQuestions: account.GeneralQuestions,
		LastReset:        formatTime(account.LastReset),
		Version:          account.Version,
		Packages:         packages,
	}
}

func fromSchema(account accountSchema) domain.CreditAccount {
	var packages []domain.CreditPackage
	for _, pkg := range account.Packages {
		packages = append(packages, domain.CreditPackage{
			ID:               pkg.ID,
			PurchasedAt:      parseTime(pkg.PurchasedAt),
			ExpiresAt:        parseTime(pkg.ExpiresAt),
			CreditsTotal:     pkg.CreditsTotal,
			CreditsRemaining: pkg.CreditsRemaining,
			ExpiryWarned:     pkg.ExpiryWarned,
		})
	}

	return domain.CreditAccount{
		ID:               domain.AccountID(account.ID),
		FreeCredits:      account.FreeCredits,
		PremiumCredits:   account.PremiumCredits,
		GeneralQuestions: account.GeneralQuestions,
		LastReset:        parseTime(account.LastReset),
		Packages:         packages,
		Version:          account.Version,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339Nano)
}
