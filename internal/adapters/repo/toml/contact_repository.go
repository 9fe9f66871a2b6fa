package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	contactsPathKey    = "contacts.path"
	contactsConfigFile = "contacts.toml"
)

// ContactRepository keeps contact history, unlocked conversations and invitations in one
// TOML file next to the accounts file.
type ContactRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.ContactRepository = (*ContactRepository)(nil)

func NewContactRepository(cfg *viper.Viper) (*ContactRepository, error) {
	path, err := resolvePath(cfg, contactsPathKey, contactsConfigFile)
	if err != nil {
		return nil, err
	}

	return &ContactRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *ContactRepository) ListHistory(ctx context.Context, actorID domain.AccountID) ([]domain.ContactHistoryEntry, error) {
	file, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	var entries []domain.ContactHistoryEntry
	for _, entry := range file.History {
		if entry.ActorID == string(actorID) {
			entries = append(entries, fromHistorySchema(entry))
		}
	}

	return entries, nil
}

func (r *ContactRepository) AppendHistory(ctx context.Context, entry domain.ContactHistoryEntry) error {
	return r.update(ctx, func(file *contactsFileSchema) {
		file.History = append(file.History, toHistorySchema(entry))
	})
}

// RemoveHistory deletes the most recent entry equal to entry. Removing an entry that is not
// stored is a no-op.
func (r *ContactRepository) RemoveHistory(ctx context.Context, entry domain.ContactHistoryEntry) error {
	target := toHistorySchema(entry)
	return r.update(ctx, func(file *contactsFileSchema) {
		for i := len(file.History) - 1; i >= 0; i-- {
			if file.History[i] == target {
				file.History = append(file.History[:i], file.History[i+1:]...)
				return
			}
		}
	})
}

func (r *ContactRepository) IsUnlocked(ctx context.Context, conversationKey string) (bool, error) {
	file, err := r.read(ctx)
	if err != nil {
		return false, err
	}

	for _, conversation := range file.Conversations {
		if conversation.Key == conversationKey {
			return true, nil
		}
	}

	return false, nil
}

func (r *ContactRepository) Unlock(ctx context.Context, conversationKey string, at time.Time) error {
	return r.update(ctx, func(file *contactsFileSchema) {
		for _, conversation := range file.Conversations {
			if conversation.Key == conversationKey {
				return
			}
		}
		file.Conversations = append(file.Conversations, conversationSchema{Key: conversationKey, UnlockedAt: formatTime(at)})
	})
}

func (r *ContactRepository) HasInvitation(ctx context.Context, brandID, kolID domain.AccountID) (bool, error) {
	file, err := r.read(ctx)
	if err != nil {
		return false, err
	}

	for _, invitation := range file.Invitations {
		if invitation.BrandID == string(brandID) && invitation.KOLID == string(kolID) {
			return true, nil
		}
	}

	return false, nil
}

func (r *ContactRepository) SaveInvitation(ctx context.Context, invitation domain.Invitation) error {
	encoded := invitationSchema{
		BrandID: string(invitation.BrandID),
		KOLID:   string(invitation.KOLID),
		At:      formatTime(invitation.At),
	}

	return r.update(ctx, func(file *contactsFileSchema) {
		for i := range file.Invitations {
			if file.Invitations[i].BrandID == encoded.BrandID && file.Invitations[i].KOLID == encoded.KOLID {
				file.Invitations[i] = encoded
				return
			}
		}
		file.Invitations = append(file.Invitations, encoded)
	})
}

func (r *ContactRepository) read(ctx context.Context) (contactsFileSchema, error) {
	if err := ctx.Err(); err != nil {
		return contactsFileSchema{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readSchema()
}

func (r *ContactRepository) update(ctx context.Context, mutate func(file *contactsFileSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	mutate(&file)

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.path, file)
}

func (r *ContactRepository) readSchema() (contactsFileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := contactsFileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return contactsFileSchema{}, fmt.Errorf("read contacts file: %w", err)
	}

	var file contactsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return contactsFileSchema{}, fmt.Errorf("decode contacts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return contactsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toHistorySchema(entry domain.ContactHistoryEntry) historySchema {
	return historySchema{
		ActorID:     string(entry.ActorID),
		ProfileID:   string(entry.ProfileID),
		ProfileType: string(entry.ProfileType),
		Timestamp:   formatTime(entry.Timestamp),
		MonthKey:    entry.MonthKey,
	}
}

func fromHistorySchema(entry historySchema) domain.ContactHistoryEntry {
	return domain.ContactHistoryEntry{
		ActorID:     domain.AccountID(entry.ActorID),
		ProfileID:   domain.AccountID(entry.ProfileID),
		ProfileType: domain.ProfileType(entry.ProfileType),
		Timestamp:   parseTime(entry.Timestamp),
		MonthKey:    entry.MonthKey,
	}
}
