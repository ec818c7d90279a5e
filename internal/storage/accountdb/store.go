// Package accountdb implements the account registry using BadgerHold.
package accountdb

import (
	"context"
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

// Store implements interfaces.AccountStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (or creates) the account database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create accountdb path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open accountdb at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("AccountDB opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) CreateAccount(_ context.Context, account *models.Account) error {
	if account.ID == "" {
		return fmt.Errorf("account ID is required")
	}
	if err := s.db.Insert(account.ID, account); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("%w: '%s'", models.ErrDuplicateAccount, account.ID)
		}
		return fmt.Errorf("failed to create account '%s': %w", account.ID, err)
	}
	s.logger.Info().Str("account", account.ID).Msg("Account created")
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Get(id, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: '%s'", models.ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("failed to get account '%s': %w", id, err)
	}
	return &account, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	if err := s.db.Delete(id, models.Account{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete account '%s': %w", id, err)
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]string, error) {
	var all []models.Account
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	ids := make([]string, 0, len(all))
	for i := range all {
		ids = append(ids, all[i].ID)
	}
	return ids, nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements AccountStore
var _ interfaces.AccountStore = (*Store)(nil)
