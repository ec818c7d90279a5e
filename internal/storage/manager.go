// Package storage wires the concrete storage backends behind the
// StorageManager contract: BadgerHold for the account registry and
// file-based atomic snapshots for ledgers and the price cache.
package storage

import (
	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/storage/accountdb"
	"github.com/mjcarson/folio/internal/storage/ledgerfs"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	accounts *accountdb.Store
	ledgers  *ledgerfs.Store
	logger   *common.Logger
}

// NewManager opens all storage backends per the config.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	accounts, err := accountdb.NewStore(logger, config.Storage.Accounts.Path)
	if err != nil {
		return nil, err
	}

	ledgers, err := ledgerfs.NewStore(logger, config.Storage.Ledger.Path)
	if err != nil {
		accounts.Close()
		return nil, err
	}

	return &Manager{
		accounts: accounts,
		ledgers:  ledgers,
		logger:   logger,
	}, nil
}

func (m *Manager) AccountStore() interfaces.AccountStore {
	return m.accounts
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledgers.LedgerStore()
}

func (m *Manager) PriceCacheStore() interfaces.PriceCacheStore {
	return m.ledgers.PriceCacheStore()
}

func (m *Manager) DataPath() string {
	return m.ledgers.DataPath()
}

// Close shuts down all backends. The ledger file store closes last; it is a
// no-op but kept symmetric for future backends.
func (m *Manager) Close() error {
	err := m.accounts.Close()
	if cerr := m.ledgers.Close(); err == nil {
		err = cerr
	}
	return err
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
