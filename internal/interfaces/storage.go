// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/mjcarson/folio/internal/models"
)

// StorageManager coordinates the storage backends.
type StorageManager interface {
	AccountStore() AccountStore
	LedgerStore() LedgerStore
	PriceCacheStore() PriceCacheStore

	// DataPath returns the base data directory for ledger snapshots.
	DataPath() string

	// Lifecycle
	Close() error
}

// AccountStore is the account registry: the explicit repository object that
// replaces any ambient global account map. Credentials are salted hashes.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	ListAccounts(ctx context.Context) ([]string, error)
	Close() error
}

// LedgerStore persists one atomic snapshot per account. Either the whole new
// state becomes durable or the old state remains; a subsequent Load never
// observes a partial write.
type LedgerStore interface {
	// LoadLedger returns the last persisted snapshot, or (nil, nil) when no
	// snapshot exists yet — first use is not an error.
	LoadLedger(ctx context.Context, accountID string) (*models.Ledger, error)

	// SaveLedger atomically replaces the snapshot for ledger.AccountID.
	// I/O failure wraps models.ErrPersistence.
	SaveLedger(ctx context.Context, ledger *models.Ledger) error

	DeleteLedger(ctx context.Context, accountID string) error
}

// PriceCacheStore persists cached price series, one entry per symbol.
type PriceCacheStore interface {
	GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
	SaveSeries(ctx context.Context, series *models.PriceSeries) error
	ListSymbols(ctx context.Context) ([]string, error)
}
