// Package ledgerfs implements file-based storage for ledger snapshots and
// cached price series. Every write goes through a temp file and rename so a
// snapshot is replaced atomically: a concurrent or subsequent read sees
// either the whole old record or the whole new one.
package ledgerfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/models"
)

// Store provides file-based JSON storage for ledgers and the price cache.
type Store struct {
	basePath   string
	ledgersDir string
	pricesDir  string
	logger     *common.Logger
}

// NewStore creates a new ledger file store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger store path %s: %w", path, err)
	}
	ledgersDir := filepath.Join(path, "ledgers")
	pricesDir := filepath.Join(path, "prices")
	os.MkdirAll(ledgersDir, 0755)
	os.MkdirAll(pricesDir, 0755)

	logger.Info().Str("path", path).Msg("LedgerFS store opened")
	return &Store{
		basePath:   path,
		ledgersDir: ledgersDir,
		pricesDir:  pricesDir,
		logger:     logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// LedgerStore returns the ledger snapshot storage interface.
func (s *Store) LedgerStore() interfaces.LedgerStore {
	return &ledgerStore{store: s}
}

// PriceCacheStore returns the price cache storage interface.
func (s *Store) PriceCacheStore() interfaces.PriceCacheStore {
	return &priceCacheStore{store: s}
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// --- helpers ---

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func filePath(dir, key string) string {
	return filepath.Join(dir, sanitizeKey(key)+".json")
}

func readJSON(dir, key string, dest interface{}) error {
	path := filePath(dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", key)
	}
	return json.Unmarshal(data, dest)
}

func writeJSON(dir, key string, data interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filePath(dir, key)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func listKeys(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}

// --- LedgerStore ---

type ledgerStore struct {
	store *Store
}

func (ls *ledgerStore) LoadLedger(_ context.Context, accountID string) (*models.Ledger, error) {
	var ledger models.Ledger
	if err := readJSON(ls.store.ledgersDir, accountID, &ledger); err != nil {
		if os.IsNotExist(err) {
			return nil, nil // first use, not an error
		}
		return nil, fmt.Errorf("%w: load ledger for '%s': %v", models.ErrPersistence, accountID, err)
	}
	if ledger.SchemaVersion != models.LedgerSchemaVersion {
		return nil, fmt.Errorf("%w: ledger for '%s' has schema version %q, want %q",
			models.ErrPersistence, accountID, ledger.SchemaVersion, models.LedgerSchemaVersion)
	}
	if ledger.Holdings == nil {
		ledger.Holdings = make(map[string]models.Holding)
	}
	return &ledger, nil
}

func (ls *ledgerStore) SaveLedger(_ context.Context, ledger *models.Ledger) error {
	if ledger.AccountID == "" {
		return fmt.Errorf("%w: ledger has no account ID", models.ErrPersistence)
	}
	if err := writeJSON(ls.store.ledgersDir, ledger.AccountID, ledger); err != nil {
		return fmt.Errorf("%w: save ledger for '%s': %v", models.ErrPersistence, ledger.AccountID, err)
	}
	ls.store.logger.Debug().Str("account", ledger.AccountID).Msg("Ledger snapshot saved")
	return nil
}

func (ls *ledgerStore) DeleteLedger(_ context.Context, accountID string) error {
	os.Remove(filePath(ls.store.ledgersDir, accountID))
	return nil
}

// --- PriceCacheStore ---

type priceCacheStore struct {
	store *Store
}

func (ps *priceCacheStore) GetSeries(_ context.Context, symbol string) (*models.PriceSeries, error) {
	var series models.PriceSeries
	if err := readJSON(ps.store.pricesDir, symbol, &series); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no cached series for '%s'", models.ErrPriceUnavailable, symbol)
		}
		return nil, fmt.Errorf("%w: read cached series for '%s': %v", models.ErrPersistence, symbol, err)
	}
	return &series, nil
}

func (ps *priceCacheStore) SaveSeries(_ context.Context, series *models.PriceSeries) error {
	if err := writeJSON(ps.store.pricesDir, series.Symbol, series); err != nil {
		return fmt.Errorf("%w: save series for '%s': %v", models.ErrPersistence, series.Symbol, err)
	}
	ps.store.logger.Debug().
		Str("symbol", series.Symbol).
		Int("points", len(series.Points)).
		Msg("Price series cached")
	return nil
}

func (ps *priceCacheStore) ListSymbols(_ context.Context) ([]string, error) {
	return listKeys(ps.store.pricesDir)
}
