// Package ledgerfile stores portfolio ledgers as JSONL files in a directory:
// one <portfolio id>.jsonl file per ledger and a portfolios.jsonl catalog.
//
// Files are human readable and version control friendly. Appends are
// serialized by a lock file per directory, so several processes can share a
// directory safely.
package ledgerfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etnz/papertrade"
)

const (
	catalogFile = "portfolios.jsonl"
	lockFile    = ".lock"
	// staleLock is the age after which a lock file left by a crashed process is removed.
	staleLock = 30 * time.Second
)

// Store is a papertrade.Store backed by a directory.
type Store struct {
	dir string
	log zerolog.Logger
}

var _ papertrade.Store = (*Store)(nil)

// Open returns a Store in dir, creating the directory if needed.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &Store{dir: dir, log: log.With().Str("store", dir).Logger()}, nil
}

// Dir returns the directory of the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ledgerPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".jsonl")
}

// portfolioRecord is the catalog line of a portfolio.
type portfolioRecord struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) readCatalog() ([]papertrade.Portfolio, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, catalogFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ps []papertrade.Portfolio
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var rec portfolioRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", catalogFile, line, err)
		}
		p, err := papertrade.RestorePortfolio(rec.ID, rec.User, rec.Name, rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", catalogFile, line, err)
		}
		ps = append(ps, p)
	}
	return ps, scanner.Err()
}

func (s *Store) writeCatalog(ps []papertrade.Portfolio) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range ps {
		if err := enc.Encode(portfolioRecord{ID: p.ID(), User: p.UserID(), Name: p.Name(), CreatedAt: p.CreatedAt()}); err != nil {
			return err
		}
	}
	return writeFileAtomic(filepath.Join(s.dir, catalogFile), buf.Bytes())
}

func (s *Store) find(id uuid.UUID) (papertrade.Portfolio, error) {
	ps, err := s.readCatalog()
	if err != nil {
		return papertrade.Portfolio{}, err
	}
	for _, p := range ps {
		if p.ID() == id {
			return p, nil
		}
	}
	return papertrade.Portfolio{}, fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, id)
}

func (s *Store) CreatePortfolio(ctx context.Context, p papertrade.Portfolio) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	ps, err := s.readCatalog()
	if err != nil {
		return err
	}
	for _, existing := range ps {
		if existing.ID() == p.ID() {
			return fmt.Errorf("%w: %s", papertrade.ErrDuplicatePortfolio, p.ID())
		}
	}
	if err := s.writeCatalog(append(ps, p)); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	s.log.Info().Str("portfolio", p.ID().String()).Str("name", p.Name()).Msg("portfolio created")
	return nil
}

func (s *Store) Portfolio(ctx context.Context, id uuid.UUID) (papertrade.Portfolio, error) {
	return s.find(id)
}

func (s *Store) Portfolios(ctx context.Context, userID string) ([]papertrade.Portfolio, error) {
	ps, err := s.readCatalog()
	if err != nil {
		return nil, err
	}
	if userID != "" {
		ps = slices.DeleteFunc(ps, func(p papertrade.Portfolio) bool { return p.UserID() != userID })
	}
	papertrade.SortPortfolios(ps)
	return ps, nil
}

func (s *Store) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	ps, err := s.readCatalog()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(ps, func(p papertrade.Portfolio) bool { return p.ID() == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, id)
	}
	if err := os.Remove(s.ledgerPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove ledger: %w", err)
	}
	if err := s.writeCatalog(slices.Delete(ps, i, i+1)); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	s.log.Info().Str("portfolio", id.String()).Msg("portfolio deleted")
	return nil
}

func (s *Store) readLedger(id uuid.UUID) ([]papertrade.Transaction, error) {
	f, err := os.Open(s.ledgerPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := papertrade.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(f.Name()), err)
	}
	return txs, nil
}

func (s *Store) Transactions(ctx context.Context, portfolioID uuid.UUID) ([]papertrade.Transaction, papertrade.Version, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	if _, err := s.find(portfolioID); err != nil {
		return nil, 0, err
	}
	txs, err := s.readLedger(portfolioID)
	if err != nil {
		return nil, 0, err
	}
	return txs, papertrade.Version(len(txs)), nil
}

func (s *Store) Append(ctx context.Context, tx papertrade.Transaction, expected papertrade.Version) (papertrade.Version, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	ps, err := s.readCatalog()
	if err != nil {
		return 0, err
	}
	if !slices.ContainsFunc(ps, func(p papertrade.Portfolio) bool { return p.ID() == tx.PortfolioID() }) {
		return 0, fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, tx.PortfolioID())
	}
	// Entry ids are unique across the whole store.
	var ledger []papertrade.Transaction
	for _, p := range ps {
		txs, err := s.readLedger(p.ID())
		if err != nil {
			return 0, err
		}
		if slices.ContainsFunc(txs, func(e papertrade.Transaction) bool { return e.ID() == tx.ID() }) {
			return 0, fmt.Errorf("%w: %s", papertrade.ErrDuplicateEntry, tx.ID())
		}
		if p.ID() == tx.PortfolioID() {
			ledger = txs
		}
	}
	current := papertrade.Version(len(ledger))
	if err := papertrade.CheckAppend(tx, current, expected); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(s.ledgerPath(tx.PortfolioID()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("error opening ledger file: %w", err)
	}
	defer f.Close()
	if err := papertrade.EncodeTransaction(f, tx); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("error syncing ledger file: %w", err)
	}
	return current + 1, nil
}

// lock takes the directory lock, waiting for other writers until ctx is done.
func (s *Store) lock(ctx context.Context) (unlock func(), err error) {
	path := filepath.Join(s.dir, lockFile)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() {
				if err := os.Remove(path); err != nil {
					s.log.Error().Err(err).Msg("failed to release lock")
				}
			}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to lock %s: %w", s.dir, err)
		}
		if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) > staleLock {
			s.log.Warn().Time("since", info.ModTime()).Msg("removing stale lock")
			os.Remove(path)
			continue
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock on %s: %w", s.dir, ctx.Err())
		case <-ticker.C:
		}
	}
}

// writeFileAtomic replaces name with data through a temporary file.
func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}
