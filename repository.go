package papertrade

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Version is the number of entries in a portfolio ledger. It is used as the
// expected version of an optimistic append.
type Version int64

// Repository stores portfolio ledgers. Ledgers are append only.
type Repository interface {
	// Transactions returns every entry of the portfolio ledger and the ledger
	// version they were read at.
	Transactions(ctx context.Context, portfolioID uuid.UUID) ([]Transaction, Version, error)
	// Append adds tx to the ledger of tx.PortfolioID() if the ledger is still at
	// version expected. It returns the new version, or an error wrapping
	// ErrVersionConflict if another entry was appended in between and
	// ErrDuplicateEntry if an entry with the same id already exists.
	Append(ctx context.Context, tx Transaction, expected Version) (Version, error)
}

// Catalog stores the portfolios themselves.
type Catalog interface {
	CreatePortfolio(ctx context.Context, p Portfolio) error
	Portfolio(ctx context.Context, id uuid.UUID) (Portfolio, error)
	// Portfolios lists the portfolios of userID, oldest first. An empty userID lists all of them.
	Portfolios(ctx context.Context, userID string) ([]Portfolio, error)
	// DeletePortfolio removes the portfolio and its ledger.
	DeletePortfolio(ctx context.Context, id uuid.UUID) error
}

// Store is a Catalog with the ledgers of its portfolios.
type Store interface {
	Repository
	Catalog
}

// CheckAppend verifies the optimistic concurrency contract of Append for a ledger
// currently at version current.
func CheckAppend(tx Transaction, current, expected Version) error {
	if current != expected {
		return fmt.Errorf("%w: ledger %s is at version %d, expected %d", ErrVersionConflict, tx.PortfolioID(), current, expected)
	}
	if tx.Sequence() != int64(current)+1 {
		return fmt.Errorf("%w: sequence %d does not follow version %d", ErrInvalidTransaction, tx.Sequence(), current)
	}
	return nil
}

// SortPortfolios orders portfolios by creation time, then id.
func SortPortfolios(ps []Portfolio) {
	slices.SortFunc(ps, func(a, b Portfolio) int {
		return cmp.Or(a.CreatedAt().Compare(b.CreatedAt()), cmp.Compare(a.ID().String(), b.ID().String()))
	})
}

// MemoryRepository is a Store kept in memory. It is safe for concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]Portfolio
	ledgers    map[uuid.UUID][]Transaction
	ids        map[uuid.UUID]uuid.UUID // entry id to portfolio id
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		portfolios: make(map[uuid.UUID]Portfolio),
		ledgers:    make(map[uuid.UUID][]Transaction),
		ids:        make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *MemoryRepository) CreatePortfolio(ctx context.Context, p Portfolio) error {
	if p.ID() == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrInvalidPortfolio)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.portfolios[p.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePortfolio, p.ID())
	}
	r.portfolios[p.ID()] = p
	return nil
}

func (r *MemoryRepository) Portfolio(ctx context.Context, id uuid.UUID) (Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.portfolios[id]
	if !ok {
		return Portfolio{}, fmt.Errorf("%w: %s", ErrPortfolioNotFound, id)
	}
	return p, nil
}

func (r *MemoryRepository) Portfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ps []Portfolio
	for _, p := range r.portfolios {
		if userID == "" || p.UserID() == userID {
			ps = append(ps, p)
		}
	}
	SortPortfolios(ps)
	return ps, nil
}

func (r *MemoryRepository) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.portfolios[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPortfolioNotFound, id)
	}
	for _, tx := range r.ledgers[id] {
		delete(r.ids, tx.ID())
	}
	delete(r.ledgers, id)
	delete(r.portfolios, id)
	return nil
}

func (r *MemoryRepository) Transactions(ctx context.Context, portfolioID uuid.UUID) ([]Transaction, Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.portfolios[portfolioID]; !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrPortfolioNotFound, portfolioID)
	}
	ledger := r.ledgers[portfolioID]
	return slices.Clone(ledger), Version(len(ledger)), nil
}

func (r *MemoryRepository) Append(ctx context.Context, tx Transaction, expected Version) (Version, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pid := tx.PortfolioID()
	if _, ok := r.portfolios[pid]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrPortfolioNotFound, pid)
	}
	if _, dup := r.ids[tx.ID()]; dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateEntry, tx.ID())
	}
	ledger := r.ledgers[pid]
	if err := CheckAppend(tx, Version(len(ledger)), expected); err != nil {
		return 0, err
	}
	r.ledgers[pid] = append(ledger, tx)
	r.ids[tx.ID()] = pid
	return Version(len(ledger) + 1), nil
}
