package papertrade

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPortfolioNameLength is the maximum number of characters in a portfolio name.
const MaxPortfolioNameLength = 100

// Portfolio identifies a ledger and its owner. Its state (cash, holdings) is not
// stored here but derived from the ledger by a Calculator.
type Portfolio struct {
	id        uuid.UUID
	userID    string
	name      string
	createdAt time.Time
}

// NewPortfolio creates a portfolio with a fresh id.
func NewPortfolio(userID, name string, createdAt time.Time) (Portfolio, error) {
	return RestorePortfolio(uuid.New(), userID, name, createdAt)
}

// RestorePortfolio rebuilds a stored portfolio, validating its fields.
func RestorePortfolio(id uuid.UUID, userID, name string, createdAt time.Time) (Portfolio, error) {
	userID, name = strings.TrimSpace(userID), strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case id == uuid.Nil:
		return Portfolio{}, fmt.Errorf("%w: id is required", ErrInvalidPortfolio)
	case userID == "":
		return Portfolio{}, fmt.Errorf("%w: user id is required", ErrInvalidPortfolio)
	case n == 0:
		return Portfolio{}, fmt.Errorf("%w: name is required", ErrInvalidPortfolio)
	case n > MaxPortfolioNameLength:
		return Portfolio{}, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPortfolio, MaxPortfolioNameLength)
	case createdAt.IsZero():
		return Portfolio{}, fmt.Errorf("%w: creation time is required", ErrInvalidPortfolio)
	}
	return Portfolio{id: id, userID: userID, name: name, createdAt: createdAt.UTC()}, nil
}

func (p Portfolio) ID() uuid.UUID        { return p.id }
func (p Portfolio) UserID() string       { return p.userID }
func (p Portfolio) Name() string         { return p.name }
func (p Portfolio) CreatedAt() time.Time { return p.createdAt }
