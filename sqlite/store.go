// Package sqlite stores portfolios and their ledgers in a SQLite database,
// using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/etnz/papertrade"
)

//go:embed schema.sql
var schema string

// Store is a papertrade.Store backed by SQLite.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ papertrade.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema. The
// special path ":memory:" opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes the appends of this process and keeps a
	// ":memory:" database alive.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, log: log.With().Str("store", path).Logger()}, nil
}

// connectionString builds the ledger profile: WAL, full fsync, foreign keys on.
func connectionString(path string) string {
	connStr := path + "?_pragma=foreign_keys(1)"
	connStr += "&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		connStr += "&_pragma=journal_mode(WAL)"
		connStr += "&_pragma=synchronous(FULL)"
	}
	return connStr
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreatePortfolio(ctx context.Context, p papertrade.Portfolio) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolios (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		p.ID().String(), p.UserID(), p.Name(), p.CreatedAt().Format(time.RFC3339Nano))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", papertrade.ErrDuplicatePortfolio, p.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	s.log.Info().Str("portfolio", p.ID().String()).Str("name", p.Name()).Msg("portfolio created")
	return nil
}

func scanPortfolio(row interface{ Scan(...any) error }) (papertrade.Portfolio, error) {
	var id, user, name, created string
	if err := row.Scan(&id, &user, &name, &created); err != nil {
		return papertrade.Portfolio{}, err
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return papertrade.Portfolio{}, fmt.Errorf("portfolio id %q: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return papertrade.Portfolio{}, fmt.Errorf("portfolio %s created_at: %w", id, err)
	}
	return papertrade.RestorePortfolio(pid, user, name, createdAt)
}

func (s *Store) Portfolio(ctx context.Context, id uuid.UUID) (papertrade.Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, name, created_at FROM portfolios WHERE id = ?`, id.String())
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return papertrade.Portfolio{}, fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, id)
	}
	return p, err
}

func (s *Store) Portfolios(ctx context.Context, userID string) ([]papertrade.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM portfolios WHERE ? = '' OR user_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var ps []papertrade.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	papertrade.SortPortfolios(ps)
	return ps, nil
}

func (s *Store) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, id)
	}
	s.log.Info().Str("portfolio", id.String()).Msg("portfolio deleted")
	return nil
}

func (s *Store) Transactions(ctx context.Context, portfolioID uuid.UUID) ([]papertrade.Transaction, papertrade.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	if err := portfolioExists(ctx, tx, portfolioID); err != nil {
		return nil, 0, err
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT id, portfolio_id, seq, type, timestamp, cash_change, currency, ticker, quantity, price_per_share, notes
		FROM transactions WHERE portfolio_id = ? ORDER BY seq`, portfolioID.String())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []papertrade.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return txs, papertrade.Version(len(txs)), nil
}

func (s *Store) Append(ctx context.Context, t papertrade.Transaction, expected papertrade.Version) (papertrade.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := portfolioExists(ctx, tx, t.PortfolioID()); err != nil {
		return 0, err
	}
	var dup int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, t.ID().String()).Scan(&dup)
	if err != nil {
		return 0, err
	}
	if dup > 0 {
		return 0, fmt.Errorf("%w: %s", papertrade.ErrDuplicateEntry, t.ID())
	}
	var current papertrade.Version
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`, t.PortfolioID().String()).Scan(&current)
	if err != nil {
		return 0, err
	}
	if err := papertrade.CheckAppend(t, current, expected); err != nil {
		return 0, err
	}

	r := papertrade.RecordOf(t)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, portfolio_id, seq, type, timestamp, cash_change, currency, ticker, quantity, price_per_share, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.PortfolioID.String(), r.Sequence, string(r.Type), r.Timestamp.Format(time.RFC3339Nano),
		r.CashChange.String(), r.Currency, r.Ticker, decimalOrNil(r.Quantity), decimalOrNil(r.PricePerShare), r.Notes)
	if isUniqueViolation(err) || isBusy(err) {
		// Another process appended first.
		return 0, fmt.Errorf("%w: %v", papertrade.ErrVersionConflict, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return 0, fmt.Errorf("%w: %v", papertrade.ErrVersionConflict, err)
		}
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return current + 1, nil
}

func portfolioExists(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolios WHERE id = ?`, id.String()).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", papertrade.ErrPortfolioNotFound, id)
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (papertrade.Transaction, error) {
	var (
		id, pid, typ, ts, cash, currency, notes string
		seq                                     int64
		ticker, quantity, price                 sql.NullString
	)
	if err := rows.Scan(&id, &pid, &seq, &typ, &ts, &cash, &currency, &ticker, &quantity, &price, &notes); err != nil {
		return nil, err
	}
	r := papertrade.Record{Type: papertrade.TransactionType(typ), Sequence: seq, Currency: currency, Notes: notes}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("transaction id %q: %w", id, err)
	}
	if r.PortfolioID, err = uuid.Parse(pid); err != nil {
		return nil, fmt.Errorf("transaction %s portfolio id: %w", id, err)
	}
	if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return nil, fmt.Errorf("transaction %s timestamp: %w", id, err)
	}
	if r.CashChange, err = decimal.NewFromString(cash); err != nil {
		return nil, fmt.Errorf("transaction %s cash change: %w", id, err)
	}
	if ticker.Valid {
		r.Ticker = &ticker.String
	}
	if r.Quantity, err = nullDecimal(quantity); err != nil {
		return nil, fmt.Errorf("transaction %s quantity: %w", id, err)
	}
	if r.PricePerShare, err = nullDecimal(price); err != nil {
		return nil, fmt.Errorf("transaction %s price: %w", id, err)
	}
	t, err := papertrade.NewTransaction(r)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", id, err)
	}
	return t, nil
}

func nullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isBusy(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked"))
}
