package papertrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the number of times a command is tried when other
// writers keep appending to the same ledger.
const DefaultMaxAttempts = 3

// TraderOptions tune a Trader. Zero fields take their default.
type TraderOptions struct {
	MaxAttempts int              // defaults to DefaultMaxAttempts
	Now         func() time.Time // defaults to time.Now
	NewID       func() uuid.UUID // defaults to uuid.New
}

// Trader executes commands against a Repository: it reads the ledger, validates
// the order with a Calculator and appends the resulting entry at the version it
// read. On a version conflict the whole cycle is retried on fresh data.
type Trader struct {
	repo Repository
	calc Calculator
	log  zerolog.Logger
	opts TraderOptions
}

// NewTrader returns a Trader appending to repo.
func NewTrader(repo Repository, calc Calculator, log zerolog.Logger, opts TraderOptions) *Trader {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	return &Trader{repo: repo, calc: calc, log: log, opts: opts}
}

// Deposit adds amount of cash to the portfolio.
func (t *Trader) Deposit(ctx context.Context, portfolioID uuid.UUID, amount Money, notes string) (Deposit, error) {
	tx, err := t.execute(ctx, portfolioID, TypeDeposit, func(history []Transaction, meta Meta) (Transaction, error) {
		meta.Notes = notes
		return orNil(t.calc.ValidateDeposit(history, DepositOrder{Meta: meta, Amount: amount}))
	})
	if err != nil {
		return Deposit{}, err
	}
	return tx.(Deposit), nil
}

// Withdraw takes amount of cash out of the portfolio.
func (t *Trader) Withdraw(ctx context.Context, portfolioID uuid.UUID, amount Money, notes string) (Withdrawal, error) {
	tx, err := t.execute(ctx, portfolioID, TypeWithdrawal, func(history []Transaction, meta Meta) (Transaction, error) {
		meta.Notes = notes
		return orNil(t.calc.ValidateWithdraw(history, WithdrawOrder{Meta: meta, Amount: amount}))
	})
	if err != nil {
		return Withdrawal{}, err
	}
	return tx.(Withdrawal), nil
}

// Buy purchases quantity shares of ticker at price.
func (t *Trader) Buy(ctx context.Context, portfolioID uuid.UUID, ticker Ticker, quantity Quantity, price Money, notes string) (Buy, error) {
	tx, err := t.execute(ctx, portfolioID, TypeBuy, func(history []Transaction, meta Meta) (Transaction, error) {
		meta.Notes = notes
		return orNil(t.calc.ValidateBuy(history, BuyOrder{Meta: meta, Ticker: ticker, Quantity: quantity, Price: price}))
	})
	if err != nil {
		return Buy{}, err
	}
	return tx.(Buy), nil
}

// Sell sells quantity shares of ticker at price.
func (t *Trader) Sell(ctx context.Context, portfolioID uuid.UUID, ticker Ticker, quantity Quantity, price Money, notes string) (Sell, error) {
	tx, err := t.execute(ctx, portfolioID, TypeSell, func(history []Transaction, meta Meta) (Transaction, error) {
		meta.Notes = notes
		return orNil(t.calc.ValidateSell(history, SellOrder{Meta: meta, Ticker: ticker, Quantity: quantity, Price: price}))
	})
	if err != nil {
		return Sell{}, err
	}
	return tx.(Sell), nil
}

// Import replays entries, typically read from an export, into the portfolio.
// Entries keep their id, timestamp and notes but are renumbered after the
// current ledger, and each one goes through the same business rules as a new
// command. Entries must not predate the ledger. It returns the number of entries
// appended before the first failure.
func (t *Trader) Import(ctx context.Context, portfolioID uuid.UUID, txs []Transaction) (int, error) {
	for i, src := range Chronological(txs) {
		_, err := t.execute(ctx, portfolioID, src.Type(), func(history []Transaction, meta Meta) (Transaction, error) {
			if latest := latestTimestamp(history); src.Timestamp().Before(latest) {
				return nil, fmt.Errorf("%w: %s entry %s at %s predates the ledger (%s)",
					ErrInvalidTransaction, src.Type(), src.ID(), src.Timestamp().Format(time.RFC3339), latest.Format(time.RFC3339))
			}
			rec := RecordOf(src)
			rec.PortfolioID, rec.Sequence = meta.PortfolioID, meta.Sequence
			tx, err := NewTransaction(rec)
			if err != nil {
				return nil, err
			}
			if err := t.calc.Admit(history, tx); err != nil {
				return nil, err
			}
			return tx, nil
		})
		if err != nil {
			return i, fmt.Errorf("import entry %d (%s): %w", i+1, src.ID(), err)
		}
	}
	return len(txs), nil
}

// execute runs the read, validate and append cycle for one command.
func (t *Trader) execute(ctx context.Context, portfolioID uuid.UUID, typ TransactionType, build func(history []Transaction, meta Meta) (Transaction, error)) (Transaction, error) {
	log := t.log.With().Str("portfolio", portfolioID.String()).Str("type", string(typ)).Logger()
	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		history, version, err := t.repo.Transactions(ctx, portfolioID)
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		meta := Meta{
			ID:          t.opts.NewID(),
			PortfolioID: portfolioID,
			Timestamp:   t.timestamp(history),
			Sequence:    int64(version) + 1,
		}
		tx, err := build(history, meta)
		if err != nil {
			log.Debug().Err(err).Msg("command rejected")
			return nil, err
		}
		if _, err := t.repo.Append(ctx, tx, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				log.Warn().Int("attempt", attempt).Int64("version", int64(version)).Msg("ledger changed, retrying")
				continue
			}
			return nil, fmt.Errorf("append %s entry: %w", typ, err)
		}
		log.Info().Str("id", tx.ID().String()).Int64("seq", tx.Sequence()).Str("cash", tx.CashChange().String()).Msg("entry appended")
		return tx, nil
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrVersionConflict, t.opts.MaxAttempts)
}

// timestamp returns the time of a new entry: now, unless the ledger already
// holds a later entry, so that new entries never sort before existing ones.
func (t *Trader) timestamp(history []Transaction) time.Time {
	now := t.opts.Now().UTC()
	if latest := latestTimestamp(history); now.Before(latest) {
		return latest
	}
	return now
}

func latestTimestamp(history []Transaction) time.Time {
	var latest time.Time
	for _, tx := range history {
		if tx.Timestamp().After(latest) {
			latest = tx.Timestamp()
		}
	}
	return latest
}
