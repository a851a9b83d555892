package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/papertrade"
)

var epoch = time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) (*Store, papertrade.Portfolio) {
	t.Helper()
	store, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := papertrade.NewPortfolio("alice", "Paper", epoch)
	require.NoError(t, err)
	require.NoError(t, store.CreatePortfolio(context.Background(), p))
	return store, p
}

func meta(pid uuid.UUID, seq int64) papertrade.Meta {
	return papertrade.Meta{ID: uuid.New(), PortfolioID: pid, Timestamp: epoch.Add(time.Duration(seq) * time.Minute), Sequence: seq}
}

func usd(v string) papertrade.Money { return papertrade.MustMoney(v, "USD") }

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, p := setupStore(t)
	aapl := papertrade.MustTicker("AAPL")
	q := papertrade.MustQuantity("1.5")

	deposit, err := papertrade.NewDeposit(meta(p.ID(), 1), usd("1000"))
	require.NoError(t, err)
	buy, err := papertrade.NewBuy(meta(p.ID(), 2), aapl, q, usd("100.10"), usd("-150.15"))
	require.NoError(t, err)
	m := meta(p.ID(), 3)
	m.Notes = "taking profits"
	sell, err := papertrade.NewSell(m, aapl, papertrade.MustQuantity("0.5"), usd("120"), usd("60"))
	require.NoError(t, err)

	for i, tx := range []papertrade.Transaction{deposit, buy, sell} {
		v, err := store.Append(ctx, tx, papertrade.Version(i))
		require.NoError(t, err)
		assert.Equal(t, papertrade.Version(i+1), v)
	}

	txs, v, err := store.Transactions(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, papertrade.Version(3), v)
	require.Len(t, txs, 3)
	assert.True(t, txs[0].Equal(deposit))
	assert.True(t, txs[1].Equal(buy))
	assert.True(t, txs[2].Equal(sell))
	assert.Equal(t, "taking profits", txs[2].Notes())
}

func TestStore_AppendContract(t *testing.T) {
	ctx := context.Background()
	store, p := setupStore(t)

	first, err := papertrade.NewDeposit(meta(p.ID(), 1), usd("10"))
	require.NoError(t, err)
	_, err = store.Append(ctx, first, 0)
	require.NoError(t, err)

	_, err = store.Append(ctx, first, 1)
	assert.ErrorIs(t, err, papertrade.ErrDuplicateEntry)

	stale, err := papertrade.NewDeposit(meta(p.ID(), 2), usd("10"))
	require.NoError(t, err)
	_, err = store.Append(ctx, stale, 0)
	assert.ErrorIs(t, err, papertrade.ErrVersionConflict)

	orphan, err := papertrade.NewDeposit(meta(uuid.New(), 1), usd("10"))
	require.NoError(t, err)
	_, err = store.Append(ctx, orphan, 0)
	assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)
}

func TestStore_Catalog(t *testing.T) {
	ctx := context.Background()
	store, p := setupStore(t)

	assert.ErrorIs(t, store.CreatePortfolio(ctx, p), papertrade.ErrDuplicatePortfolio)

	other, err := papertrade.NewPortfolio("bob", "Bob", epoch.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.CreatePortfolio(ctx, other))

	all, err := store.Portfolios(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ID(), all[0].ID(), "oldest first")

	alices, err := store.Portfolios(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alices, 1)
	assert.Equal(t, "Paper", alices[0].Name())

	dep, err := papertrade.NewDeposit(meta(p.ID(), 1), usd("10"))
	require.NoError(t, err)
	_, err = store.Append(ctx, dep, 0)
	require.NoError(t, err)

	require.NoError(t, store.DeletePortfolio(ctx, p.ID()))
	_, err = store.Portfolio(ctx, p.ID())
	assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)
	_, _, err = store.Transactions(ctx, p.ID())
	assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)
	assert.ErrorIs(t, store.DeletePortfolio(ctx, p.ID()), papertrade.ErrPortfolioNotFound)

	// The ledger went with the portfolio.
	require.NoError(t, store.CreatePortfolio(ctx, p))
	txs, v, err := store.Transactions(ctx, p.ID())
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, papertrade.Version(0), v)
}

func TestStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "papertrade.db")
	store, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	p, err := papertrade.NewPortfolio("alice", "Paper", epoch)
	require.NoError(t, err)
	require.NoError(t, store.CreatePortfolio(ctx, p))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Portfolio(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, p.Name(), got.Name())
}

func TestStore_ConcurrentTraders(t *testing.T) {
	ctx := context.Background()
	store, p := setupStore(t)
	trader := papertrade.NewTrader(store, papertrade.Calculator{}, zerolog.Nop(), papertrade.TraderOptions{MaxAttempts: 50})

	_, err := trader.Deposit(ctx, p.ID(), usd("100"), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := trader.Withdraw(ctx, p.ID(), usd("30"), ""); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, papertrade.ErrBusinessRule)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)

	txs, _, err := store.Transactions(ctx, p.ID())
	require.NoError(t, err)
	cash, err := papertrade.Calculator{}.CashBalance(txs)
	require.NoError(t, err)
	assert.True(t, cash.Equal(usd("10")), "cash = %s", cash)
}
