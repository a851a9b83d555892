// Package papertrade keeps paper trading portfolios as append-only ledgers and
// derives their state from them.
//
// A portfolio is never updated in place. Every command (deposit, withdrawal,
// buy, sell) is validated against the current ledger and recorded as an
// immutable Transaction. Everything else is computed on demand by a stateless
// Calculator:
//   - Cash balance: the sum of every cash change.
//   - Holdings: quantity and weighted average cost basis per ticker.
//   - Valuation: holdings at a set of market prices, plus cash.
//   - Daily change: holdings valued at current versus previous prices.
//
// Amounts are exact decimals. Money carries at most two decimal places and a
// currency, Quantity at most four decimal places. Computed amounts are rounded
// half away from zero to two places, once per operation.
//
// Ledgers are stored behind the Repository interface. Appends are optimistic:
// a writer states the ledger version its decision was based on and a Trader
// retries the whole read, validate and append cycle when another writer got
// there first. MemoryRepository keeps ledgers in memory, the ledgerfile and
// sqlite packages persist them. Ledgers are exchanged as JSONL, one Record per
// line (see EncodeLedger and DecodeLedger).
package papertrade
