// Package orderbook implements the on-chain limit order books and the
// matching engine that crosses them. Each trading pair keeps two
// red-black trees of price levels, bids and asks, with FIFO order
// queues per level so execution follows strict price-time priority.
//
// Matching runs in two phases. Submit first plans the full outcome
// against current state without mutating anything; only when every
// debit, credit and reservation is known to succeed does it commit.
// A returned error therefore guarantees untouched state, which is what
// lets validators replay blocks to byte-identical results. All amounts
// are planck-denominated integers and every quote cost is an exact
// price*amount product, so no value is created or destroyed by
// rounding.
package orderbook
