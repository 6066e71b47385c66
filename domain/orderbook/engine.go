package orderbook

import (
	"fmt"
	"math/bits"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// FeeSchedule is the taker fee taken from the received amount of every
// fill and paid to the treasury. Num must stay below Den; a schedule
// without a treasury charges nothing.
type FeeSchedule struct {
	Num      uint64
	Den      uint64
	Treasury assets.AccountID
	Enabled  bool
}

// FeeOn returns floor(amount*Num/Den).
func (f FeeSchedule) FeeOn(amount assets.Balance) assets.Balance {
	if !f.Enabled || f.Num == 0 || amount == 0 {
		return 0
	}
	// Num < Den keeps hi below the divisor, so Div64 cannot trap and
	// the quotient fits.
	hi, lo := bits.Mul64(uint64(amount), f.Num)
	q, _ := bits.Div64(hi, lo, f.Den)
	return assets.Balance(q)
}

// Engine crosses submissions against the books and settles the value
// moves on the balance ledger. It is the only writer of reservations:
// place reserves the full commitment, fills consume it at maker prices,
// cancel and price improvement refund it.
type Engine struct {
	ledger   *Ledger
	balances *assets.Ledger
	fee      FeeSchedule
}

func NewEngine(ledger *Ledger, balances *assets.Ledger, fee FeeSchedule) *Engine {
	return &Engine{ledger: ledger, balances: balances, fee: fee}
}

// Submission is an incoming limit order before it has an id.
type Submission struct {
	Owner  assets.AccountID
	Pair   Pair
	Side   Side
	Price  Price
	Amount assets.Balance
	TIF    TimeInForce
}

// Result reports what a submission did. Remaining is the unfilled base
// amount; Rested tells whether that remainder is now on the book.
type Result struct {
	OrderID   OrderID
	Trades    []Trade
	Remaining assets.Balance
	Rested    bool
}

type fill struct {
	maker  *Order
	level  *PriceLevel
	amount assets.Balance
	cost   assets.Balance
	fee    assets.Balance
}

type creditKey struct {
	account assets.AccountID
	asset   assets.Asset
}

// Submit validates, matches and settles one order. The plan phase
// walks the opposite side in price-time order and proves every debit,
// credit and reservation against current balances; only then does the
// commit phase mutate ledger and book. An error return means nothing
// changed.
func (e *Engine) Submit(sub Submission) (*Result, error) {
	book, ok := e.ledger.Book(sub.Pair)
	if !ok {
		return nil, ErrUnknownPair
	}
	if sub.Amount == 0 {
		return nil, ErrZeroAmount
	}
	if sub.Price == 0 {
		return nil, ErrZeroPrice
	}

	// Full upfront commitment: quote at the limit price for buys, base
	// for sells.
	var commitAsset assets.Asset
	var commitAmount assets.Balance
	if sub.Side == Buy {
		cost, ok := assets.MulBalance(assets.Balance(sub.Price), sub.Amount)
		if !ok {
			return nil, ErrCostOverflow
		}
		commitAsset, commitAmount = sub.Pair.Quote, cost
	} else {
		commitAsset, commitAmount = sub.Pair.Base, sub.Amount
	}
	if e.balances.Get(sub.Owner, commitAsset).Free < commitAmount {
		return nil, assets.ErrInsufficientFree
	}

	fills, err := e.plan(book, sub)
	if err != nil {
		return nil, err
	}

	return e.commit(book, sub, commitAsset, commitAmount, fills), nil
}

// plan computes the exact fill list without mutating anything. It also
// accumulates every planned credit per (account, asset) and verifies
// the receiver can hold it, so commit cannot fail on any transfer.
func (e *Engine) plan(book *Book, sub Submission) ([]fill, error) {
	base, quote := book.Pair.Base, book.Pair.Quote
	remaining := sub.Amount
	var fills []fill
	var planErr error

	credits := make(map[creditKey]assets.Balance)
	addCredit := func(acct assets.AccountID, asset assets.Asset, amt assets.Balance) bool {
		if amt == 0 {
			return true
		}
		k := creditKey{acct, asset}
		sum, ok := assets.AddBalance(credits[k], amt)
		if !ok {
			return false
		}
		credits[k] = sum
		return true
	}

	walk := func(lvl *PriceLevel) bool {
		if sub.Side == Buy && lvl.Price > sub.Price {
			return false
		}
		if sub.Side == Sell && lvl.Price < sub.Price {
			return false
		}
		for o := lvl.Head(); o != nil && remaining > 0; o = o.Next() {
			q := min(remaining, o.Remaining)
			cost, ok := assets.MulBalance(assets.Balance(lvl.Price), q)
			if !ok {
				planErr = ErrCostOverflow
				return false
			}
			var f fill
			if sub.Side == Buy {
				fee := e.fee.FeeOn(q)
				ok = addCredit(sub.Owner, base, q-fee) &&
					addCredit(e.fee.Treasury, base, fee) &&
					addCredit(o.Owner, quote, cost)
				f = fill{maker: o, level: lvl, amount: q, cost: cost, fee: fee}
			} else {
				fee := e.fee.FeeOn(cost)
				ok = addCredit(sub.Owner, quote, cost-fee) &&
					addCredit(e.fee.Treasury, quote, fee) &&
					addCredit(o.Owner, base, q)
				f = fill{maker: o, level: lvl, amount: q, cost: cost, fee: fee}
			}
			if !ok {
				planErr = assets.ErrOverflow
				return false
			}
			fills = append(fills, f)
			remaining -= q
		}
		return remaining > 0
	}

	if sub.Side == Buy {
		book.Asks.ForEachAscending(walk)
	} else {
		book.Bids.ForEachDescending(walk)
	}
	if planErr != nil {
		return nil, planErr
	}
	for k, total := range credits {
		if !e.balances.CanHold(k.account, k.asset, total) {
			return nil, assets.ErrOverflow
		}
	}
	return fills, nil
}

// commit applies a fully validated plan. Any ledger error past this
// point is a broken invariant, not a recoverable condition.
func (e *Engine) commit(book *Book, sub Submission, commitAsset assets.Asset, commitAmount assets.Balance, fills []fill) *Result {
	base, quote := book.Pair.Base, book.Pair.Quote
	id, seq := e.ledger.allocate()

	mustSettle := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("orderbook: settlement failed after plan: %v", err))
		}
	}
	mustSettle(e.balances.Reserve(sub.Owner, commitAsset, commitAmount))
	reservedLeft := commitAmount

	trades := make([]Trade, 0, len(fills))
	remaining := sub.Amount
	for _, f := range fills {
		maker := f.maker
		if sub.Side == Buy {
			mustSettle(e.balances.SettleReserved(sub.Owner, maker.Owner, quote, f.cost))
			reservedLeft -= f.cost
			mustSettle(e.balances.SettleReserved(maker.Owner, sub.Owner, base, f.amount-f.fee))
			if f.fee > 0 {
				mustSettle(e.balances.SettleReserved(maker.Owner, e.fee.Treasury, base, f.fee))
			}
		} else {
			mustSettle(e.balances.SettleReserved(maker.Owner, sub.Owner, quote, f.cost-f.fee))
			if f.fee > 0 {
				mustSettle(e.balances.SettleReserved(maker.Owner, e.fee.Treasury, quote, f.fee))
			}
			maker.QuoteReserved -= f.cost
			mustSettle(e.balances.SettleReserved(sub.Owner, maker.Owner, base, f.amount))
			reservedLeft -= f.amount
		}

		f.level.Reduce(maker, f.amount)
		remaining -= f.amount

		if maker.Remaining == 0 {
			if maker.Side == Buy && maker.QuoteReserved > 0 {
				mustSettle(e.balances.Release(maker.Owner, quote, maker.QuoteReserved))
				maker.QuoteReserved = 0
			}
			e.ledger.remove(maker)
		}

		feeAsset := base
		if sub.Side == Sell {
			feeAsset = quote
		}
		trades = append(trades, Trade{
			Pair:       book.Pair,
			MakerOrder: maker.ID,
			TakerOrder: id,
			Maker:      maker.Owner,
			Taker:      sub.Owner,
			TakerSide:  sub.Side,
			Price:      f.level.Price,
			Amount:     f.amount,
			Cost:       f.cost,
			Fee:        f.fee,
			FeeAsset:   feeAsset,
		})
	}

	rested := false
	if remaining > 0 && sub.TIF == GTC {
		o := &Order{
			ID:        id,
			Owner:     sub.Owner,
			Pair:      sub.Pair,
			Side:      sub.Side,
			Price:     sub.Price,
			Remaining: remaining,
			Seq:       seq,
		}
		if sub.Side == Buy {
			// The resting part keeps exactly limit*remaining; the
			// price improvement collected so far goes back.
			needed, _ := assets.MulBalance(assets.Balance(sub.Price), remaining)
			if refund := reservedLeft - needed; refund > 0 {
				mustSettle(e.balances.Release(sub.Owner, quote, refund))
			}
			o.QuoteReserved = needed
		}
		e.ledger.insert(o, book)
		rested = true
	} else if reservedLeft > 0 {
		mustSettle(e.balances.Release(sub.Owner, commitAsset, reservedLeft))
	}

	return &Result{OrderID: id, Trades: trades, Remaining: remaining, Rested: rested}
}

// Cancel removes a resting order and refunds its reservation. Only the
// owner may cancel.
func (e *Engine) Cancel(owner assets.AccountID, id OrderID) (*Order, error) {
	o, ok := e.ledger.Order(id)
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.Owner != owner {
		return nil, ErrNotOwner
	}
	e.ledger.remove(o)
	var err error
	if o.Side == Buy {
		if o.QuoteReserved > 0 {
			err = e.balances.Release(owner, o.Pair.Quote, o.QuoteReserved)
		}
	} else {
		err = e.balances.Release(owner, o.Pair.Base, o.Remaining)
	}
	if err != nil {
		panic(fmt.Sprintf("orderbook: cancel refund failed: %v", err))
	}
	return o, nil
}
