package orderbook

import (
	"fmt"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// OrderID identifies an order for its whole life. Ids are assigned from
// a monotonic counter and never reused.
type OrderID uint64

// Price is the quote-asset cost of one base planck. A trade of amount
// base plancks at price p settles exactly p*amount quote plancks.
type Price uint64

type Side uint8

const (
	Buy  Side = 0
	Sell Side = 1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Opposite returns the side a taker crosses against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// TimeInForce controls what happens to the unmatched remainder of a
// submission.
type TimeInForce uint8

const (
	// GTC rests the remainder on the book.
	GTC TimeInForce = 0
	// IOC cancels the remainder and refunds its reservation.
	IOC TimeInForce = 1
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "gtc"
	case IOC:
		return "ioc"
	default:
		return fmt.Sprintf("tif(%d)", uint8(t))
	}
}

// Pair is a directed trading pair: prices are quoted in Quote per Base
// planck. Pairs only exist in canonical orientation, Quote strictly
// below Base in asset order, so a market cannot exist twice under
// swapped roles.
type Pair struct {
	Base  assets.Asset
	Quote assets.Asset
}

func (p Pair) String() string {
	return p.Base.String() + "/" + p.Quote.String()
}

func (p Pair) Less(q Pair) bool {
	if p.Base != q.Base {
		return p.Base.Less(q.Base)
	}
	return p.Quote.Less(q.Quote)
}

func (p Pair) Encode(w *codec.Writer) {
	p.Base.Encode(w)
	p.Quote.Encode(w)
}

func DecodePair(r *codec.Reader) Pair {
	base := assets.DecodeAsset(r)
	quote := assets.DecodeAsset(r)
	return Pair{Base: base, Quote: quote}
}

// Order is a resting limit order. Remaining counts unfilled base
// plancks; for buys, QuoteReserved is the exact quote amount still
// locked behind it. Seq is the book-wide arrival number that breaks
// price ties.
type Order struct {
	ID            OrderID
	Owner         assets.AccountID
	Pair          Pair
	Side          Side
	Price         Price
	Remaining     assets.Balance
	QuoteReserved assets.Balance
	Seq           uint64

	next, prev *Order
}

// Next walks the FIFO queue of the order's price level.
func (o *Order) Next() *Order { return o.next }

func (o *Order) Encode(w *codec.Writer) {
	w.PutU64(uint64(o.ID))
	w.PutRaw(o.Owner[:])
	o.Pair.Encode(w)
	w.PutU8(byte(o.Side))
	w.PutU64(uint64(o.Price))
	w.PutU64(uint64(o.Remaining))
	w.PutU64(uint64(o.QuoteReserved))
	w.PutU64(o.Seq)
}

func DecodeOrder(r *codec.Reader) *Order {
	o := &Order{}
	o.ID = OrderID(r.U64())
	o.Owner = r.Raw32()
	o.Pair = DecodePair(r)
	side := Side(r.U8())
	if side != Buy && side != Sell {
		r.FailTag()
	}
	o.Side = side
	o.Price = Price(r.U64())
	o.Remaining = assets.Balance(r.U64())
	o.QuoteReserved = assets.Balance(r.U64())
	o.Seq = r.U64()
	return o
}

// Trade is one execution between a resting maker and the incoming
// taker. Price is always the maker's price and Cost the exact quote
// amount moved. Fee was deducted from the taker's received side and
// paid to the treasury in FeeAsset. Height is stamped by the executor
// when the trade is recorded.
type Trade struct {
	Pair       Pair
	MakerOrder OrderID
	TakerOrder OrderID
	Maker      assets.AccountID
	Taker      assets.AccountID
	TakerSide  Side
	Price      Price
	Amount     assets.Balance
	Cost       assets.Balance
	Fee        assets.Balance
	FeeAsset   assets.Asset
	Height     uint64
}

func (t Trade) Encode(w *codec.Writer) {
	t.Pair.Encode(w)
	w.PutU64(uint64(t.MakerOrder))
	w.PutU64(uint64(t.TakerOrder))
	w.PutRaw(t.Maker[:])
	w.PutRaw(t.Taker[:])
	w.PutU8(byte(t.TakerSide))
	w.PutU64(uint64(t.Price))
	w.PutU64(uint64(t.Amount))
	w.PutU64(uint64(t.Cost))
	w.PutU64(uint64(t.Fee))
	t.FeeAsset.Encode(w)
	w.PutU64(t.Height)
}

func DecodeTrade(r *codec.Reader) Trade {
	var t Trade
	t.Pair = DecodePair(r)
	t.MakerOrder = OrderID(r.U64())
	t.TakerOrder = OrderID(r.U64())
	t.Maker = r.Raw32()
	t.Taker = r.Raw32()
	side := Side(r.U8())
	if side != Buy && side != Sell {
		r.FailTag()
	}
	t.TakerSide = side
	t.Price = Price(r.U64())
	t.Amount = assets.Balance(r.U64())
	t.Cost = assets.Balance(r.U64())
	t.Fee = assets.Balance(r.U64())
	t.FeeAsset = assets.DecodeAsset(r)
	t.Height = r.U64()
	return t
}
