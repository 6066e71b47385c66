package orderbook

import (
	"sort"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// Book holds both sides of one market.
type Book struct {
	Pair Pair
	Bids *RBTree
	Asks *RBTree
}

func NewBook(pair Pair) *Book {
	return &Book{Pair: pair, Bids: NewRBTree(), Asks: NewRBTree()}
}

// BestBid is the highest resting buy level, nil on an empty side.
func (b *Book) BestBid() *PriceLevel { return b.Bids.MaxLevel() }

// BestAsk is the lowest resting sell level, nil on an empty side.
func (b *Book) BestAsk() *PriceLevel { return b.Asks.MinLevel() }

func (b *Book) side(s Side) *RBTree {
	if s == Buy {
		return b.Bids
	}
	return b.Asks
}

func (b *Book) insert(o *Order) {
	b.side(o.Side).UpsertLevel(o.Price).Enqueue(o)
}

func (b *Book) remove(o *Order) {
	tree := b.side(o.Side)
	lvl := tree.FindLevel(o.Price)
	if lvl == nil {
		return
	}
	lvl.Unlink(o)
	if lvl.Empty() {
		tree.DeleteLevel(o.Price)
	}
}

// LevelView is one aggregated depth row for queries and snapshots.
type LevelView struct {
	Price    Price
	TotalQty assets.Balance
	Orders   int
}

// Ledger owns every market's book plus the flat order index. Ids and
// arrival sequence numbers come from its counters, so placement order
// is total and replay reproduces it exactly.
type Ledger struct {
	books  map[Pair]*Book
	orders map[OrderID]*Order

	nextID  OrderID
	nextSeq uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		books:   make(map[Pair]*Book),
		orders:  make(map[OrderID]*Order),
		nextID:  1,
		nextSeq: 1,
	}
}

// CreatePair registers a new market. The quote asset must sort strictly
// below the base asset, which rules out self-pairs and swapped
// duplicates of an existing market.
func (l *Ledger) CreatePair(base, quote assets.Asset) (Pair, error) {
	if !quote.Less(base) {
		return Pair{}, ErrInvalidPair
	}
	p := Pair{Base: base, Quote: quote}
	if _, ok := l.books[p]; ok {
		return Pair{}, ErrPairExists
	}
	l.books[p] = NewBook(p)
	return p, nil
}

func (l *Ledger) Book(pair Pair) (*Book, bool) {
	b, ok := l.books[pair]
	return b, ok
}

// Pairs lists all markets in canonical order.
func (l *Ledger) Pairs() []Pair {
	out := make([]Pair, 0, len(l.books))
	for p := range l.books {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Order looks an order up by id.
func (l *Ledger) Order(id OrderID) (*Order, bool) {
	o, ok := l.orders[id]
	return o, ok
}

// Orders returns every resting order sorted by id. Because ids and
// sequence numbers advance together, this is also arrival order.
func (l *Ledger) Orders() []*Order {
	out := make([]*Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Ledger) OrderCount() int { return len(l.orders) }

// Counters exposes the id and sequence cursors for state encoding.
func (l *Ledger) Counters() (OrderID, uint64) { return l.nextID, l.nextSeq }

func (l *Ledger) allocate() (OrderID, uint64) {
	id, seq := l.nextID, l.nextSeq
	l.nextID++
	l.nextSeq++
	return id, seq
}

func (l *Ledger) insert(o *Order, book *Book) {
	book.insert(o)
	l.orders[o.ID] = o
}

func (l *Ledger) remove(o *Order) {
	if book, ok := l.books[o.Pair]; ok {
		book.remove(o)
	}
	delete(l.orders, o.ID)
}

// RestorePair reinstates a market when rebuilding state.
func (l *Ledger) RestorePair(pair Pair) {
	if _, ok := l.books[pair]; !ok {
		l.books[pair] = NewBook(pair)
	}
}

// RestoreOrder reinstates a resting order when rebuilding state. Orders
// must be restored in ascending id order so level queues regain their
// original FIFO sequence; counters advance past everything seen.
func (l *Ledger) RestoreOrder(o *Order) {
	l.RestorePair(o.Pair)
	l.insert(o, l.books[o.Pair])
	if o.ID >= l.nextID {
		l.nextID = o.ID + 1
	}
	if o.Seq >= l.nextSeq {
		l.nextSeq = o.Seq + 1
	}
}

// SetCounters overrides the cursors, used after a full state decode.
func (l *Ledger) SetCounters(nextID OrderID, nextSeq uint64) {
	l.nextID = nextID
	l.nextSeq = nextSeq
}

// Depth aggregates up to maxLevels rows per side, bids descending and
// asks ascending from the touch.
func (l *Ledger) Depth(pair Pair, maxLevels int) (bids, asks []LevelView, err error) {
	book, ok := l.books[pair]
	if !ok {
		return nil, nil, ErrUnknownPair
	}
	book.Bids.ForEachDescending(func(lvl *PriceLevel) bool {
		bids = append(bids, LevelView{Price: lvl.Price, TotalQty: lvl.TotalQty, Orders: lvl.OrderCount})
		return maxLevels <= 0 || len(bids) < maxLevels
	})
	book.Asks.ForEachAscending(func(lvl *PriceLevel) bool {
		asks = append(asks, LevelView{Price: lvl.Price, TotalQty: lvl.TotalQty, Orders: lvl.OrderCount})
		return maxLevels <= 0 || len(asks) < maxLevels
	})
	return bids, asks, nil
}
