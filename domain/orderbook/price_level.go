package orderbook

import "github.com/subdarkdex/subdex-parachain/domain/assets"

// PriceLevel is the FIFO queue of resting orders at a single price.
// TotalQty tracks the sum of Remaining across the queue and is kept
// exact through partial fills.
type PriceLevel struct {
	Price Price

	head *Order
	tail *Order

	TotalQty   assets.Balance
	OrderCount int
}

func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.TotalQty += o.Remaining
	p.OrderCount++
}

// Reduce records a partial fill of amount against o.
func (p *PriceLevel) Reduce(o *Order, amount assets.Balance) {
	o.Remaining -= amount
	p.TotalQty -= amount
}

// Unlink removes o from the queue. The caller updates the tree if the
// level drained.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	p.TotalQty -= o.Remaining
	p.OrderCount--
}

func (p *PriceLevel) Empty() bool { return p.head == nil }

// Head is the oldest order at this price, first to match.
func (p *PriceLevel) Head() *Order { return p.head }
