package orderbook

import "errors"

var (
	// ErrInvalidPair means the pair is self-referential or not in
	// canonical orientation.
	ErrInvalidPair = errors.New("orderbook: invalid pair")
	ErrPairExists  = errors.New("orderbook: pair already exists")
	ErrUnknownPair = errors.New("orderbook: unknown pair")

	ErrZeroAmount = errors.New("orderbook: zero amount")
	ErrZeroPrice  = errors.New("orderbook: zero price")
	// ErrCostOverflow means price*amount does not fit a balance, so the
	// order's quote commitment is unrepresentable.
	ErrCostOverflow = errors.New("orderbook: order cost overflows")

	ErrUnknownOrder = errors.New("orderbook: unknown order")
	// ErrNotOwner rejects cancels signed by anyone but the order owner.
	ErrNotOwner = errors.New("orderbook: not order owner")
)
