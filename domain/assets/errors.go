package assets

import "errors"

var (
	// ErrInsufficientFree means the free balance cannot cover a debit or
	// reservation.
	ErrInsufficientFree = errors.New("assets: insufficient free balance")
	// ErrInsufficientReserved means a release or settlement asked for
	// more than is held in reserve.
	ErrInsufficientReserved = errors.New("assets: insufficient reserved balance")
	// ErrOverflow means a credit would push an account past the
	// representable maximum.
	ErrOverflow = errors.New("assets: balance overflow")
)
