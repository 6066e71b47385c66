package xcmp

import "errors"

var (
	// ErrAlreadyOpen rejects an open of a channel that completed its
	// handshake.
	ErrAlreadyOpen = errors.New("xcmp: channel already open")
	// ErrChannelNotOpen rejects sends on a channel that is not Open.
	ErrChannelNotOpen = errors.New("xcmp: channel not open")
	// ErrChannelClosed rejects reopening a closed channel.
	ErrChannelClosed = errors.New("xcmp: channel closed")
	// ErrQueueFull is the backpressure signal: the bounded outbound
	// queue is at capacity and the caller must retry in a later block.
	ErrQueueFull = errors.New("xcmp: outbound queue full")
	// ErrOrderingViolation marks an inbound sequence gap or replay; the
	// channel it happened on is suspended.
	ErrOrderingViolation = errors.New("xcmp: inbound sequence violation")
	// ErrUnknownChannel rejects inbound traffic from a peer with no
	// channel record at all.
	ErrUnknownChannel = errors.New("xcmp: unknown channel")
	// ErrUnknownKind marks a payload kind this runtime cannot route.
	ErrUnknownKind = errors.New("xcmp: unknown payload kind")
)
