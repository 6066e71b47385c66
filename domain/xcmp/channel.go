package xcmp

import (
	"fmt"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

type ChannelStatus uint8

const (
	// StatusUninitialized means no handshake has happened.
	StatusUninitialized ChannelStatus = 0
	// StatusOpening means our open request is with the relay and not
	// yet acknowledged.
	StatusOpening ChannelStatus = 1
	StatusOpen    ChannelStatus = 2
	// StatusSuspended means an inbound ordering violation froze the
	// channel; it accepts and emits nothing further.
	StatusSuspended ChannelStatus = 3
	StatusClosed    ChannelStatus = 4
)

func (s ChannelStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusOpening:
		return "opening"
	case StatusOpen:
		return "open"
	case StatusSuspended:
		return "suspended"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Channel is the per-peer state. NextOutboundSeq is the sequence the
// next queued message will take; LastInboundSeq is the last inbound
// sequence applied. Outbound holds the current block's queued messages
// until finalization drains them, bounded by the manager's capacity.
type Channel struct {
	Peer            assets.ParaID
	Status          ChannelStatus
	NextOutboundSeq uint64
	LastInboundSeq  uint64
	Outbound        []Message
}

func newChannel(peer assets.ParaID) *Channel {
	return &Channel{Peer: peer, Status: StatusUninitialized, NextOutboundSeq: 1}
}

// Encode writes the persistent part of the channel state. The outbound
// queue is per-block transient and always empty at the state root.
func (c *Channel) Encode(w *codec.Writer) {
	w.PutU32(uint32(c.Peer))
	w.PutU8(byte(c.Status))
	w.PutU64(c.NextOutboundSeq)
	w.PutU64(c.LastInboundSeq)
}

func DecodeChannel(r *codec.Reader) *Channel {
	c := &Channel{}
	c.Peer = assets.ParaID(r.U32())
	status := ChannelStatus(r.U8())
	if status > StatusClosed {
		r.FailTag()
	}
	c.Status = status
	c.NextOutboundSeq = r.U64()
	c.LastInboundSeq = r.U64()
	return c
}
