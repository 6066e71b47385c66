package runtime

import (
	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
)

// CallKind tags a dispatchable call inside an extrinsic.
type CallKind uint8

const (
	CallKindPlaceOrder          CallKind = 0
	CallKindCancelOrder         CallKind = 1
	CallKindCreatePair          CallKind = 2
	CallKindTransfer            CallKind = 3
	CallKindTransferToRelay     CallKind = 4
	CallKindTransferToParachain CallKind = 5
	CallKindOpenChannel         CallKind = 6
	CallKindCloseChannel        CallKind = 7
)

// Call is one dispatchable operation. The concrete types below are the
// complete set; dispatch switches over them.
type Call interface {
	CallKind() CallKind
	encodePayload(w *codec.Writer)
}

// EncodeCall writes the tagged call. Calls only travel inside extrinsic
// envelopes, so there is no version byte of their own.
func EncodeCall(w *codec.Writer, c Call) {
	w.PutU8(byte(c.CallKind()))
	c.encodePayload(w)
}

// DecodeCall reads one tagged call; an unknown tag fails the reader.
func DecodeCall(r *codec.Reader) Call {
	switch CallKind(r.U8()) {
	case CallKindPlaceOrder:
		c := PlaceOrder{}
		c.Pair = orderbook.DecodePair(r)
		side := orderbook.Side(r.U8())
		if side != orderbook.Buy && side != orderbook.Sell {
			r.FailTag()
		}
		c.Side = side
		c.Price = orderbook.Price(r.U64())
		c.Amount = assets.Balance(r.U64())
		tif := orderbook.TimeInForce(r.U8())
		if tif != orderbook.GTC && tif != orderbook.IOC {
			r.FailTag()
		}
		c.TIF = tif
		c.ExpiresAt = r.U64()
		return c
	case CallKindCancelOrder:
		return CancelOrder{Order: orderbook.OrderID(r.U64())}
	case CallKindCreatePair:
		c := CreatePair{}
		c.Base = assets.DecodeAsset(r)
		c.Quote = assets.DecodeAsset(r)
		return c
	case CallKindTransfer:
		c := Transfer{}
		c.Dest = r.Raw32()
		c.Asset = assets.DecodeAsset(r)
		c.Amount = assets.Balance(r.U64())
		return c
	case CallKindTransferToRelay:
		c := TransferToRelay{}
		c.Dest = r.Raw32()
		c.Amount = assets.Balance(r.U64())
		return c
	case CallKindTransferToParachain:
		c := TransferToParachain{}
		c.Para = assets.ParaID(r.U32())
		c.Asset = assets.DecodeAsset(r)
		c.Dest = r.Raw32()
		c.Amount = assets.Balance(r.U64())
		return c
	case CallKindOpenChannel:
		return OpenChannel{Peer: assets.ParaID(r.U32())}
	case CallKindCloseChannel:
		return CloseChannel{Peer: assets.ParaID(r.U32())}
	default:
		r.FailTag()
		return nil
	}
}

// PlaceOrder submits a limit order. ExpiresAt of zero means no expiry;
// otherwise the order must be applied in a block strictly below that
// height.
type PlaceOrder struct {
	Pair      orderbook.Pair
	Side      orderbook.Side
	Price     orderbook.Price
	Amount    assets.Balance
	TIF       orderbook.TimeInForce
	ExpiresAt uint64
}

func (PlaceOrder) CallKind() CallKind { return CallKindPlaceOrder }

func (c PlaceOrder) encodePayload(w *codec.Writer) {
	c.Pair.Encode(w)
	w.PutU8(byte(c.Side))
	w.PutU64(uint64(c.Price))
	w.PutU64(uint64(c.Amount))
	w.PutU8(byte(c.TIF))
	w.PutU64(c.ExpiresAt)
}

type CancelOrder struct {
	Order orderbook.OrderID
}

func (CancelOrder) CallKind() CallKind { return CallKindCancelOrder }

func (c CancelOrder) encodePayload(w *codec.Writer) {
	w.PutU64(uint64(c.Order))
}

type CreatePair struct {
	Base  assets.Asset
	Quote assets.Asset
}

func (CreatePair) CallKind() CallKind { return CallKindCreatePair }

func (c CreatePair) encodePayload(w *codec.Writer) {
	c.Base.Encode(w)
	c.Quote.Encode(w)
}

// Transfer moves free balance between local accounts.
type Transfer struct {
	Dest   assets.AccountID
	Asset  assets.Asset
	Amount assets.Balance
}

func (Transfer) CallKind() CallKind { return CallKindTransfer }

func (c Transfer) encodePayload(w *codec.Writer) {
	w.PutRaw(c.Dest[:])
	c.Asset.Encode(w)
	w.PutU64(uint64(c.Amount))
}

// TransferToRelay burns native currency here and asks the relay to
// credit Dest.
type TransferToRelay struct {
	Dest   assets.AccountID
	Amount assets.Balance
}

func (TransferToRelay) CallKind() CallKind { return CallKindTransferToRelay }

func (c TransferToRelay) encodePayload(w *codec.Writer) {
	w.PutRaw(c.Dest[:])
	w.PutU64(uint64(c.Amount))
}

// TransferToParachain teleports a locally held asset to a sibling
// shard over its open channel. Asset names the local form; the runtime
// translates it into home-chain naming on the wire.
type TransferToParachain struct {
	Para   assets.ParaID
	Asset  assets.Asset
	Dest   assets.AccountID
	Amount assets.Balance
}

func (TransferToParachain) CallKind() CallKind { return CallKindTransferToParachain }

func (c TransferToParachain) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(c.Para))
	c.Asset.Encode(w)
	w.PutRaw(c.Dest[:])
	w.PutU64(uint64(c.Amount))
}

type OpenChannel struct {
	Peer assets.ParaID
}

func (OpenChannel) CallKind() CallKind { return CallKindOpenChannel }

func (c OpenChannel) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(c.Peer))
}

type CloseChannel struct {
	Peer assets.ParaID
}

func (CloseChannel) CallKind() CallKind { return CallKindCloseChannel }

func (c CloseChannel) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(c.Peer))
}
