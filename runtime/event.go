package runtime

import (
	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
)

// EventKind tags one entry of the block event log.
type EventKind uint8

const (
	EventOrderPlaced          EventKind = 0
	EventOrderCancelled       EventKind = 1
	EventTradeExecuted        EventKind = 2
	EventPairCreated          EventKind = 3
	EventTransferred          EventKind = 4
	EventTransferredToRelay   EventKind = 5
	EventTransferredFromRelay EventKind = 6
	EventDepositViaXCMP       EventKind = 7
	EventWithdrawViaXCMP      EventKind = 8
	EventAssetRegistered      EventKind = 9
	EventChannelOpening       EventKind = 10
	EventChannelOpened        EventKind = 11
	EventChannelSuspended     EventKind = 12
	EventChannelClosed        EventKind = 13
	EventExtrinsicApplied     EventKind = 14
	EventExtrinsicFailed      EventKind = 15
)

// Event is one entry of the append-only per-block event log. The log is
// part of a block's observable output: it feeds the event stream and is
// reproduced bit-exactly on replay.
type Event interface {
	EventKind() EventKind
	encodePayload(w *codec.Writer)
}

// EncodeEvent writes one tagged event.
func EncodeEvent(w *codec.Writer, ev Event) {
	w.PutU8(byte(ev.EventKind()))
	ev.encodePayload(w)
}

// EncodeEvents writes a counted event list with the envelope version,
// the form stored in journals and published on the feed.
func EncodeEvents(events []Event) []byte {
	w := codec.NewWriter()
	w.PutU8(codec.FormatVersion)
	w.PutU32(uint32(len(events)))
	for _, ev := range events {
		EncodeEvent(w, ev)
	}
	return w.Bytes()
}

func DecodeEvents(b []byte) ([]Event, error) {
	r := codec.NewReader(b)
	r.Version()
	n := r.U32()
	var out []Event
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		out = append(out, DecodeEvent(r))
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeEvent reads one tagged event; on an unknown tag the reader is
// failed and nil returned.
func DecodeEvent(r *codec.Reader) Event {
	switch EventKind(r.U8()) {
	case EventOrderPlaced:
		ev := OrderPlaced{}
		ev.Owner = r.Raw32()
		ev.Order = orderbook.OrderID(r.U64())
		ev.Pair = orderbook.DecodePair(r)
		side := orderbook.Side(r.U8())
		if side != orderbook.Buy && side != orderbook.Sell {
			r.FailTag()
		}
		ev.Side = side
		ev.Price = orderbook.Price(r.U64())
		ev.Amount = assets.Balance(r.U64())
		ev.Remaining = assets.Balance(r.U64())
		ev.Rested = r.Bool()
		return ev
	case EventOrderCancelled:
		ev := OrderCancelled{}
		ev.Owner = r.Raw32()
		ev.Order = orderbook.OrderID(r.U64())
		return ev
	case EventTradeExecuted:
		return TradeExecuted{Trade: orderbook.DecodeTrade(r)}
	case EventPairCreated:
		return PairCreated{Pair: orderbook.DecodePair(r)}
	case EventTransferred:
		ev := Transferred{}
		ev.From = r.Raw32()
		ev.To = r.Raw32()
		ev.Asset = assets.DecodeAsset(r)
		ev.Amount = assets.Balance(r.U64())
		return ev
	case EventTransferredToRelay:
		ev := TransferredToRelay{}
		ev.From = r.Raw32()
		ev.Dest = r.Raw32()
		ev.Amount = assets.Balance(r.U64())
		return ev
	case EventTransferredFromRelay:
		ev := TransferredFromRelay{}
		ev.Dest = r.Raw32()
		ev.Amount = assets.Balance(r.U64())
		return ev
	case EventDepositViaXCMP:
		ev := DepositViaXCMP{}
		ev.Origin = assets.ParaID(r.U32())
		ev.Dest = r.Raw32()
		ev.Asset = assets.DecodeAsset(r)
		ev.Amount = assets.Balance(r.U64())
		return ev
	case EventWithdrawViaXCMP:
		ev := WithdrawViaXCMP{}
		ev.Dest = assets.ParaID(r.U32())
		ev.From = r.Raw32()
		ev.Asset = assets.DecodeAsset(r)
		ev.Amount = assets.Balance(r.U64())
		return ev
	case EventAssetRegistered:
		ev := AssetRegistered{}
		ev.Owner = assets.ParaID(r.U32())
		ev.Remote = assets.DecodeRemoteAsset(r)
		ev.Local = assets.AssetID(r.U64())
		return ev
	case EventChannelOpening:
		return ChannelOpening{Peer: assets.ParaID(r.U32())}
	case EventChannelOpened:
		return ChannelOpened{Peer: assets.ParaID(r.U32())}
	case EventChannelSuspended:
		ev := ChannelSuspended{}
		ev.Peer = assets.ParaID(r.U32())
		ev.Seq = r.U64()
		ev.Relay = r.Bool()
		return ev
	case EventChannelClosed:
		return ChannelClosed{Peer: assets.ParaID(r.U32())}
	case EventExtrinsicApplied:
		ev := ExtrinsicApplied{}
		ev.Index = r.U32()
		ev.Signer = r.Raw32()
		return ev
	case EventExtrinsicFailed:
		ev := ExtrinsicFailed{}
		ev.Index = r.U32()
		ev.Signer = r.Raw32()
		ev.Err = DecodeDispatchError(r)
		return ev
	default:
		r.FailTag()
		return nil
	}
}

type OrderPlaced struct {
	Owner     assets.AccountID
	Order     orderbook.OrderID
	Pair      orderbook.Pair
	Side      orderbook.Side
	Price     orderbook.Price
	Amount    assets.Balance
	Remaining assets.Balance
	Rested    bool
}

func (OrderPlaced) EventKind() EventKind { return EventOrderPlaced }

func (ev OrderPlaced) encodePayload(w *codec.Writer) {
	w.PutRaw(ev.Owner[:])
	w.PutU64(uint64(ev.Order))
	ev.Pair.Encode(w)
	w.PutU8(byte(ev.Side))
	w.PutU64(uint64(ev.Price))
	w.PutU64(uint64(ev.Amount))
	w.PutU64(uint64(ev.Remaining))
	w.PutBool(ev.Rested)
}

type OrderCancelled struct {
	Owner assets.AccountID
	Order orderbook.OrderID
}

func (OrderCancelled) EventKind() EventKind { return EventOrderCancelled }

func (ev OrderCancelled) encodePayload(w *codec.Writer) {
	w.PutRaw(ev.Owner[:])
	w.PutU64(uint64(ev.Order))
}

type TradeExecuted struct {
	Trade orderbook.Trade
}

func (TradeExecuted) EventKind() EventKind { return EventTradeExecuted }

func (ev TradeExecuted) encodePayload(w *codec.Writer) {
	ev.Trade.Encode(w)
}

type PairCreated struct {
	Pair orderbook.Pair
}

func (PairCreated) EventKind() EventKind { return EventPairCreated }

func (ev PairCreated) encodePayload(w *codec.Writer) {
	ev.Pair.Encode(w)
}

type Transferred struct {
	From   assets.AccountID
	To     assets.AccountID
	Asset  assets.Asset
	Amount assets.Balance
}

func (Transferred) EventKind() EventKind { return EventTransferred }

func (ev Transferred) encodePayload(w *codec.Writer) {
	w.PutRaw(ev.From[:])
	w.PutRaw(ev.To[:])
	ev.Asset.Encode(w)
	w.PutU64(uint64(ev.Amount))
}

type TransferredToRelay struct {
	From   assets.AccountID
	Dest   assets.AccountID
	Amount assets.Balance
}

func (TransferredToRelay) EventKind() EventKind { return EventTransferredToRelay }

func (ev TransferredToRelay) encodePayload(w *codec.Writer) {
	w.PutRaw(ev.From[:])
	w.PutRaw(ev.Dest[:])
	w.PutU64(uint64(ev.Amount))
}

type TransferredFromRelay struct {
	Dest   assets.AccountID
	Amount assets.Balance
}

func (TransferredFromRelay) EventKind() EventKind { return EventTransferredFromRelay }

func (ev TransferredFromRelay) encodePayload(w *codec.Writer) {
	w.PutRaw(ev.Dest[:])
	w.PutU64(uint64(ev.Amount))
}

type DepositViaXCMP struct {
	Origin assets.ParaID
	Dest   assets.AccountID
	Asset  assets.Asset
	Amount assets.Balance
}

func (DepositViaXCMP) EventKind() EventKind { return EventDepositViaXCMP }

func (ev DepositViaXCMP) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Origin))
	w.PutRaw(ev.Dest[:])
	ev.Asset.Encode(w)
	w.PutU64(uint64(ev.Amount))
}

type WithdrawViaXCMP struct {
	Dest   assets.ParaID
	From   assets.AccountID
	Asset  assets.Asset
	Amount assets.Balance
}

func (WithdrawViaXCMP) EventKind() EventKind { return EventWithdrawViaXCMP }

func (ev WithdrawViaXCMP) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Dest))
	w.PutRaw(ev.From[:])
	ev.Asset.Encode(w)
	w.PutU64(uint64(ev.Amount))
}

type AssetRegistered struct {
	Owner  assets.ParaID
	Remote assets.RemoteAsset
	Local  assets.AssetID
}

func (AssetRegistered) EventKind() EventKind { return EventAssetRegistered }

func (ev AssetRegistered) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Owner))
	ev.Remote.Encode(w)
	w.PutU64(uint64(ev.Local))
}

type ChannelOpening struct {
	Peer assets.ParaID
}

func (ChannelOpening) EventKind() EventKind { return EventChannelOpening }

func (ev ChannelOpening) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Peer))
}

type ChannelOpened struct {
	Peer assets.ParaID
}

func (ChannelOpened) EventKind() EventKind { return EventChannelOpened }

func (ev ChannelOpened) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Peer))
}

// ChannelSuspended records an ordering violation or staging flood. Seq
// is the offending sequence number; Relay marks the relay direction
// rather than a peer channel.
type ChannelSuspended struct {
	Peer  assets.ParaID
	Seq   uint64
	Relay bool
}

func (ChannelSuspended) EventKind() EventKind { return EventChannelSuspended }

func (ev ChannelSuspended) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Peer))
	w.PutU64(ev.Seq)
	w.PutBool(ev.Relay)
}

type ChannelClosed struct {
	Peer assets.ParaID
}

func (ChannelClosed) EventKind() EventKind { return EventChannelClosed }

func (ev ChannelClosed) encodePayload(w *codec.Writer) {
	w.PutU32(uint32(ev.Peer))
}

type ExtrinsicApplied struct {
	Index  uint32
	Signer assets.AccountID
}

func (ExtrinsicApplied) EventKind() EventKind { return EventExtrinsicApplied }

func (ev ExtrinsicApplied) encodePayload(w *codec.Writer) {
	w.PutU32(ev.Index)
	w.PutRaw(ev.Signer[:])
}

type ExtrinsicFailed struct {
	Index  uint32
	Signer assets.AccountID
	Err    DispatchError
}

func (ExtrinsicFailed) EventKind() EventKind { return EventExtrinsicFailed }

func (ev ExtrinsicFailed) encodePayload(w *codec.Writer) {
	w.PutU32(ev.Index)
	w.PutRaw(ev.Signer[:])
	ev.Err.Encode(w)
}
