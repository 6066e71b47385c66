package xcmp

import (
	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// RelayID is the reserved shard id of the relay chain itself. Asset
// naming uses it as the home of the native currency; no peer channel
// may carry it.
const RelayID assets.ParaID = 0

// Kind tags a message payload. Horizontal (peer-to-peer), upward and
// downward kinds live in distinct ranges of the byte so a misrouted
// message cannot alias a valid one.
type Kind uint8

const (
	// Horizontal, shard to shard.
	KindTransferToken Kind = 0
	KindChannelClose  Kind = 1

	// Upward, shard to relay.
	KindUpTransfer     Kind = 16
	KindUpOpenChannel  Kind = 17
	KindUpCloseChannel Kind = 18

	// Downward, relay to shard.
	KindDownTransferInto    Kind = 32
	KindDownChannelAccepted Kind = 33
	KindDownChannelClosed   Kind = 34
)

func (k Kind) String() string {
	switch k {
	case KindTransferToken:
		return "transfer_token"
	case KindChannelClose:
		return "channel_close"
	case KindUpTransfer:
		return "up_transfer"
	case KindUpOpenChannel:
		return "up_open_channel"
	case KindUpCloseChannel:
		return "up_close_channel"
	case KindDownTransferInto:
		return "down_transfer_into"
	case KindDownChannelAccepted:
		return "down_channel_accepted"
	case KindDownChannelClosed:
		return "down_channel_closed"
	default:
		return "unknown"
	}
}

// Message is one horizontal XCMP message. Seq is monotonic per
// (Origin, Dest) direction with no gaps.
type Message struct {
	Origin  assets.ParaID
	Dest    assets.ParaID
	Seq     uint64
	Kind    Kind
	Payload []byte
}

func (m Message) Encode(w *codec.Writer) {
	w.PutU8(codec.FormatVersion)
	w.PutU32(uint32(m.Origin))
	w.PutU32(uint32(m.Dest))
	w.PutU64(m.Seq)
	w.PutU8(byte(m.Kind))
	w.PutBytes(m.Payload)
}

func (m Message) EncodeToBytes() []byte {
	w := codec.NewWriter()
	m.Encode(w)
	return w.Bytes()
}

func DecodeMessage(r *codec.Reader) Message {
	r.Version()
	var m Message
	m.Origin = assets.ParaID(r.U32())
	m.Dest = assets.ParaID(r.U32())
	m.Seq = r.U64()
	m.Kind = Kind(r.U8())
	m.Payload = r.Bytes()
	return m
}

// UpwardMessage travels to the relay chain; the origin is implicit.
type UpwardMessage struct {
	Seq     uint64
	Kind    Kind
	Payload []byte
}

func (m UpwardMessage) Encode(w *codec.Writer) {
	w.PutU8(codec.FormatVersion)
	w.PutU64(m.Seq)
	w.PutU8(byte(m.Kind))
	w.PutBytes(m.Payload)
}

func (m UpwardMessage) EncodeToBytes() []byte {
	w := codec.NewWriter()
	m.Encode(w)
	return w.Bytes()
}

func DecodeUpwardMessage(r *codec.Reader) UpwardMessage {
	r.Version()
	var m UpwardMessage
	m.Seq = r.U64()
	m.Kind = Kind(r.U8())
	m.Payload = r.Bytes()
	return m
}

// InboundMessage is one relay-attested delivery: either a downward
// message (FromRelay) or a horizontal message from Origin. The batch
// order chosen by the relay is canonical and never reordered here.
type InboundMessage struct {
	FromRelay bool
	Origin    assets.ParaID
	Seq       uint64
	Kind      Kind
	Payload   []byte
}

func (m InboundMessage) Encode(w *codec.Writer) {
	w.PutU8(codec.FormatVersion)
	w.PutBool(m.FromRelay)
	w.PutU32(uint32(m.Origin))
	w.PutU64(m.Seq)
	w.PutU8(byte(m.Kind))
	w.PutBytes(m.Payload)
}

func DecodeInboundMessage(r *codec.Reader) InboundMessage {
	r.Version()
	var m InboundMessage
	m.FromRelay = r.Bool()
	m.Origin = assets.ParaID(r.U32())
	m.Seq = r.U64()
	m.Kind = Kind(r.U8())
	m.Payload = r.Bytes()
	return m
}

// TransferToken teleports an asset between shards. The asset is named
// by its home shard: Owner plus the id in the owner's namespace, with
// RemoteMain meaning the owner's native currency. Naming assets by
// home rather than by message origin lets a wrapped asset round-trip
// and re-export without the sides disagreeing about what moved.
type TransferToken struct {
	Dest   assets.AccountID
	Amount assets.Balance
	Owner  assets.ParaID
	Asset  assets.RemoteAsset
}

func (t TransferToken) EncodePayload() []byte {
	w := codec.NewWriter()
	w.PutRaw(t.Dest[:])
	w.PutU64(uint64(t.Amount))
	w.PutU32(uint32(t.Owner))
	t.Asset.Encode(w)
	return w.Bytes()
}

func DecodeTransferToken(payload []byte) (TransferToken, error) {
	r := codec.NewReader(payload)
	var t TransferToken
	t.Dest = r.Raw32()
	t.Amount = assets.Balance(r.U64())
	t.Owner = assets.ParaID(r.U32())
	t.Asset = assets.DecodeRemoteAsset(r)
	return t, r.Done()
}

// TransferInto mints relay-held native currency into a local account,
// the downward half of a relay transfer.
type TransferInto struct {
	Dest   assets.AccountID
	Amount assets.Balance
}

func (t TransferInto) EncodePayload() []byte {
	w := codec.NewWriter()
	w.PutRaw(t.Dest[:])
	w.PutU64(uint64(t.Amount))
	return w.Bytes()
}

func DecodeTransferInto(payload []byte) (TransferInto, error) {
	r := codec.NewReader(payload)
	var t TransferInto
	t.Dest = r.Raw32()
	t.Amount = assets.Balance(r.U64())
	return t, r.Done()
}

// UpwardTransfer asks the relay to credit a relay-chain account with
// native currency burned here.
type UpwardTransfer struct {
	Dest   assets.AccountID
	Amount assets.Balance
}

func (t UpwardTransfer) EncodePayload() []byte {
	w := codec.NewWriter()
	w.PutRaw(t.Dest[:])
	w.PutU64(uint64(t.Amount))
	return w.Bytes()
}

func DecodeUpwardTransfer(payload []byte) (UpwardTransfer, error) {
	r := codec.NewReader(payload)
	var t UpwardTransfer
	t.Dest = r.Raw32()
	t.Amount = assets.Balance(r.U64())
	return t, r.Done()
}

// ChannelControl is the payload of every channel handshake kind: the
// peer the control message concerns.
type ChannelControl struct {
	Peer assets.ParaID
}

func (c ChannelControl) EncodePayload() []byte {
	w := codec.NewWriter()
	w.PutU32(uint32(c.Peer))
	return w.Bytes()
}

func DecodeChannelControl(payload []byte) (ChannelControl, error) {
	r := codec.NewReader(payload)
	var c ChannelControl
	c.Peer = assets.ParaID(r.U32())
	return c, r.Done()
}
