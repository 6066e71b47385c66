// Package subdexpb holds the wire types of the subdex.v1.Node gRPC
// service. The messages mirror subdex.proto but are maintained by hand
// on top of protowire, so the module builds without a codegen step;
// Codec feeds them through the standard "proto" content type next to
// the health and reflection services.
package subdexpb

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("subdexpb: field has wrong wire type")

// append helpers follow proto3 rules: scalar zero values stay off the
// wire, message fields are emitted whenever the pointer is set.

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, m interface{ MarshalBinary() ([]byte, error) }) []byte {
	enc, _ := m.MarshalBinary()
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, enc)
}

// fieldScanner walks an encoded message one field at a time. Unknown
// field numbers are skipped so older clients keep working against
// newer servers; a known field with the wrong wire type is an error.
type fieldScanner struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (s *fieldScanner) next() (protowire.Number, bool) {
	if s.err != nil || len(s.buf) == 0 {
		return 0, false
	}
	num, typ, n := protowire.ConsumeTag(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return 0, false
	}
	s.buf = s.buf[n:]
	s.num, s.typ = num, typ
	return num, true
}

func (s *fieldScanner) varint() uint64 {
	if s.err != nil {
		return 0
	}
	if s.typ != protowire.VarintType {
		s.err = errWireType
		return 0
	}
	v, n := protowire.ConsumeVarint(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return 0
	}
	s.buf = s.buf[n:]
	return v
}

func (s *fieldScanner) bool() bool { return s.varint() != 0 }

// bytes copies the value out: gRPC may reuse the receive buffer after
// Unmarshal returns.
func (s *fieldScanner) bytes() []byte {
	if s.err != nil {
		return nil
	}
	if s.typ != protowire.BytesType {
		s.err = errWireType
		return nil
	}
	v, n := protowire.ConsumeBytes(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return nil
	}
	s.buf = s.buf[n:]
	return append([]byte(nil), v...)
}

func (s *fieldScanner) text() string {
	if s.err != nil {
		return ""
	}
	if s.typ != protowire.BytesType {
		s.err = errWireType
		return ""
	}
	v, n := protowire.ConsumeBytes(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return ""
	}
	s.buf = s.buf[n:]
	return string(v)
}

func (s *fieldScanner) message(m interface{ UnmarshalBinary([]byte) error }) {
	if s.err != nil {
		return
	}
	if s.typ != protowire.BytesType {
		s.err = errWireType
		return
	}
	v, n := protowire.ConsumeBytes(s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return
	}
	s.buf = s.buf[n:]
	if err := m.UnmarshalBinary(v); err != nil {
		s.err = err
	}
}

func (s *fieldScanner) skip() {
	if s.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(s.num, s.typ, s.buf)
	if n < 0 {
		s.err = protowire.ParseError(n)
		return
	}
	s.buf = s.buf[n:]
}

type SubmitExtrinsicRequest struct {
	Extrinsic []byte
}

func (m *SubmitExtrinsicRequest) MarshalBinary() ([]byte, error) {
	return appendBytes(nil, 1, m.Extrinsic), nil
}

func (m *SubmitExtrinsicRequest) UnmarshalBinary(data []byte) error {
	*m = SubmitExtrinsicRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Extrinsic = s.bytes()
		default:
			s.skip()
		}
	}
}

type SubmitExtrinsicResponse struct {
	Hash     []byte
	PoolSize uint32
}

func (m *SubmitExtrinsicResponse) MarshalBinary() ([]byte, error) {
	b := appendBytes(nil, 1, m.Hash)
	b = appendUint(b, 2, uint64(m.PoolSize))
	return b, nil
}

func (m *SubmitExtrinsicResponse) UnmarshalBinary(data []byte) error {
	*m = SubmitExtrinsicResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Hash = s.bytes()
		case 2:
			m.PoolSize = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

type AuthorBlockRequest struct {
	// TimestampMs is the inherent timestamp for the block. Zero lets
	// the node pick wall-clock time.
	TimestampMs uint64
}

func (m *AuthorBlockRequest) MarshalBinary() ([]byte, error) {
	return appendUint(nil, 1, m.TimestampMs), nil
}

func (m *AuthorBlockRequest) UnmarshalBinary(data []byte) error {
	*m = AuthorBlockRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.TimestampMs = s.varint()
		default:
			s.skip()
		}
	}
}

type AuthorBlockResponse struct {
	Height        uint64
	HeaderHash    []byte
	StateRoot     []byte
	EventCount    uint32
	OutboundCount uint32
}

func (m *AuthorBlockResponse) MarshalBinary() ([]byte, error) {
	b := appendUint(nil, 1, m.Height)
	b = appendBytes(b, 2, m.HeaderHash)
	b = appendBytes(b, 3, m.StateRoot)
	b = appendUint(b, 4, uint64(m.EventCount))
	b = appendUint(b, 5, uint64(m.OutboundCount))
	return b, nil
}

func (m *AuthorBlockResponse) UnmarshalBinary(data []byte) error {
	*m = AuthorBlockResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Height = s.varint()
		case 2:
			m.HeaderHash = s.bytes()
		case 3:
			m.StateRoot = s.bytes()
		case 4:
			m.EventCount = uint32(s.varint())
		case 5:
			m.OutboundCount = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

// InboundMessage is one relay-fetched message to feed into the next
// block, exactly as the collator would supply it.
type InboundMessage struct {
	FromRelay bool
	Origin    uint32
	Seq       uint64
	Kind      uint32
	Payload   []byte
}

func (m *InboundMessage) MarshalBinary() ([]byte, error) {
	b := appendBool(nil, 1, m.FromRelay)
	b = appendUint(b, 2, uint64(m.Origin))
	b = appendUint(b, 3, m.Seq)
	b = appendUint(b, 4, uint64(m.Kind))
	b = appendBytes(b, 5, m.Payload)
	return b, nil
}

func (m *InboundMessage) UnmarshalBinary(data []byte) error {
	*m = InboundMessage{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.FromRelay = s.bool()
		case 2:
			m.Origin = uint32(s.varint())
		case 3:
			m.Seq = s.varint()
		case 4:
			m.Kind = uint32(s.varint())
		case 5:
			m.Payload = s.bytes()
		default:
			s.skip()
		}
	}
}

type InjectInboundRequest struct {
	Messages []*InboundMessage
}

func (m *InjectInboundRequest) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, msg := range m.Messages {
		b = appendMessage(b, 1, msg)
	}
	return b, nil
}

func (m *InjectInboundRequest) UnmarshalBinary(data []byte) error {
	*m = InjectInboundRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			msg := new(InboundMessage)
			s.message(msg)
			m.Messages = append(m.Messages, msg)
		default:
			s.skip()
		}
	}
}

type InjectInboundResponse struct {
	Queued uint32
}

func (m *InjectInboundResponse) MarshalBinary() ([]byte, error) {
	return appendUint(nil, 1, uint64(m.Queued)), nil
}

func (m *InjectInboundResponse) UnmarshalBinary(data []byte) error {
	*m = InjectInboundResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Queued = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

// Asset names a currency: the shard's main token, or a remote asset
// keyed by its registry id.
type Asset struct {
	Main bool
	Id   uint64
}

func (m *Asset) MarshalBinary() ([]byte, error) {
	b := appendBool(nil, 1, m.Main)
	b = appendUint(b, 2, m.Id)
	return b, nil
}

func (m *Asset) UnmarshalBinary(data []byte) error {
	*m = Asset{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Main = s.bool()
		case 2:
			m.Id = s.varint()
		default:
			s.skip()
		}
	}
}

type GetBookRequest struct {
	Base      *Asset
	Quote     *Asset
	MaxLevels uint32
}

func (m *GetBookRequest) MarshalBinary() ([]byte, error) {
	var b []byte
	if m.Base != nil {
		b = appendMessage(b, 1, m.Base)
	}
	if m.Quote != nil {
		b = appendMessage(b, 2, m.Quote)
	}
	b = appendUint(b, 3, uint64(m.MaxLevels))
	return b, nil
}

func (m *GetBookRequest) UnmarshalBinary(data []byte) error {
	*m = GetBookRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Base = new(Asset)
			s.message(m.Base)
		case 2:
			m.Quote = new(Asset)
			s.message(m.Quote)
		case 3:
			m.MaxLevels = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

type BookLevel struct {
	Price  uint64
	Total  uint64
	Orders uint32
}

func (m *BookLevel) MarshalBinary() ([]byte, error) {
	b := appendUint(nil, 1, m.Price)
	b = appendUint(b, 2, m.Total)
	b = appendUint(b, 3, uint64(m.Orders))
	return b, nil
}

func (m *BookLevel) UnmarshalBinary(data []byte) error {
	*m = BookLevel{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Price = s.varint()
		case 2:
			m.Total = s.varint()
		case 3:
			m.Orders = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

type GetBookResponse struct {
	Bids []*BookLevel
	Asks []*BookLevel
}

func (m *GetBookResponse) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, lv := range m.Bids {
		b = appendMessage(b, 1, lv)
	}
	for _, lv := range m.Asks {
		b = appendMessage(b, 2, lv)
	}
	return b, nil
}

func (m *GetBookResponse) UnmarshalBinary(data []byte) error {
	*m = GetBookResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			lv := new(BookLevel)
			s.message(lv)
			m.Bids = append(m.Bids, lv)
		case 2:
			lv := new(BookLevel)
			s.message(lv)
			m.Asks = append(m.Asks, lv)
		default:
			s.skip()
		}
	}
}

type GetBalanceRequest struct {
	// Account is the 32-byte account id in hex.
	Account string
	Asset   *Asset
}

func (m *GetBalanceRequest) MarshalBinary() ([]byte, error) {
	b := appendString(nil, 1, m.Account)
	if m.Asset != nil {
		b = appendMessage(b, 2, m.Asset)
	}
	return b, nil
}

func (m *GetBalanceRequest) UnmarshalBinary(data []byte) error {
	*m = GetBalanceRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Account = s.text()
		case 2:
			m.Asset = new(Asset)
			s.message(m.Asset)
		default:
			s.skip()
		}
	}
}

type GetBalanceResponse struct {
	Free     uint64
	Reserved uint64
	// Nonce is the account's next expected nonce, for building the
	// following extrinsic.
	Nonce uint64
}

func (m *GetBalanceResponse) MarshalBinary() ([]byte, error) {
	b := appendUint(nil, 1, m.Free)
	b = appendUint(b, 2, m.Reserved)
	b = appendUint(b, 3, m.Nonce)
	return b, nil
}

func (m *GetBalanceResponse) UnmarshalBinary(data []byte) error {
	*m = GetBalanceResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Free = s.varint()
		case 2:
			m.Reserved = s.varint()
		case 3:
			m.Nonce = s.varint()
		default:
			s.skip()
		}
	}
}

type GetChannelRequest struct {
	Peer uint32
}

func (m *GetChannelRequest) MarshalBinary() ([]byte, error) {
	return appendUint(nil, 1, uint64(m.Peer)), nil
}

func (m *GetChannelRequest) UnmarshalBinary(data []byte) error {
	*m = GetChannelRequest{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Peer = uint32(s.varint())
		default:
			s.skip()
		}
	}
}

type GetChannelResponse struct {
	Status          string
	NextOutboundSeq uint64
	LastInboundSeq  uint64
}

func (m *GetChannelResponse) MarshalBinary() ([]byte, error) {
	b := appendString(nil, 1, m.Status)
	b = appendUint(b, 2, m.NextOutboundSeq)
	b = appendUint(b, 3, m.LastInboundSeq)
	return b, nil
}

func (m *GetChannelResponse) UnmarshalBinary(data []byte) error {
	*m = GetChannelResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Status = s.text()
		case 2:
			m.NextOutboundSeq = s.varint()
		case 3:
			m.LastInboundSeq = s.varint()
		default:
			s.skip()
		}
	}
}

type GetHeadRequest struct{}

func (m *GetHeadRequest) MarshalBinary() ([]byte, error) { return nil, nil }

func (m *GetHeadRequest) UnmarshalBinary(data []byte) error {
	s := fieldScanner{buf: data}
	for {
		if _, ok := s.next(); !ok {
			return s.err
		}
		s.skip()
	}
}

type GetHeadResponse struct {
	Height      uint64
	HeaderHash  []byte
	StateRoot   []byte
	ParentHash  []byte
	TimestampMs uint64
}

func (m *GetHeadResponse) MarshalBinary() ([]byte, error) {
	b := appendUint(nil, 1, m.Height)
	b = appendBytes(b, 2, m.HeaderHash)
	b = appendBytes(b, 3, m.StateRoot)
	b = appendBytes(b, 4, m.ParentHash)
	b = appendUint(b, 5, m.TimestampMs)
	return b, nil
}

func (m *GetHeadResponse) UnmarshalBinary(data []byte) error {
	*m = GetHeadResponse{}
	s := fieldScanner{buf: data}
	for {
		num, ok := s.next()
		if !ok {
			return s.err
		}
		switch num {
		case 1:
			m.Height = s.varint()
		case 2:
			m.HeaderHash = s.bytes()
		case 3:
			m.StateRoot = s.bytes()
		case 4:
			m.ParentHash = s.bytes()
		case 5:
			m.TimestampMs = s.varint()
		default:
			s.skip()
		}
	}
}
