package runtime

import (
	"golang.org/x/crypto/blake2b"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// Header seals one block: ParentHash chains it onto its predecessor,
// StateRoot commits the post-state, ExtrinsicsRoot commits the body.
type Header struct {
	Height         uint64
	ParentHash     [32]byte
	StateRoot      [32]byte
	ExtrinsicsRoot [32]byte
}

func (h Header) Encode(w *codec.Writer) {
	w.PutU64(h.Height)
	w.PutRaw(h.ParentHash[:])
	w.PutRaw(h.StateRoot[:])
	w.PutRaw(h.ExtrinsicsRoot[:])
}

func (h Header) EncodeToBytes() []byte {
	w := codec.NewWriter()
	h.Encode(w)
	return w.Bytes()
}

func DecodeHeader(r *codec.Reader) Header {
	var h Header
	h.Height = r.U64()
	h.ParentHash = r.Raw32()
	h.StateRoot = r.Raw32()
	h.ExtrinsicsRoot = r.Raw32()
	return h
}

// Hash is the header digest the next block names as its parent.
func (h Header) Hash() [32]byte {
	return blake2b.Sum256(h.EncodeToBytes())
}

// Block is the journaled form of one sealed block: the header plus
// every input replay needs to reproduce the transition and check it.
type Block struct {
	Header     Header
	Timestamp  uint64
	Inbound    []xcmp.InboundMessage
	Extrinsics []Extrinsic
}

func (b *Block) Encode(w *codec.Writer) {
	w.PutU8(codec.FormatVersion)
	b.Header.Encode(w)
	w.PutU64(b.Timestamp)
	w.PutU32(uint32(len(b.Inbound)))
	for i := range b.Inbound {
		b.Inbound[i].Encode(w)
	}
	w.PutU32(uint32(len(b.Extrinsics)))
	for i := range b.Extrinsics {
		b.Extrinsics[i].Encode(w)
	}
}

func (b *Block) EncodeToBytes() []byte {
	w := codec.NewWriter()
	b.Encode(w)
	return w.Bytes()
}

func DecodeBlock(buf []byte) (*Block, error) {
	r := codec.NewReader(buf)
	var b Block
	r.Version()
	b.Header = DecodeHeader(r)
	b.Timestamp = r.U64()
	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		b.Inbound = append(b.Inbound, xcmp.DecodeInboundMessage(r))
	}
	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		b.Extrinsics = append(b.Extrinsics, DecodeExtrinsic(r))
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return &b, nil
}
