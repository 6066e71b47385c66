package runtime

import (
	"errors"
	"reflect"
	"testing"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

func TestCallCodecRoundTrip(t *testing.T) {
	pair := orderbook.Pair{Base: assets.Parachain(1), Quote: assets.Main()}
	calls := []Call{
		PlaceOrder{Pair: pair, Side: orderbook.Buy, Price: 105, Amount: 30, TIF: orderbook.IOC, ExpiresAt: 99},
		PlaceOrder{Pair: pair, Side: orderbook.Sell, Price: 1, Amount: 1, TIF: orderbook.GTC},
		CancelOrder{Order: 12},
		CreatePair{Base: assets.Parachain(3), Quote: assets.Main()},
		Transfer{Dest: bob, Asset: assets.Parachain(7), Amount: 41},
		TransferToRelay{Dest: carol, Amount: 5},
		TransferToParachain{Para: 300, Asset: assets.Main(), Dest: alice, Amount: 8},
		OpenChannel{Peer: 222},
		CloseChannel{Peer: 223},
	}
	for _, c := range calls {
		w := codec.NewWriter()
		EncodeCall(w, c)
		r := codec.NewReader(w.Bytes())
		got := DecodeCall(r)
		if err := r.Done(); err != nil {
			t.Fatalf("%T: %v", c, err)
		}
		if !reflect.DeepEqual(got, c) {
			t.Fatalf("round trip changed %T:\n%+v\n%+v", c, c, got)
		}
	}
}

func TestCallCodecRejectsBadTags(t *testing.T) {
	for _, buf := range [][]byte{
		{0xFF},       // unknown call kind
		{0x00, 0xFF}, // PlaceOrder with a bad asset kind
	} {
		r := codec.NewReader(buf)
		DecodeCall(r)
		if err := r.Err(); !errors.Is(err, codec.ErrBadTag) && !errors.Is(err, codec.ErrShortBuffer) {
			t.Fatalf("decode %x: %v", buf, err)
		}
	}

	// A side byte outside {buy, sell} must fail even though the rest of
	// the payload is well formed.
	good := ext(alice, 0, PlaceOrder{
		Pair:   orderbook.Pair{Base: assets.Parachain(1), Quote: assets.Main()},
		Side:   orderbook.Buy,
		Price:  10, Amount: 10, TIF: orderbook.GTC,
	}).EncodeToBytes()
	// version + signer + nonce + call tag + pair (two one-byte Main/Parachain
	// tags plus the parachain id) puts the side byte at a fixed offset.
	sideOff := 1 + 32 + 8 + 1 + (1 + 8) + 1
	bad := append([]byte(nil), good...)
	bad[sideOff] = 9
	if _, err := DecodeExtrinsicBytes(bad); !errors.Is(err, codec.ErrBadTag) {
		t.Fatalf("bad side byte: %v", err)
	}
}

func TestExtrinsicCodecRejectsDamage(t *testing.T) {
	x := ext(alice, 3, Transfer{Dest: bob, Asset: assets.Main(), Amount: 17})
	buf := x.EncodeToBytes()

	if got, err := DecodeExtrinsicBytes(buf); err != nil || !reflect.DeepEqual(got, x) {
		t.Fatalf("round trip: %+v, %v", got, err)
	}
	if _, err := DecodeExtrinsicBytes(append(append([]byte(nil), buf...), 0)); !errors.Is(err, codec.ErrTrailingBytes) {
		t.Fatalf("trailing byte: %v", err)
	}
	if _, err := DecodeExtrinsicBytes(buf[:len(buf)-1]); !errors.Is(err, codec.ErrShortBuffer) && !errors.Is(err, codec.ErrLength) {
		t.Fatalf("truncated: %v", err)
	}
	wrongVersion := append([]byte(nil), buf...)
	wrongVersion[0] = 2
	if _, err := DecodeExtrinsicBytes(wrongVersion); !errors.Is(err, codec.ErrBadVersion) {
		t.Fatalf("wrong version: %v", err)
	}
}

func TestSigningPayloadExcludesSignature(t *testing.T) {
	a := ext(alice, 1, CancelOrder{Order: 4})
	b := a
	b.Signature = []byte{9, 9, 9}
	if !reflect.DeepEqual(a.SigningPayload(), b.SigningPayload()) {
		t.Fatal("signature leaked into the signing payload")
	}
	if a.Hash() == b.Hash() {
		t.Fatal("extrinsic hash ignores the signature")
	}

	c := a
	c.Nonce++
	if reflect.DeepEqual(a.SigningPayload(), c.SigningPayload()) {
		t.Fatal("nonce not covered by the signing payload")
	}
}

func TestEventsCodecRoundTrip(t *testing.T) {
	pair := orderbook.Pair{Base: assets.Parachain(1), Quote: assets.Main()}
	events := []Event{
		OrderPlaced{Owner: alice, Order: 1, Pair: pair, Side: orderbook.Buy, Price: 100, Amount: 10, Remaining: 4, Rested: true},
		OrderCancelled{Owner: alice, Order: 1},
		TradeExecuted{Trade: orderbook.Trade{
			Pair: pair, MakerOrder: 1, TakerOrder: 2, Maker: alice, Taker: bob,
			TakerSide: orderbook.Sell, Price: 100, Amount: 6, Cost: 600,
			Fee: 1, FeeAsset: assets.Main(), Height: 9,
		}},
		PairCreated{Pair: pair},
		Transferred{From: alice, To: bob, Asset: assets.Main(), Amount: 5},
		TransferredToRelay{From: alice, Dest: bob, Amount: 5},
		TransferredFromRelay{Dest: carol, Amount: 8},
		DepositViaXCMP{Origin: 200, Dest: bob, Asset: assets.Parachain(10), Amount: 7},
		WithdrawViaXCMP{Dest: 200, From: bob, Asset: assets.Parachain(10), Amount: 7},
		AssetRegistered{Owner: 200, Remote: assets.RemoteID(3), Local: 11},
		ChannelOpening{Peer: 200},
		ChannelOpened{Peer: 200},
		ChannelSuspended{Peer: 200, Seq: 17, Relay: false},
		ChannelClosed{Peer: 200},
		ExtrinsicApplied{Index: 0, Signer: alice},
		ExtrinsicFailed{Index: 1, Signer: bob, Err: DispatchError{Kind: KindOwnership, Msg: "not the owner"}},
	}

	buf := EncodeEvents(events)
	got, err := DecodeEvents(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, events) {
		t.Fatalf("round trip changed the event log:\n%+v\n%+v", events, got)
	}

	if _, err := DecodeEvents(append(append([]byte(nil), buf...), 1)); !errors.Is(err, codec.ErrTrailingBytes) {
		t.Fatalf("trailing byte: %v", err)
	}
	bad := append([]byte(nil), buf...)
	bad[5] = 0xEE // first event tag
	if _, err := DecodeEvents(bad); !errors.Is(err, codec.ErrBadTag) {
		t.Fatalf("unknown event tag: %v", err)
	}
}

func TestDispatchErrorCodec(t *testing.T) {
	for _, kind := range []ErrorKind{KindValidation, KindInsufficientResource, KindOrderingViolation, KindOwnership} {
		w := codec.NewWriter()
		DispatchError{Kind: kind, Msg: "row"}.Encode(w)
		r := codec.NewReader(w.Bytes())
		got := DecodeDispatchError(r)
		if err := r.Done(); err != nil {
			t.Fatalf("kind %s: %v", kind, err)
		}
		if got.Kind != kind || got.Msg != "row" {
			t.Fatalf("round trip = %+v", got)
		}
	}

	r := codec.NewReader([]byte{9, 0, 0, 0, 0})
	DecodeDispatchError(r)
	if err := r.Err(); !errors.Is(err, codec.ErrBadTag) {
		t.Fatalf("unknown kind: %v", err)
	}
}

func TestBlockCodecRoundTrip(t *testing.T) {
	blk := &Block{
		Header: Header{
			Height:         4,
			ParentHash:     [32]byte{1},
			StateRoot:      [32]byte{2},
			ExtrinsicsRoot: [32]byte{3},
		},
		Timestamp: 123456,
		Inbound: []xcmp.InboundMessage{
			{FromRelay: true, Seq: 1, Kind: xcmp.KindDownTransferInto, Payload: xcmp.TransferInto{Dest: carol, Amount: 9}.EncodePayload()},
			{Origin: 200, Seq: 4, Kind: xcmp.KindTransferToken, Payload: xcmp.TransferToken{Dest: bob, Amount: 2, Owner: 200, Asset: assets.RemoteMain()}.EncodePayload()},
		},
		Extrinsics: []Extrinsic{
			ext(alice, 0, Transfer{Dest: bob, Asset: assets.Main(), Amount: 1}),
			ext(bob, 2, OpenChannel{Peer: 300}),
		},
	}

	buf := blk.EncodeToBytes()
	got, err := DecodeBlock(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, blk) {
		t.Fatalf("round trip changed the block:\n%+v\n%+v", blk, got)
	}
	if _, err := DecodeBlock(append(append([]byte(nil), buf...), 7)); !errors.Is(err, codec.ErrTrailingBytes) {
		t.Fatalf("trailing byte: %v", err)
	}

	// The hash covers every header field.
	h2 := blk.Header
	h2.StateRoot[0] ^= 1
	if blk.Header.Hash() == h2.Hash() {
		t.Fatal("header hash ignores the state root")
	}
}
