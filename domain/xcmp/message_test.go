package xcmp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Origin:  100,
		Dest:    200,
		Seq:     7,
		Kind:    KindTransferToken,
		Payload: []byte{1, 2, 3},
	}
	b := msg.EncodeToBytes()
	r := codec.NewReader(b)
	got := DecodeMessage(r)
	if err := r.Done(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Origin != msg.Origin || got.Dest != msg.Dest || got.Seq != msg.Seq ||
		got.Kind != msg.Kind || !bytes.Equal(got.Payload, msg.Payload) {
		t.Fatalf("round trip %+v -> %+v", msg, got)
	}
}

func TestMessageVersionChecked(t *testing.T) {
	b := Message{Origin: 1, Dest: 2, Seq: 1}.EncodeToBytes()
	b[0] = codec.FormatVersion + 1
	r := codec.NewReader(b)
	DecodeMessage(r)
	if err := r.Err(); !errors.Is(err, codec.ErrBadVersion) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransferTokenRoundTrip(t *testing.T) {
	var dest assets.AccountID
	dest[5] = 0xAB
	tt := TransferToken{
		Dest:   dest,
		Amount: 12345,
		Owner:  300,
		Asset:  assets.RemoteID(9),
	}
	got, err := DecodeTransferToken(tt.EncodePayload())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != tt {
		t.Fatalf("round trip %+v -> %+v", tt, got)
	}
}

func TestTransferTokenRejectsTrailingBytes(t *testing.T) {
	payload := TransferToken{Amount: 1, Owner: 2}.EncodePayload()
	payload = append(payload, 0xFF)
	if _, err := DecodeTransferToken(payload); !errors.Is(err, codec.ErrTrailingBytes) {
		t.Fatalf("err = %v", err)
	}
}

func TestControlPayloadRoundTrips(t *testing.T) {
	c, err := DecodeChannelControl(ChannelControl{Peer: 42}.EncodePayload())
	if err != nil || c.Peer != 42 {
		t.Fatalf("control = %+v err %v", c, err)
	}
	ti, err := DecodeTransferInto(TransferInto{Amount: 5}.EncodePayload())
	if err != nil || ti.Amount != 5 {
		t.Fatalf("transfer into = %+v err %v", ti, err)
	}
	ut, err := DecodeUpwardTransfer(UpwardTransfer{Amount: 6}.EncodePayload())
	if err != nil || ut.Amount != 6 {
		t.Fatalf("upward transfer = %+v err %v", ut, err)
	}
}

func TestChannelStateRoundTrip(t *testing.T) {
	ch := &Channel{Peer: 7, Status: StatusSuspended, NextOutboundSeq: 12, LastInboundSeq: 4}
	w := codec.NewWriter()
	ch.Encode(w)
	r := codec.NewReader(w.Bytes())
	got := DecodeChannel(r)
	if err := r.Done(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Peer != ch.Peer || got.Status != ch.Status ||
		got.NextOutboundSeq != ch.NextOutboundSeq || got.LastInboundSeq != ch.LastInboundSeq {
		t.Fatalf("round trip %+v -> %+v", ch, got)
	}
}
