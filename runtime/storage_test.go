package runtime

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

func freshState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(testGenesis())
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return s
}

func TestStateRootDeterministic(t *testing.T) {
	a := freshState(t)
	b := freshState(t)
	if StateRoot(a) != StateRoot(b) {
		t.Fatal("identical genesis produced different roots")
	}
}

func TestStateRootSeesEveryComponent(t *testing.T) {
	base := StateRoot(freshState(t))

	cases := []struct {
		name   string
		mutate func(s *State)
	}{
		{"height", func(s *State) { s.Height++ }},
		{"timestamp", func(s *State) { s.Timestamp++ }},
		{"parent hash", func(s *State) { s.ParentHash[0] ^= 1 }},
		{"nonce", func(s *State) { s.bumpNonce(alice) }},
		{"balance", func(s *State) {
			if err := s.Balances.Mint(carol, assets.Main(), 1); err != nil {
				t.Fatal(err)
			}
		}},
		{"registry row", func(s *State) { s.Registry.Restore(200, assets.RemoteMain(), 10) }},
		{"registry cursor", func(s *State) { s.Registry.SetNextID(99) }},
		{"pair", func(s *State) { s.Books.RestorePair(orderbook.Pair{Base: assets.Parachain(2), Quote: assets.Main()}) }},
		{"order", func(s *State) {
			s.Books.RestoreOrder(&orderbook.Order{
				ID: 1, Owner: alice,
				Pair:   orderbook.Pair{Base: assets.Parachain(1), Quote: assets.Main()},
				Side:   orderbook.Sell,
				Price:  100, Remaining: 5, Seq: 1,
			})
		}},
		{"order counters", func(s *State) { s.Books.SetCounters(7, 7) }},
		{"channel", func(s *State) {
			s.Channels.RestoreChannel(&xcmp.Channel{Peer: 200, Status: xcmp.StatusOpen, NextOutboundSeq: 3, LastInboundSeq: 2})
		}},
		{"relay cursors", func(s *State) { s.Channels.RestoreRelayState(4, 5, true) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := freshState(t)
			tc.mutate(s)
			if StateRoot(s) == base {
				t.Fatalf("mutating %s did not change the state root", tc.name)
			}
		})
	}
}

func TestStorageKeyLayout(t *testing.T) {
	k1 := StorageKey(palletDex, itemOrder, []byte{1})
	k2 := StorageKey(palletDex, itemOrder, []byte{2})
	k3 := StorageKey(palletXcmp, itemChannel, []byte{1})

	wantLen := 32 + len(itemOrder) + 1
	if len(k1) != wantLen {
		t.Fatalf("key length = %d, want %d", len(k1), wantLen)
	}
	if !bytes.Equal(k1[:16], k2[:16]) {
		t.Fatal("same pallet does not share its prefix")
	}
	if bytes.Equal(k1[:16], k3[:16]) {
		t.Fatal("different pallets share a prefix")
	}
	if bytes.Equal(k1, k2) {
		t.Fatal("distinct instances collide")
	}
	// The raw entity trails the hashes so tooling can read it back.
	if !bytes.HasSuffix(k1, append([]byte(itemOrder), 1)) {
		t.Fatal("entity suffix missing")
	}
}

func TestStorageEntriesCoverGenesis(t *testing.T) {
	s := freshState(t)
	entries := StorageEntries(s)

	// height, timestamp, parent hash, 4 balances, registry cursor, one
	// pair, two order counters, relay cursors.
	if len(entries) != 12 {
		t.Fatalf("got %d entries: %+v", len(entries), entries)
	}
	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		if keys[string(e.Key)] {
			t.Fatalf("duplicate storage key %x", e.Key)
		}
		keys[string(e.Key)] = true
	}
	for _, want := range [][]byte{
		StorageKey(palletSystem, itemNumber, nil),
		StorageKey(palletSystem, itemTimestamp, nil),
		StorageKey(palletSystem, itemParentHash, nil),
		StorageKey(palletAssets, itemNextAssetID, nil),
		StorageKey(palletDex, itemNextOrderID, nil),
		StorageKey(palletDex, itemNextSeq, nil),
		StorageKey(palletXcmp, itemRelay, nil),
	} {
		if !keys[string(want)] {
			t.Fatalf("missing storage key %x", want)
		}
	}
}

func TestMerkleRootShape(t *testing.T) {
	l := func(b byte) [32]byte { return blake2b.Sum256([]byte{b}) }

	if got, want := merkleRoot(nil), blake2b.Sum256(nil); got != want {
		t.Fatalf("empty root = %x, want %x", got, want)
	}
	if got := merkleRoot([][32]byte{l(1)}); got != l(1) {
		t.Fatalf("single leaf root = %x, want the leaf", got)
	}

	pair := func(a, b [32]byte) [32]byte {
		var buf [64]byte
		copy(buf[:32], a[:])
		copy(buf[32:], b[:])
		return blake2b.Sum256(buf[:])
	}
	if got, want := merkleRoot([][32]byte{l(1), l(2)}), pair(l(1), l(2)); got != want {
		t.Fatalf("two leaf root = %x, want %x", got, want)
	}
	// The odd leaf is carried up unchanged.
	if got, want := merkleRoot([][32]byte{l(1), l(2), l(3)}), pair(pair(l(1), l(2)), l(3)); got != want {
		t.Fatalf("three leaf root = %x, want %x", got, want)
	}
}

func TestExtrinsicsRootOrderSensitive(t *testing.T) {
	a := ext(alice, 0, Transfer{Dest: bob, Asset: assets.Main(), Amount: 1}).EncodeToBytes()
	b := ext(bob, 0, Transfer{Dest: alice, Asset: assets.Main(), Amount: 2}).EncodeToBytes()

	if ExtrinsicsRoot([][]byte{a, b}) == ExtrinsicsRoot([][]byte{b, a}) {
		t.Fatal("extrinsics root ignores order")
	}
	if got, want := ExtrinsicsRoot(nil), blake2b.Sum256(nil); got != want {
		t.Fatalf("empty extrinsics root = %x, want %x", got, want)
	}
}
