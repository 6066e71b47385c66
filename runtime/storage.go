package runtime

import (
	"bytes"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/subdarkdex/subdex-parachain/codec"
)

// Storage pallet and item names. Keys on disk and in the state root are
// blake2b-128(pallet) ‖ blake2b-128(entity) ‖ entity, where entity is
// the item name followed by the encoded instance key. Keeping the raw
// entity after its hash lets tooling recognize keys while the hash
// keeps the trie balanced against adversarial key choice.
const (
	palletSystem = "System"
	palletAssets = "Assets"
	palletDex    = "Dex"
	palletXcmp   = "Xcmp"

	itemNumber      = "Number"
	itemTimestamp   = "Timestamp"
	itemParentHash  = "ParentHash"
	itemNonce       = "AccountNonce"
	itemBalance     = "Balance"
	itemRegistry    = "AssetIdByParaAssetId"
	itemNextAssetID = "NextAssetId"
	itemPair        = "Pair"
	itemOrder       = "Order"
	itemNextOrderID = "NextOrderId"
	itemNextSeq     = "NextOrderSeq"
	itemChannel     = "Channel"
	itemRelay       = "Relay"
)

func blake2b128(b []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	h.Write(b)
	return h.Sum(nil)
}

// StorageKey builds the hashed key for one entity instance.
func StorageKey(pallet, item string, instance []byte) []byte {
	entity := make([]byte, 0, len(item)+len(instance))
	entity = append(entity, item...)
	entity = append(entity, instance...)
	out := make([]byte, 0, 32+len(entity))
	out = append(out, blake2b128([]byte(pallet))...)
	out = append(out, blake2b128(entity)...)
	out = append(out, entity...)
	return out
}

// StorageEntry is one key/value pair of the committed state.
type StorageEntry struct {
	Key   []byte
	Value []byte
}

// StorageEntries flattens the whole state into its canonical key/value
// form: the input to the state root and the rows the store persists.
// Per-block transients (outbound queues, the event sink) are excluded.
func StorageEntries(s *State) []StorageEntry {
	var out []StorageEntry
	add := func(pallet, item string, instance []byte, encode func(w *codec.Writer)) {
		w := codec.NewWriter()
		encode(w)
		out = append(out, StorageEntry{Key: StorageKey(pallet, item, instance), Value: w.Bytes()})
	}

	add(palletSystem, itemNumber, nil, func(w *codec.Writer) { w.PutU64(s.Height) })
	add(palletSystem, itemTimestamp, nil, func(w *codec.Writer) { w.PutU64(s.Timestamp) })
	add(palletSystem, itemParentHash, nil, func(w *codec.Writer) { w.PutRaw(s.ParentHash[:]) })
	for _, n := range s.NonceEntries() {
		n := n
		add(palletSystem, itemNonce, n.Account[:], func(w *codec.Writer) { w.PutU64(n.Nonce) })
	}

	for _, b := range s.Balances.Entries() {
		b := b
		kw := codec.NewWriter()
		kw.PutRaw(b.Account[:])
		b.Asset.Encode(kw)
		add(palletAssets, itemBalance, kw.Bytes(), func(w *codec.Writer) {
			w.PutU64(uint64(b.Entry.Free))
			w.PutU64(uint64(b.Entry.Reserved))
		})
	}
	for _, row := range s.Registry.Entries() {
		row := row
		kw := codec.NewWriter()
		kw.PutU32(uint32(row.Para))
		row.Remote.Encode(kw)
		add(palletAssets, itemRegistry, kw.Bytes(), func(w *codec.Writer) { w.PutU64(uint64(row.Local)) })
	}
	add(palletAssets, itemNextAssetID, nil, func(w *codec.Writer) { w.PutU64(uint64(s.Registry.NextID())) })

	for _, p := range s.Books.Pairs() {
		p := p
		kw := codec.NewWriter()
		p.Encode(kw)
		add(palletDex, itemPair, kw.Bytes(), func(w *codec.Writer) {})
	}
	for _, o := range s.Books.Orders() {
		o := o
		kw := codec.NewWriter()
		o.Pair.Encode(kw)
		kw.PutU64(uint64(o.ID))
		add(palletDex, itemOrder, kw.Bytes(), o.Encode)
	}
	nextID, nextSeq := s.Books.Counters()
	add(palletDex, itemNextOrderID, nil, func(w *codec.Writer) { w.PutU64(uint64(nextID)) })
	add(palletDex, itemNextSeq, nil, func(w *codec.Writer) { w.PutU64(nextSeq) })

	for _, ch := range s.Channels.Channels() {
		ch := ch
		kw := codec.NewWriter()
		kw.PutU32(uint32(ch.Peer))
		add(palletXcmp, itemChannel, kw.Bytes(), ch.Encode)
	}
	lastDown, nextUp, suspended := s.Channels.RelayState()
	add(palletXcmp, itemRelay, nil, func(w *codec.Writer) {
		w.PutU64(lastDown)
		w.PutU64(nextUp)
		w.PutBool(suspended)
	})

	return out
}

// StateRoot commits the full state: blake2b-256 leaves over the sorted
// entries, folded pairwise into a single digest. Two states agree on
// the root exactly when every entry agrees.
func StateRoot(s *State) [32]byte {
	entries := StorageEntries(s)
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	leaves := make([][32]byte, len(entries))
	for i, e := range entries {
		w := codec.NewWriter()
		w.PutBytes(e.Key)
		w.PutBytes(e.Value)
		leaves[i] = blake2b.Sum256(w.Bytes())
	}
	return merkleRoot(leaves)
}

// ExtrinsicsRoot commits a block's extrinsics in order.
func ExtrinsicsRoot(encoded [][]byte) [32]byte {
	leaves := make([][32]byte, len(encoded))
	for i, b := range encoded {
		leaves[i] = blake2b.Sum256(b)
	}
	return merkleRoot(leaves)
}

// merkleRoot folds leaves pairwise; an odd leaf is carried up
// unchanged. Zero leaves hash to the digest of the empty string.
func merkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return blake2b.Sum256(nil)
	}
	level := leaves
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			var pair [64]byte
			copy(pair[:32], level[i][:])
			copy(pair[32:], level[i+1][:])
			next = append(next, blake2b.Sum256(pair[:]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0]
}
