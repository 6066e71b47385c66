package runtime

import (
	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// EncodeState snapshots the full consensus state in canonical order.
// Snapshots bound replay on restart; parameters are node configuration
// and travel outside the snapshot.
func EncodeState(s *State) []byte {
	w := codec.NewWriter()
	w.PutU8(codec.FormatVersion)

	w.PutU64(s.Height)
	w.PutU64(s.Timestamp)
	w.PutRaw(s.ParentHash[:])

	nonces := s.NonceEntries()
	w.PutU32(uint32(len(nonces)))
	for _, n := range nonces {
		w.PutRaw(n.Account[:])
		w.PutU64(n.Nonce)
	}

	balances := s.Balances.Entries()
	w.PutU32(uint32(len(balances)))
	for _, b := range balances {
		w.PutRaw(b.Account[:])
		b.Asset.Encode(w)
		w.PutU64(uint64(b.Entry.Free))
		w.PutU64(uint64(b.Entry.Reserved))
	}

	rows := s.Registry.Entries()
	w.PutU32(uint32(len(rows)))
	for _, row := range rows {
		w.PutU32(uint32(row.Para))
		row.Remote.Encode(w)
		w.PutU64(uint64(row.Local))
	}
	w.PutU64(uint64(s.Registry.NextID()))

	pairs := s.Books.Pairs()
	w.PutU32(uint32(len(pairs)))
	for _, p := range pairs {
		p.Encode(w)
	}
	orders := s.Books.Orders()
	w.PutU32(uint32(len(orders)))
	for _, o := range orders {
		o.Encode(w)
	}
	nextID, nextSeq := s.Books.Counters()
	w.PutU64(uint64(nextID))
	w.PutU64(nextSeq)

	channels := s.Channels.Channels()
	w.PutU32(uint32(len(channels)))
	for _, ch := range channels {
		ch.Encode(w)
	}
	lastDown, nextUp, suspended := s.Channels.RelayState()
	w.PutU64(lastDown)
	w.PutU64(nextUp)
	w.PutBool(suspended)

	return w.Bytes()
}

// DecodeState rebuilds a state from a snapshot under the given
// parameters. Orders are reinstated through the book's restore path so
// price-time priority and the id counters come back exactly; balances
// land as-is because reservations are already folded into the entries.
func DecodeState(buf []byte, p Params) (*State, error) {
	r := codec.NewReader(buf)
	r.Version()

	s := &State{
		params:   p,
		Balances: assets.NewLedger(),
		Registry: assets.NewRegistry(0),
		Books:    orderbook.NewLedger(),
		Channels: xcmp.NewManager(p.Para, p.Limits),
		nonces:   make(map[assets.AccountID]uint64),
	}
	s.Engine = orderbook.NewEngine(s.Books, s.Balances, p.Fee)

	s.Height = r.U64()
	s.Timestamp = r.U64()
	s.ParentHash = r.Raw32()

	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		account := r.Raw32()
		s.nonces[account] = r.U64()
	}

	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		account := r.Raw32()
		asset := assets.DecodeAsset(r)
		entry := assets.Entry{
			Free:     assets.Balance(r.U64()),
			Reserved: assets.Balance(r.U64()),
		}
		s.Balances.Restore(account, asset, entry)
	}

	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		para := assets.ParaID(r.U32())
		remote := assets.DecodeRemoteAsset(r)
		local := assets.AssetID(r.U64())
		s.Registry.Restore(para, remote, local)
	}
	s.Registry.SetNextID(assets.AssetID(r.U64()))

	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		s.Books.RestorePair(orderbook.DecodePair(r))
	}
	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		s.Books.RestoreOrder(orderbook.DecodeOrder(r))
	}
	nextID := orderbook.OrderID(r.U64())
	nextSeq := r.U64()

	for n := r.U32(); n > 0 && r.Err() == nil; n-- {
		s.Channels.RestoreChannel(xcmp.DecodeChannel(r))
	}
	lastDown := r.U64()
	nextUp := r.U64()
	suspended := r.Bool()

	if err := r.Done(); err != nil {
		return nil, err
	}
	s.Books.SetCounters(nextID, nextSeq)
	s.Channels.RestoreRelayState(lastDown, nextUp, suspended)
	return s, nil
}
