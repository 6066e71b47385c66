package runtime

import (
	"fmt"
	"sort"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// Params are the consensus constants of a chain. They come from the
// chain spec, never change at runtime, and must match on every
// validator.
type Params struct {
	Para assets.ParaID
	// MinimumPeriod is the least timestamp advance between blocks, in
	// milliseconds.
	MinimumPeriod uint64
	Fee           orderbook.FeeSchedule
	Limits        xcmp.Limits
}

// Genesis describes block zero: the chain constants plus the initial
// endowments and markets.
type Genesis struct {
	Params
	Balances    []GenesisBalance
	Pairs       []GenesisPair
	NextAssetID assets.AssetID
}

type GenesisBalance struct {
	Account assets.AccountID
	Asset   assets.Asset
	Amount  assets.Balance
}

type GenesisPair struct {
	Base  assets.Asset
	Quote assets.Asset
}

// State is the full consensus state of the shard. It is mutated only by
// the executor during block execution, single-threaded; everything else
// holds it read-only between blocks.
type State struct {
	params Params

	Height     uint64
	Timestamp  uint64
	ParentHash [32]byte

	Balances *assets.Ledger
	Registry *assets.Registry
	Books    *orderbook.Ledger
	Engine   *orderbook.Engine
	Channels *xcmp.Manager

	nonces map[assets.AccountID]uint64
	events []Event
}

// NewState builds the genesis state. Everything is validated up front:
// a Genesis that constructs is a Genesis every validator agrees on.
func NewState(g Genesis) (*State, error) {
	if g.Para == xcmp.RelayID {
		return nil, fmt.Errorf("genesis: shard id %d is reserved for the relay", g.Para)
	}
	s := &State{
		params:   g.Params,
		Balances: assets.NewLedger(),
		Registry: assets.NewRegistry(g.NextAssetID),
		Books:    orderbook.NewLedger(),
		Channels: xcmp.NewManager(g.Para, g.Limits),
		nonces:   make(map[assets.AccountID]uint64),
	}
	s.Engine = orderbook.NewEngine(s.Books, s.Balances, g.Fee)

	for _, b := range g.Balances {
		if !b.Asset.IsMain() && b.Asset.ID >= g.NextAssetID {
			return nil, fmt.Errorf("genesis: asset %s collides with the auto-registration space (next %d)",
				b.Asset, g.NextAssetID)
		}
		if err := s.Balances.Mint(b.Account, b.Asset, b.Amount); err != nil {
			return nil, fmt.Errorf("genesis: endow %s with %d %s: %w", b.Account, b.Amount, b.Asset, err)
		}
	}
	for _, p := range g.Pairs {
		if _, err := s.Books.CreatePair(p.Base, p.Quote); err != nil {
			return nil, fmt.Errorf("genesis: pair %s/%s: %w", p.Base, p.Quote, err)
		}
	}
	return s, nil
}

func (s *State) Params() Params { return s.params }

func (s *State) Para() assets.ParaID { return s.params.Para }

// NonceOf returns the account's next expected nonce, starting at zero.
func (s *State) NonceOf(account assets.AccountID) uint64 {
	return s.nonces[account]
}

func (s *State) bumpNonce(account assets.AccountID) {
	s.nonces[account]++
}

// NonceEntry is one account nonce row in canonical iteration order.
type NonceEntry struct {
	Account assets.AccountID
	Nonce   uint64
}

func (s *State) NonceEntries() []NonceEntry {
	out := make([]NonceEntry, 0, len(s.nonces))
	for a, n := range s.nonces {
		out = append(out, NonceEntry{Account: a, Nonce: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Account[:]) < string(out[j].Account[:])
	})
	return out
}

func (s *State) emit(ev Event) {
	s.events = append(s.events, ev)
}

func (s *State) resetEvents() {
	s.events = nil
}

func (s *State) takeEvents() []Event {
	ev := s.events
	s.events = nil
	return ev
}

// ApplyTransferToken is the inbound half of a horizontal teleport.
// Asset naming is by home shard: our own naming unwraps to the local
// id, the relay's naming means the native currency, anything else
// resolves through the registry, registering on first sight.
func (s *State) ApplyTransferToken(origin assets.ParaID, t xcmp.TransferToken) error {
	if t.Amount == 0 {
		return ErrZeroAmount
	}
	var local assets.Asset
	switch {
	case t.Owner == xcmp.RelayID:
		if t.Asset.Registered {
			return ErrBadAsset
		}
		local = assets.Main()
	case t.Owner == s.params.Para:
		if !t.Asset.Registered {
			return ErrBadAsset
		}
		local = assets.Parachain(t.Asset.ID)
	default:
		if resolved, ok := s.Registry.Resolve(t.Owner, t.Asset); ok {
			local = resolved
		} else {
			// A freshly registered asset has no holders yet, so the
			// hold check below cannot fail for it.
			local, _ = s.Registry.ResolveOrRegister(t.Owner, t.Asset)
			s.emit(AssetRegistered{Owner: t.Owner, Remote: t.Asset, Local: local.ID})
		}
	}
	if !s.Balances.CanHold(t.Dest, local, t.Amount) {
		return assets.ErrOverflow
	}
	must(s.Balances.Mint(t.Dest, local, t.Amount))
	s.emit(DepositViaXCMP{Origin: origin, Dest: t.Dest, Asset: local, Amount: t.Amount})
	return nil
}

// ApplyDownwardTransfer mints native currency moved down from the
// relay chain.
func (s *State) ApplyDownwardTransfer(t xcmp.TransferInto) error {
	if t.Amount == 0 {
		return ErrZeroAmount
	}
	if !s.Balances.CanHold(t.Dest, assets.Main(), t.Amount) {
		return assets.ErrOverflow
	}
	must(s.Balances.Mint(t.Dest, assets.Main(), t.Amount))
	s.emit(TransferredFromRelay{Dest: t.Dest, Amount: t.Amount})
	return nil
}
