// Package assets holds the chain's economic primitives: account and
// asset identifiers, planck-denominated balances with overflow-checked
// arithmetic, the free/reserved balance ledger and the registry that
// maps remote shard assets onto local ids.
//
// Everything here is consensus state. Operations either succeed or
// return an error with no partial effect, and all arithmetic is exact
// integer math that fails loudly instead of wrapping.
package assets

import (
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/subdarkdex/subdex-parachain/codec"
)

// AccountID is a 32-byte account key, the public key of the signing
// scheme in use.
type AccountID [32]byte

func (a AccountID) String() string {
	return hex.EncodeToString(a[:4]) + ".." + hex.EncodeToString(a[28:])
}

// Hex returns the full lowercase hex form, as used in config files.
func (a AccountID) Hex() string {
	return hex.EncodeToString(a[:])
}

func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("account id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("account id %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParaID identifies a peer shard on the relay network.
type ParaID uint32

// AssetID identifies a registered parachain asset locally.
type AssetID uint64

// Balance counts plancks, the indivisible unit of every asset.
type Balance uint64

// AssetKind tags the Asset variant.
type AssetKind uint8

const (
	// KindMain is the chain's own native currency.
	KindMain AssetKind = 0
	// KindParachain is a registered asset minted on behalf of a remote
	// shard.
	KindParachain AssetKind = 1
)

// Asset is the two-variant asset identifier: the native currency, or a
// parachain asset by local id. The zero value is the native currency.
type Asset struct {
	Kind AssetKind
	ID   AssetID
}

func Main() Asset { return Asset{Kind: KindMain} }

func Parachain(id AssetID) Asset { return Asset{Kind: KindParachain, ID: id} }

func (a Asset) IsMain() bool { return a.Kind == KindMain }

func (a Asset) String() string {
	if a.Kind == KindMain {
		return "main"
	}
	return fmt.Sprintf("para:%d", a.ID)
}

// Less orders assets canonically: the native currency first, then
// parachain assets by id. Pair orientation and storage iteration both
// rely on this order.
func (a Asset) Less(b Asset) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func (a Asset) Encode(w *codec.Writer) {
	w.PutU8(byte(a.Kind))
	if a.Kind == KindParachain {
		w.PutU64(uint64(a.ID))
	}
}

func DecodeAsset(r *codec.Reader) Asset {
	switch kind := AssetKind(r.U8()); kind {
	case KindMain:
		return Main()
	case KindParachain:
		return Parachain(AssetID(r.U64()))
	default:
		r.FailTag()
		return Asset{}
	}
}

// AddBalance returns a+b, reporting false on overflow.
func AddBalance(a, b Balance) (Balance, bool) {
	s, carry := bits.Add64(uint64(a), uint64(b), 0)
	return Balance(s), carry == 0
}

// SubBalance returns a-b, reporting false on underflow.
func SubBalance(a, b Balance) (Balance, bool) {
	d, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	return Balance(d), borrow == 0
}

// MulBalance returns a*b, reporting false if the product does not fit.
// Quote-side order costs come through here, so matching never rounds.
func MulBalance(a, b Balance) (Balance, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return Balance(lo), hi == 0
}
