package assets

import (
	"sort"

	"github.com/subdarkdex/subdex-parachain/codec"
)

// RemoteAsset names an asset from the sending shard's point of view:
// the shard's own main currency, or one of its asset ids. Transfer
// payloads carry this form; the registry maps it onto a local Asset.
type RemoteAsset struct {
	// Registered is false when the remote side means its main currency.
	Registered bool
	ID         AssetID
}

func RemoteMain() RemoteAsset { return RemoteAsset{} }

func RemoteID(id AssetID) RemoteAsset { return RemoteAsset{Registered: true, ID: id} }

func (ra RemoteAsset) Encode(w *codec.Writer) {
	w.PutBool(ra.Registered)
	if ra.Registered {
		w.PutU64(uint64(ra.ID))
	}
}

func DecodeRemoteAsset(r *codec.Reader) RemoteAsset {
	if r.Bool() {
		return RemoteID(AssetID(r.U64()))
	}
	return RemoteMain()
}

type remoteKey struct {
	Para   ParaID
	Remote RemoteAsset
}

// RegistryEntry is one mapping row in canonical iteration order.
type RegistryEntry struct {
	Para   ParaID
	Remote RemoteAsset
	Local  AssetID
}

// Registry assigns local asset ids to (shard, remote asset) pairs. The
// first inbound transfer of an unknown remote asset registers it under
// the next free id; the mapping is append-only and part of consensus
// state. A local id with no row is a home-issued asset.
type Registry struct {
	byRemote map[remoteKey]AssetID
	byLocal  map[AssetID]remoteKey
	next     AssetID
}

func NewRegistry(nextID AssetID) *Registry {
	return &Registry{
		byRemote: make(map[remoteKey]AssetID),
		byLocal:  make(map[AssetID]remoteKey),
		next:     nextID,
	}
}

// NextID is the id the next registration will receive.
func (g *Registry) NextID() AssetID { return g.next }

// Resolve returns the local asset for a remote one, if registered.
func (g *Registry) Resolve(para ParaID, remote RemoteAsset) (Asset, bool) {
	id, ok := g.byRemote[remoteKey{para, remote}]
	if !ok {
		return Asset{}, false
	}
	return Parachain(id), true
}

// ResolveOrRegister resolves, registering under the next free id on a
// miss. It reports whether a new id was assigned.
func (g *Registry) ResolveOrRegister(para ParaID, remote RemoteAsset) (Asset, bool) {
	k := remoteKey{para, remote}
	if id, ok := g.byRemote[k]; ok {
		return Parachain(id), false
	}
	id := g.next
	g.byRemote[k] = id
	g.byLocal[id] = k
	g.next++
	return Parachain(id), true
}

// RemoteOf returns the home naming of a local id. A miss means the
// asset was issued here and travels under this shard's own name.
func (g *Registry) RemoteOf(local AssetID) (ParaID, RemoteAsset, bool) {
	k, ok := g.byLocal[local]
	return k.Para, k.Remote, ok
}

// Restore reinstates a mapping row, used when rebuilding state.
func (g *Registry) Restore(para ParaID, remote RemoteAsset, local AssetID) {
	k := remoteKey{para, remote}
	g.byRemote[k] = local
	g.byLocal[local] = k
}

// SetNextID reinstates the auto-registration cursor when rebuilding.
func (g *Registry) SetNextID(next AssetID) { g.next = next }

// Entries returns all rows sorted by shard, then main-currency first,
// then remote id.
func (g *Registry) Entries() []RegistryEntry {
	out := make([]RegistryEntry, 0, len(g.byRemote))
	for k, v := range g.byRemote {
		out = append(out, RegistryEntry{Para: k.Para, Remote: k.Remote, Local: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Para != b.Para {
			return a.Para < b.Para
		}
		if a.Remote.Registered != b.Remote.Registered {
			return !a.Remote.Registered
		}
		return a.Remote.ID < b.Remote.ID
	})
	return out
}
