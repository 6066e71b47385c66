package service

import (
	"errors"
	"sync"

	"github.com/subdarkdex/subdex-parachain/runtime"
)

var (
	ErrBadExtrinsic = errors.New("service: undecodable extrinsic")
	ErrPoolFull     = errors.New("service: extrinsic pool is full")
	ErrDuplicate    = errors.New("service: extrinsic already pooled")
)

// Pool holds decoded extrinsics awaiting a block, in arrival order.
// Entries are keyed by extrinsic hash, so a client retrying a submit
// stays idempotent until the block lands.
type Pool struct {
	mu      sync.Mutex
	cap     int
	entries []poolEntry
	seen    map[[32]byte]struct{}
}

type poolEntry struct {
	ext  runtime.Extrinsic
	hash [32]byte
}

func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Pool{cap: capacity, seen: make(map[[32]byte]struct{})}
}

// Add pools one extrinsic and reports the pool depth after the add.
func (p *Pool) Add(ext runtime.Extrinsic) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) >= p.cap {
		return len(p.entries), ErrPoolFull
	}
	h := ext.Hash()
	if _, dup := p.seen[h]; dup {
		return len(p.entries), ErrDuplicate
	}
	p.seen[h] = struct{}{}
	p.entries = append(p.entries, poolEntry{ext: ext, hash: h})
	return len(p.entries), nil
}

// Drain removes up to max extrinsics in arrival order. Zero max means
// everything.
func (p *Pool) Drain(max int) []runtime.Extrinsic {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.entries)
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]runtime.Extrinsic, n)
	for i, e := range p.entries[:n] {
		out[i] = e.ext
		delete(p.seen, e.hash)
	}
	p.entries = p.entries[:copy(p.entries, p.entries[n:])]
	return out
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
