package runtime

import (
	"errors"
	"fmt"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

var (
	// ErrPhase means an executor method was called outside its place in
	// the block cycle. This is a programming error in the caller, never
	// a consequence of chain input.
	ErrPhase = errors.New("runtime: call out of block phase")

	// ErrInherent rejects a block whose height or timestamp inherent is
	// inconsistent with the current state.
	ErrInherent = errors.New("runtime: invalid inherent")

	ErrZeroAmount = errors.New("runtime: zero transfer amount")
	ErrBadCall    = errors.New("runtime: unknown call")
	ErrBadAsset   = errors.New("runtime: malformed asset naming")
	ErrBadPeer    = errors.New("runtime: invalid peer shard")
	ErrExpired    = errors.New("runtime: order already expired")
	ErrBadSig     = errors.New("runtime: bad signature")
	ErrBadNonce   = errors.New("runtime: nonce mismatch")

	// ErrReplayMismatch means re-executing a sealed block produced a
	// different header than the one on record.
	ErrReplayMismatch = errors.New("runtime: replay diverged from sealed header")
)

// ErrorKind buckets every way a dispatched call can fail. Ordering
// violations never surface here: they suspend a channel during inbound
// processing instead of failing an extrinsic.
type ErrorKind uint8

const (
	KindValidation           ErrorKind = 0
	KindInsufficientResource ErrorKind = 1
	KindOrderingViolation    ErrorKind = 2
	KindOwnership            ErrorKind = 3
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindOrderingViolation:
		return "ordering_violation"
	case KindOwnership:
		return "ownership"
	default:
		return fmt.Sprintf("error_kind(%d)", uint8(k))
	}
}

// DispatchError is the recorded failure of one extrinsic. It lives in
// the block event log, not in the Go error chain: a failed extrinsic is
// a normal block outcome, and the message text comes from sentinel
// errors so it is identical on every validator.
type DispatchError struct {
	Kind ErrorKind
	Msg  string
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e DispatchError) Encode(w *codec.Writer) {
	w.PutU8(byte(e.Kind))
	w.PutString(e.Msg)
}

func DecodeDispatchError(r *codec.Reader) DispatchError {
	var e DispatchError
	kind := ErrorKind(r.U8())
	if kind > KindOwnership {
		r.FailTag()
	}
	e.Kind = kind
	e.Msg = r.String()
	return e
}

func validation(err error) *DispatchError {
	return &DispatchError{Kind: KindValidation, Msg: err.Error()}
}

// classify maps a domain error onto the dispatch taxonomy.
func classify(err error) *DispatchError {
	kind := KindValidation
	switch {
	case errors.Is(err, assets.ErrInsufficientFree),
		errors.Is(err, assets.ErrInsufficientReserved),
		errors.Is(err, assets.ErrOverflow),
		errors.Is(err, xcmp.ErrQueueFull):
		kind = KindInsufficientResource
	case errors.Is(err, orderbook.ErrNotOwner):
		kind = KindOwnership
	}
	return &DispatchError{Kind: kind, Msg: err.Error()}
}

// must covers mutations that a completed plan phase has already proven
// valid. A failure here is a broken invariant and the node cannot
// continue on corrupt state.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("runtime: state mutation failed after checks: %v", err))
	}
}
