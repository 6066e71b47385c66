package runtime

import (
	"fmt"

	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// Phase names the pipeline step the executor expects next. Block
// execution is strictly ordered: InitBlock, ApplyInbound,
// ApplyExtrinsics, Finalize. Each step checks it is the one due and
// rejects with ErrPhase otherwise, so a caller bug cannot reorder the
// transition and fork replicas.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInbound
	PhaseExtrinsics
	PhaseFinalizing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInbound:
		return "inbound"
	case PhaseExtrinsics:
		return "extrinsics"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Inherents are the unsigned per-block values the block author injects.
type Inherents struct {
	Height    uint64
	Timestamp uint64
}

// OutboundBundle is everything a finalized block hands to transport.
type OutboundBundle struct {
	Horizontal []xcmp.Message
	Upward     []xcmp.UpwardMessage
}

// BlockResult carries a sealed block's artifacts: the header, the
// events it emitted, and the messages it queued for other shards.
type BlockResult struct {
	Header   Header
	Events   []Event
	Outbound OutboundBundle
}

// Executor drives the state through the block pipeline, one block at a
// time. It is not safe for concurrent use; the node serializes all
// block authoring and replay onto a single goroutine.
type Executor struct {
	state    *State
	verifier SignatureVerifier

	phase       Phase
	encodedExts [][]byte
}

func NewExecutor(state *State, verifier SignatureVerifier) *Executor {
	return &Executor{state: state, verifier: verifier}
}

func (e *Executor) State() *State { return e.state }

func (e *Executor) Phase() Phase { return e.phase }

// InitBlock validates the inherents and opens the block. The height
// must be exactly one past the current head, and the timestamp must
// have advanced by at least the minimum period; the first block after
// genesis accepts any timestamp. A rejected inherent leaves the state
// untouched and the executor idle.
func (e *Executor) InitBlock(in Inherents) error {
	if e.phase != PhaseIdle {
		return fmt.Errorf("%w: InitBlock in phase %s", ErrPhase, e.phase)
	}
	if in.Height != e.state.Height+1 {
		return fmt.Errorf("%w: height %d does not follow head %d", ErrInherent, in.Height, e.state.Height)
	}
	if e.state.Height > 0 && in.Timestamp < e.state.Timestamp+e.state.params.MinimumPeriod {
		return fmt.Errorf("%w: timestamp %d within minimum period of %d", ErrInherent, in.Timestamp, e.state.Timestamp)
	}
	e.state.resetEvents()
	e.state.Height = in.Height
	e.state.Timestamp = in.Timestamp
	e.encodedExts = nil
	e.phase = PhaseInbound
	return nil
}

// ApplyInbound ingests the relay-attested inbound batch in the exact
// order given and emits channel lifecycle events for the outcomes that
// change a channel. Transfer effects emit their own events from inside
// the effect handler.
func (e *Executor) ApplyInbound(batch []xcmp.InboundMessage) ([]xcmp.IngestResult, error) {
	if e.phase != PhaseInbound {
		return nil, fmt.Errorf("%w: ApplyInbound in phase %s", ErrPhase, e.phase)
	}
	results := e.state.Channels.IngestInbound(batch, e.state)
	for _, res := range results {
		switch res.Outcome {
		case xcmp.OutcomeChannelOpened:
			e.state.emit(ChannelOpened{Peer: res.Peer})
		case xcmp.OutcomeChannelClosed:
			e.state.emit(ChannelClosed{Peer: res.Peer})
		case xcmp.OutcomeSuspended:
			e.state.emit(ChannelSuspended{Peer: res.Peer, Seq: res.Msg.Seq, Relay: res.Msg.FromRelay})
		}
	}
	e.phase = PhaseExtrinsics
	return results, nil
}

// ApplyExtrinsics applies the block body in order. Every extrinsic
// that made it into the block is committed to the extrinsics root
// whether or not it dispatched; failures surface as ExtrinsicFailed
// events and never abort the block.
func (e *Executor) ApplyExtrinsics(exts []Extrinsic) error {
	if e.phase != PhaseExtrinsics {
		return fmt.Errorf("%w: ApplyExtrinsics in phase %s", ErrPhase, e.phase)
	}
	for i, ext := range exts {
		e.encodedExts = append(e.encodedExts, ext.EncodeToBytes())
		e.applyExtrinsic(uint32(i), ext)
	}
	e.phase = PhaseFinalizing
	return nil
}

// applyExtrinsic checks signature and nonce, spends the nonce, then
// dispatches. A bad signature or stale nonce spends nothing; once both
// pass, the nonce is consumed even when the dispatch fails, so a
// failed call cannot be replayed verbatim.
func (e *Executor) applyExtrinsic(index uint32, ext Extrinsic) {
	if !e.verifier.Verify(ext.Signer, ext.SigningPayload(), ext.Signature) {
		e.state.emit(ExtrinsicFailed{Index: index, Signer: ext.Signer, Err: *validation(ErrBadSig)})
		return
	}
	if ext.Nonce != e.state.NonceOf(ext.Signer) {
		e.state.emit(ExtrinsicFailed{Index: index, Signer: ext.Signer, Err: *validation(ErrBadNonce)})
		return
	}
	e.state.bumpNonce(ext.Signer)
	if derr := e.state.dispatch(ext.Signer, ext.Call); derr != nil {
		e.state.emit(ExtrinsicFailed{Index: index, Signer: ext.Signer, Err: *derr})
		return
	}
	e.state.emit(ExtrinsicApplied{Index: index, Signer: ext.Signer})
}

// Finalize drains the outbound queues, seals the header, and returns
// the block's artifacts. The state's parent hash advances to this
// header's hash so the next InitBlock chains onto it.
func (e *Executor) Finalize() (*BlockResult, error) {
	if e.phase != PhaseFinalizing {
		return nil, fmt.Errorf("%w: Finalize in phase %s", ErrPhase, e.phase)
	}
	outbound := OutboundBundle{
		Horizontal: e.state.Channels.DrainOutbound(),
		Upward:     e.state.Channels.DrainUpward(),
	}
	header := Header{
		Height:         e.state.Height,
		ParentHash:     e.state.ParentHash,
		StateRoot:      StateRoot(e.state),
		ExtrinsicsRoot: ExtrinsicsRoot(e.encodedExts),
	}
	e.state.ParentHash = header.Hash()
	events := e.state.takeEvents()
	e.encodedExts = nil
	e.phase = PhaseIdle
	return &BlockResult{Header: header, Events: events, Outbound: outbound}, nil
}

// ExecuteBlock replays one sealed block through the full pipeline and
// checks the produced header against the sealed one. Any divergence
// means the journal and the code disagree about history, which is
// fatal for the caller.
func (e *Executor) ExecuteBlock(b *Block) (*BlockResult, error) {
	if err := e.InitBlock(Inherents{Height: b.Header.Height, Timestamp: b.Timestamp}); err != nil {
		return nil, err
	}
	if _, err := e.ApplyInbound(b.Inbound); err != nil {
		return nil, err
	}
	if err := e.ApplyExtrinsics(b.Extrinsics); err != nil {
		return nil, err
	}
	res, err := e.Finalize()
	if err != nil {
		return nil, err
	}
	if res.Header != b.Header {
		return nil, fmt.Errorf("%w: height %d", ErrReplayMismatch, b.Header.Height)
	}
	return res, nil
}
