package xcmp

import (
	"sort"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

// Limits bounds every queue the manager owns. All three are per block:
// outbound queues and the upward queue are drained at finalization, and
// the inbound staging bound caps how many messages one peer may land in
// a single batch.
type Limits struct {
	MaxOutboundPerChannel int
	MaxUpward             int
	MaxInboundPerChannel  int
}

// EffectHandler applies the state effects of inbound payloads. The
// manager owns sequencing and channel status; everything that touches
// balances lives behind this interface.
type EffectHandler interface {
	ApplyTransferToken(origin assets.ParaID, t TransferToken) error
	ApplyDownwardTransfer(t TransferInto) error
}

// Outcome classifies what ingesting one inbound message did.
type Outcome uint8

const (
	OutcomeApplied Outcome = iota
	// OutcomeChannelOpened means a handshake completed.
	OutcomeChannelOpened
	// OutcomeChannelClosed means the message closed a channel.
	OutcomeChannelClosed
	// OutcomeSuspended means this message violated ordering or flooded
	// staging and froze its channel.
	OutcomeSuspended
	// OutcomeRejected means the message was not applied and no sequence
	// advanced: unknown channel, closed channel, undecodable control.
	OutcomeRejected
	// OutcomeEffectFailed means sequencing accepted the message but its
	// effect failed; the sequence stays consumed so peers do not stall.
	OutcomeEffectFailed
)

// IngestResult reports one message's fate for the block event log. Peer
// is the channel the message acted on: the origin for horizontal
// traffic, the subject of the control payload for downward notices,
// zero for the relay direction itself.
type IngestResult struct {
	Msg     InboundMessage
	Peer    assets.ParaID
	Outcome Outcome
	Err     error
}

// Manager owns every channel of this shard plus the relay direction.
// It is single-writer consensus state: all mutation happens inside
// block execution.
type Manager struct {
	self     assets.ParaID
	limits   Limits
	channels map[assets.ParaID]*Channel

	upward        []UpwardMessage
	nextUpwardSeq uint64

	lastDownwardSeq uint64
	relaySuspended  bool
}

func NewManager(self assets.ParaID, limits Limits) *Manager {
	return &Manager{
		self:          self,
		limits:        limits,
		channels:      make(map[assets.ParaID]*Channel),
		nextUpwardSeq: 1,
	}
}

func (m *Manager) Self() assets.ParaID { return m.self }

func (m *Manager) Channel(peer assets.ParaID) (*Channel, bool) {
	ch, ok := m.channels[peer]
	return ch, ok
}

// Status treats an absent channel as Uninitialized.
func (m *Manager) Status(peer assets.ParaID) ChannelStatus {
	if ch, ok := m.channels[peer]; ok {
		return ch.Status
	}
	return StatusUninitialized
}

// Channels lists all materialized channels ordered by peer id.
func (m *Manager) Channels() []*Channel {
	out := make([]*Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

// OpenChannel starts the handshake with a peer: it files an upward open
// request and moves the channel to Opening. A second call while the
// request is pending is a no-op success; a completed channel rejects
// with ErrAlreadyOpen. The reported bool says whether a new request was
// filed.
func (m *Manager) OpenChannel(peer assets.ParaID) (bool, error) {
	switch m.Status(peer) {
	case StatusOpen, StatusSuspended:
		return false, ErrAlreadyOpen
	case StatusClosed:
		return false, ErrChannelClosed
	case StatusOpening:
		return false, nil
	}
	if _, err := m.EnqueueUpward(KindUpOpenChannel, ChannelControl{Peer: peer}.EncodePayload()); err != nil {
		return false, err
	}
	ch := m.materialize(peer)
	ch.Status = StatusOpening
	return true, nil
}

// CloseChannel closes our side and files the upward close request that
// tells the relay (and through it the peer). Messages already queued
// outbound still drain at finalization; the peer's own record closes
// when the relay's notice reaches it.
func (m *Manager) CloseChannel(peer assets.ParaID) error {
	switch m.Status(peer) {
	case StatusUninitialized:
		return ErrChannelNotOpen
	case StatusClosed:
		return ErrChannelClosed
	}
	if _, err := m.EnqueueUpward(KindUpCloseChannel, ChannelControl{Peer: peer}.EncodePayload()); err != nil {
		return err
	}
	m.channels[peer].Status = StatusClosed
	return nil
}

// EnqueueOutbound queues one horizontal message and returns its
// sequence number. Only Open channels send; a full queue is the
// backpressure signal and rejects the caller.
func (m *Manager) EnqueueOutbound(peer assets.ParaID, kind Kind, payload []byte) (uint64, error) {
	ch, ok := m.channels[peer]
	if !ok || ch.Status != StatusOpen {
		return 0, ErrChannelNotOpen
	}
	if len(ch.Outbound) >= m.limits.MaxOutboundPerChannel {
		return 0, ErrQueueFull
	}
	seq := ch.NextOutboundSeq
	ch.NextOutboundSeq++
	ch.Outbound = append(ch.Outbound, Message{
		Origin:  m.self,
		Dest:    peer,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
	})
	return seq, nil
}

// EnqueueUpward queues one message for the relay chain.
func (m *Manager) EnqueueUpward(kind Kind, payload []byte) (uint64, error) {
	if len(m.upward) >= m.limits.MaxUpward {
		return 0, ErrQueueFull
	}
	seq := m.nextUpwardSeq
	m.nextUpwardSeq++
	m.upward = append(m.upward, UpwardMessage{Seq: seq, Kind: kind, Payload: payload})
	return seq, nil
}

// DrainOutbound moves every queued horizontal message out, peers in
// ascending id order and FIFO within a peer.
func (m *Manager) DrainOutbound() []Message {
	var out []Message
	for _, ch := range m.Channels() {
		out = append(out, ch.Outbound...)
		ch.Outbound = nil
	}
	return out
}

// DrainUpward moves the upward queue out in FIFO order.
func (m *Manager) DrainUpward() []UpwardMessage {
	out := m.upward
	m.upward = nil
	return out
}

// IngestInbound applies one block's relay-attested batch in the exact
// order given. Sequencing is enforced per channel: anything other than
// last_processed+1 suspends that channel and every later message of the
// batch for it is skipped. The returned results parallel the batch.
func (m *Manager) IngestInbound(batch []InboundMessage, effects EffectHandler) []IngestResult {
	results := make([]IngestResult, 0, len(batch))
	staged := make(map[assets.ParaID]int)
	for _, msg := range batch {
		var res IngestResult
		if msg.FromRelay {
			res = m.ingestDownward(msg, effects)
		} else {
			res = m.ingestHorizontal(msg, effects, staged)
		}
		res.Msg = msg
		results = append(results, res)
	}
	return results
}

func (m *Manager) ingestDownward(msg InboundMessage, effects EffectHandler) IngestResult {
	if m.relaySuspended {
		return IngestResult{Outcome: OutcomeRejected, Err: ErrChannelNotOpen}
	}
	if msg.Seq != m.lastDownwardSeq+1 {
		m.relaySuspended = true
		return IngestResult{Outcome: OutcomeSuspended, Err: ErrOrderingViolation}
	}
	m.lastDownwardSeq++

	switch msg.Kind {
	case KindDownTransferInto:
		t, err := DecodeTransferInto(msg.Payload)
		if err != nil {
			return IngestResult{Outcome: OutcomeRejected, Err: err}
		}
		if err := effects.ApplyDownwardTransfer(t); err != nil {
			return IngestResult{Outcome: OutcomeEffectFailed, Err: err}
		}
		return IngestResult{Outcome: OutcomeApplied}
	case KindDownChannelAccepted:
		c, err := DecodeChannelControl(msg.Payload)
		if err != nil {
			return IngestResult{Outcome: OutcomeRejected, Err: err}
		}
		if m.handleAccepted(c.Peer) {
			return IngestResult{Peer: c.Peer, Outcome: OutcomeChannelOpened}
		}
		return IngestResult{Peer: c.Peer, Outcome: OutcomeApplied}
	case KindDownChannelClosed:
		c, err := DecodeChannelControl(msg.Payload)
		if err != nil {
			return IngestResult{Outcome: OutcomeRejected, Err: err}
		}
		if m.handleClosed(c.Peer) {
			return IngestResult{Peer: c.Peer, Outcome: OutcomeChannelClosed}
		}
		return IngestResult{Peer: c.Peer, Outcome: OutcomeApplied}
	default:
		return IngestResult{Outcome: OutcomeRejected, Err: ErrUnknownKind}
	}
}

func (m *Manager) ingestHorizontal(msg InboundMessage, effects EffectHandler, staged map[assets.ParaID]int) IngestResult {
	peer := msg.Origin
	ch, ok := m.channels[peer]
	if !ok || ch.Status == StatusUninitialized {
		return IngestResult{Peer: peer, Outcome: OutcomeRejected, Err: ErrUnknownChannel}
	}
	switch ch.Status {
	case StatusClosed:
		return IngestResult{Peer: peer, Outcome: OutcomeRejected, Err: ErrChannelClosed}
	case StatusSuspended:
		return IngestResult{Peer: peer, Outcome: OutcomeRejected, Err: ErrChannelNotOpen}
	case StatusOpening:
		// The relay delivering peer traffic implies the handshake went
		// through even if our accept notice is still in flight.
		ch.Status = StatusOpen
	}

	staged[peer]++
	if staged[peer] > m.limits.MaxInboundPerChannel {
		ch.Status = StatusSuspended
		return IngestResult{Peer: peer, Outcome: OutcomeSuspended, Err: ErrQueueFull}
	}
	if msg.Seq != ch.LastInboundSeq+1 {
		ch.Status = StatusSuspended
		return IngestResult{Peer: peer, Outcome: OutcomeSuspended, Err: ErrOrderingViolation}
	}
	ch.LastInboundSeq++

	switch msg.Kind {
	case KindTransferToken:
		t, err := DecodeTransferToken(msg.Payload)
		if err != nil {
			return IngestResult{Peer: peer, Outcome: OutcomeRejected, Err: err}
		}
		if err := effects.ApplyTransferToken(peer, t); err != nil {
			return IngestResult{Peer: peer, Outcome: OutcomeEffectFailed, Err: err}
		}
		return IngestResult{Peer: peer, Outcome: OutcomeApplied}
	case KindChannelClose:
		ch.Status = StatusClosed
		return IngestResult{Peer: peer, Outcome: OutcomeChannelClosed}
	default:
		return IngestResult{Peer: peer, Outcome: OutcomeRejected, Err: ErrUnknownKind}
	}
}

func (m *Manager) handleAccepted(peer assets.ParaID) bool {
	ch := m.materialize(peer)
	switch ch.Status {
	case StatusUninitialized, StatusOpening:
		ch.Status = StatusOpen
		return true
	default:
		return false
	}
}

func (m *Manager) handleClosed(peer assets.ParaID) bool {
	ch := m.materialize(peer)
	if ch.Status == StatusClosed {
		return false
	}
	ch.Status = StatusClosed
	return true
}

func (m *Manager) materialize(peer assets.ParaID) *Channel {
	ch, ok := m.channels[peer]
	if !ok {
		ch = newChannel(peer)
		m.channels[peer] = ch
	}
	return ch
}

// RelayState exposes the relay-direction cursors for state encoding.
func (m *Manager) RelayState() (lastDownward, nextUpward uint64, suspended bool) {
	return m.lastDownwardSeq, m.nextUpwardSeq, m.relaySuspended
}

// RestoreChannel reinstates a channel row when rebuilding state.
func (m *Manager) RestoreChannel(ch *Channel) {
	m.channels[ch.Peer] = ch
}

// RestoreRelayState reinstates the relay cursors when rebuilding state.
func (m *Manager) RestoreRelayState(lastDownward, nextUpward uint64, suspended bool) {
	m.lastDownwardSeq = lastDownward
	m.nextUpwardSeq = nextUpward
	m.relaySuspended = suspended
}
