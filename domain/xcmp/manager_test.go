package xcmp

import (
	"errors"
	"testing"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

type recordedTransfer struct {
	origin assets.ParaID
	t      TransferToken
}

type recordingEffects struct {
	transfers []recordedTransfer
	downward  []TransferInto
	fail      error
}

func (e *recordingEffects) ApplyTransferToken(origin assets.ParaID, t TransferToken) error {
	if e.fail != nil {
		return e.fail
	}
	e.transfers = append(e.transfers, recordedTransfer{origin, t})
	return nil
}

func (e *recordingEffects) ApplyDownwardTransfer(t TransferInto) error {
	if e.fail != nil {
		return e.fail
	}
	e.downward = append(e.downward, t)
	return nil
}

func testLimits() Limits {
	return Limits{MaxOutboundPerChannel: 4, MaxUpward: 4, MaxInboundPerChannel: 16}
}

func openPeer(t *testing.T, m *Manager, peer assets.ParaID) {
	t.Helper()
	if _, err := m.OpenChannel(peer); err != nil {
		t.Fatalf("open %d: %v", peer, err)
	}
	if !m.handleAccepted(peer) {
		t.Fatalf("accept %d did not open", peer)
	}
}

func transferPayload(b byte, amount assets.Balance, owner assets.ParaID) []byte {
	var dest assets.AccountID
	dest[0] = b
	return TransferToken{Dest: dest, Amount: amount, Owner: owner, Asset: assets.RemoteMain()}.EncodePayload()
}

func TestOpenHandshake(t *testing.T) {
	m := NewManager(100, testLimits())

	requested, err := m.OpenChannel(200)
	if err != nil || !requested {
		t.Fatalf("first open = (%v, %v)", requested, err)
	}
	if got := m.Status(200); got != StatusOpening {
		t.Fatalf("status = %v, want opening", got)
	}
	// A pending request makes a second open a no-op success.
	requested, err = m.OpenChannel(200)
	if err != nil || requested {
		t.Fatalf("second open = (%v, %v)", requested, err)
	}

	// Exactly one upward open request was filed.
	up := m.DrainUpward()
	if len(up) != 1 || up[0].Kind != KindUpOpenChannel || up[0].Seq != 1 {
		t.Fatalf("upward = %+v", up)
	}

	if !m.handleAccepted(200) {
		t.Fatal("accept did not open the channel")
	}
	if got := m.Status(200); got != StatusOpen {
		t.Fatalf("status = %v, want open", got)
	}
	// Open channels reject another open.
	if _, err := m.OpenChannel(200); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("open while open = %v", err)
	}
	// The accept notice is idempotent.
	if m.handleAccepted(200) {
		t.Fatal("second accept reported a transition")
	}
}

func TestPeerInitiatedOpen(t *testing.T) {
	m := NewManager(100, testLimits())
	// The relay can open a channel we never requested.
	if !m.handleAccepted(300) {
		t.Fatal("unsolicited accept did not open")
	}
	if got := m.Status(300); got != StatusOpen {
		t.Fatalf("status = %v", got)
	}
}

func TestEnqueueRequiresOpen(t *testing.T) {
	m := NewManager(100, testLimits())
	if _, err := m.EnqueueOutbound(200, KindTransferToken, nil); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("enqueue uninitialized = %v", err)
	}
	if _, err := m.OpenChannel(200); err != nil {
		t.Fatal(err)
	}
	// Opening is not Open yet.
	if _, err := m.EnqueueOutbound(200, KindTransferToken, nil); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("enqueue while opening = %v", err)
	}
}

func TestOutboundQueueBackpressure(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)

	for i := 0; i < testLimits().MaxOutboundPerChannel; i++ {
		seq, err := m.EnqueueOutbound(200, KindTransferToken, nil)
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
		if want := uint64(i + 1); seq != want {
			t.Fatalf("seq = %d, want %d", seq, want)
		}
	}
	// The queue is at capacity: the next call must reject, not drop.
	if _, err := m.EnqueueOutbound(200, KindTransferToken, nil); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("enqueue at capacity = %v", err)
	}
	ch, _ := m.Channel(200)
	if got := len(ch.Outbound); got != testLimits().MaxOutboundPerChannel {
		t.Fatalf("queue length = %d", got)
	}
	// Sequence numbers were not burned by the rejected call.
	if ch.NextOutboundSeq != uint64(testLimits().MaxOutboundPerChannel)+1 {
		t.Fatalf("next seq = %d", ch.NextOutboundSeq)
	}
}

func TestDrainOutboundOrder(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 300)
	openPeer(t, m, 200)

	if _, err := m.EnqueueOutbound(300, KindTransferToken, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnqueueOutbound(200, KindTransferToken, []byte{2}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnqueueOutbound(300, KindTransferToken, []byte{3}); err != nil {
		t.Fatal(err)
	}

	msgs := m.DrainOutbound()
	if len(msgs) != 3 {
		t.Fatalf("drained %d messages", len(msgs))
	}
	// Peers ascending, FIFO within a peer.
	if msgs[0].Dest != 200 || msgs[1].Dest != 300 || msgs[2].Dest != 300 {
		t.Fatalf("dest order = %d,%d,%d", msgs[0].Dest, msgs[1].Dest, msgs[2].Dest)
	}
	if msgs[1].Seq != 1 || msgs[2].Seq != 2 {
		t.Fatalf("seqs = %d,%d", msgs[1].Seq, msgs[2].Seq)
	}
	for _, msg := range msgs {
		if msg.Origin != 100 {
			t.Fatalf("origin = %d", msg.Origin)
		}
	}
	if again := m.DrainOutbound(); len(again) != 0 {
		t.Fatalf("second drain = %d messages", len(again))
	}
}

func TestIngestSequenceGapSuspends(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	eff := &recordingEffects{}

	batch := []InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
		{Origin: 200, Seq: 2, Kind: KindTransferToken, Payload: transferPayload(2, 20, 200)},
		{Origin: 200, Seq: 4, Kind: KindTransferToken, Payload: transferPayload(3, 30, 200)},
	}
	results := m.IngestInbound(batch, eff)

	if results[0].Outcome != OutcomeApplied || results[1].Outcome != OutcomeApplied {
		t.Fatalf("first two outcomes = %v, %v", results[0].Outcome, results[1].Outcome)
	}
	if results[2].Outcome != OutcomeSuspended || !errors.Is(results[2].Err, ErrOrderingViolation) {
		t.Fatalf("gap outcome = %v err %v", results[2].Outcome, results[2].Err)
	}
	if len(eff.transfers) != 2 {
		t.Fatalf("applied %d transfers", len(eff.transfers))
	}
	ch, _ := m.Channel(200)
	if ch.Status != StatusSuspended || ch.LastInboundSeq != 2 {
		t.Fatalf("channel = %v last=%d", ch.Status, ch.LastInboundSeq)
	}
}

func TestIngestDuplicateSuspends(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	eff := &recordingEffects{}

	batch := []InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
	}
	results := m.IngestInbound(batch, eff)
	if results[1].Outcome != OutcomeSuspended {
		t.Fatalf("replay outcome = %v", results[1].Outcome)
	}
	// The duplicate's effect must not have applied twice.
	if len(eff.transfers) != 1 {
		t.Fatalf("applied %d transfers", len(eff.transfers))
	}
}

func TestSuspensionIsolatesPeer(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	openPeer(t, m, 300)
	eff := &recordingEffects{}

	batch := []InboundMessage{
		{Origin: 200, Seq: 5, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
		{Origin: 300, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(2, 20, 300)},
	}
	results := m.IngestInbound(batch, eff)
	if results[0].Outcome != OutcomeSuspended {
		t.Fatalf("peer 200 = %v", results[0].Outcome)
	}
	if results[1].Outcome != OutcomeApplied {
		t.Fatalf("peer 300 = %v", results[1].Outcome)
	}
	if m.Status(200) != StatusSuspended || m.Status(300) != StatusOpen {
		t.Fatalf("statuses = %v, %v", m.Status(200), m.Status(300))
	}
}

func TestSuspendedChannelRejectsEverything(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	eff := &recordingEffects{}

	m.IngestInbound([]InboundMessage{
		{Origin: 200, Seq: 7, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
	}, eff)
	if m.Status(200) != StatusSuspended {
		t.Fatal("channel not suspended")
	}
	// Neither inbound nor outbound flows on a suspended channel.
	results := m.IngestInbound([]InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
	}, eff)
	if results[0].Outcome != OutcomeRejected {
		t.Fatalf("inbound on suspended = %v", results[0].Outcome)
	}
	if _, err := m.EnqueueOutbound(200, KindTransferToken, nil); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("outbound on suspended = %v", err)
	}
}

func TestInboundStagingBound(t *testing.T) {
	limits := testLimits()
	limits.MaxInboundPerChannel = 2
	m := NewManager(100, limits)
	openPeer(t, m, 200)
	eff := &recordingEffects{}

	batch := []InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 1, 200)},
		{Origin: 200, Seq: 2, Kind: KindTransferToken, Payload: transferPayload(1, 1, 200)},
		{Origin: 200, Seq: 3, Kind: KindTransferToken, Payload: transferPayload(1, 1, 200)},
	}
	results := m.IngestInbound(batch, eff)
	if results[2].Outcome != OutcomeSuspended || !errors.Is(results[2].Err, ErrQueueFull) {
		t.Fatalf("overflow outcome = %v err %v", results[2].Outcome, results[2].Err)
	}
	if len(eff.transfers) != 2 {
		t.Fatalf("applied %d", len(eff.transfers))
	}
}

func TestUnknownChannelRejectedWithoutSequencing(t *testing.T) {
	m := NewManager(100, testLimits())
	eff := &recordingEffects{}
	results := m.IngestInbound([]InboundMessage{
		{Origin: 999, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 999)},
	}, eff)
	if results[0].Outcome != OutcomeRejected || !errors.Is(results[0].Err, ErrUnknownChannel) {
		t.Fatalf("result = %+v", results[0])
	}
	if _, ok := m.Channel(999); ok {
		t.Fatal("rejected traffic materialized a channel")
	}
}

func TestOpeningChannelPromotedByInbound(t *testing.T) {
	m := NewManager(100, testLimits())
	if _, err := m.OpenChannel(200); err != nil {
		t.Fatal(err)
	}
	eff := &recordingEffects{}
	results := m.IngestInbound([]InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
	}, eff)
	if results[0].Outcome != OutcomeApplied {
		t.Fatalf("outcome = %v", results[0].Outcome)
	}
	if m.Status(200) != StatusOpen {
		t.Fatalf("status = %v", m.Status(200))
	}
}

func TestInBandClose(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	eff := &recordingEffects{}
	results := m.IngestInbound([]InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindChannelClose},
	}, eff)
	if results[0].Outcome != OutcomeChannelClosed {
		t.Fatalf("outcome = %v", results[0].Outcome)
	}
	if m.Status(200) != StatusClosed {
		t.Fatalf("status = %v", m.Status(200))
	}
	// Closed is terminal: no reopen, no sends.
	if _, err := m.OpenChannel(200); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("reopen closed = %v", err)
	}
	if _, err := m.EnqueueOutbound(200, KindTransferToken, nil); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("send on closed = %v", err)
	}
}

func TestCloseChannelFilesUpwardRequest(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	m.DrainUpward()

	if err := m.CloseChannel(200); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.Status(200) != StatusClosed {
		t.Fatalf("status = %v", m.Status(200))
	}
	up := m.DrainUpward()
	if len(up) != 1 || up[0].Kind != KindUpCloseChannel {
		t.Fatalf("upward = %+v", up)
	}
	if err := m.CloseChannel(200); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("double close = %v", err)
	}
}

func TestDownwardSequencing(t *testing.T) {
	m := NewManager(100, testLimits())
	eff := &recordingEffects{}
	var dest assets.AccountID
	dest[0] = 9
	payload := TransferInto{Dest: dest, Amount: 50}.EncodePayload()

	results := m.IngestInbound([]InboundMessage{
		{FromRelay: true, Seq: 1, Kind: KindDownTransferInto, Payload: payload},
		{FromRelay: true, Seq: 3, Kind: KindDownTransferInto, Payload: payload},
		{FromRelay: true, Seq: 2, Kind: KindDownTransferInto, Payload: payload},
	}, eff)
	if results[0].Outcome != OutcomeApplied {
		t.Fatalf("first = %v", results[0].Outcome)
	}
	if results[1].Outcome != OutcomeSuspended {
		t.Fatalf("gap = %v", results[1].Outcome)
	}
	if results[2].Outcome != OutcomeRejected {
		t.Fatalf("after suspension = %v", results[2].Outcome)
	}
	if len(eff.downward) != 1 || eff.downward[0].Amount != 50 {
		t.Fatalf("downward applied = %+v", eff.downward)
	}
	last, _, suspended := m.RelayState()
	if last != 1 || !suspended {
		t.Fatalf("relay state = %d suspended=%v", last, suspended)
	}
}

func TestDownwardChannelAccepted(t *testing.T) {
	m := NewManager(100, testLimits())
	if _, err := m.OpenChannel(200); err != nil {
		t.Fatal(err)
	}
	eff := &recordingEffects{}
	results := m.IngestInbound([]InboundMessage{
		{FromRelay: true, Seq: 1, Kind: KindDownChannelAccepted, Payload: ChannelControl{Peer: 200}.EncodePayload()},
	}, eff)
	if results[0].Outcome != OutcomeChannelOpened {
		t.Fatalf("outcome = %v", results[0].Outcome)
	}
	if m.Status(200) != StatusOpen {
		t.Fatalf("status = %v", m.Status(200))
	}
}

func TestEffectFailureConsumesSequence(t *testing.T) {
	m := NewManager(100, testLimits())
	openPeer(t, m, 200)
	eff := &recordingEffects{fail: errors.New("mint overflow")}

	results := m.IngestInbound([]InboundMessage{
		{Origin: 200, Seq: 1, Kind: KindTransferToken, Payload: transferPayload(1, 10, 200)},
	}, eff)
	if results[0].Outcome != OutcomeEffectFailed {
		t.Fatalf("outcome = %v", results[0].Outcome)
	}
	ch, _ := m.Channel(200)
	// The sequence is consumed so the peer is not stalled forever.
	if ch.LastInboundSeq != 1 || ch.Status != StatusOpen {
		t.Fatalf("channel = %+v", ch)
	}
}

func TestUpwardQueueBound(t *testing.T) {
	limits := testLimits()
	limits.MaxUpward = 1
	m := NewManager(100, limits)

	if _, err := m.OpenChannel(200); err != nil {
		t.Fatal(err)
	}
	// The upward queue is full, so a second handshake cannot file its
	// request and the target channel must stay untouched.
	if _, err := m.OpenChannel(300); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("open with full upward queue = %v", err)
	}
	if m.Status(300) != StatusUninitialized {
		t.Fatalf("status = %v", m.Status(300))
	}
}
