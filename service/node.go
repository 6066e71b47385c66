package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/subdarkdex/subdex-parachain/codec"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
	"github.com/subdarkdex/subdex-parachain/infra/journal"
	"github.com/subdarkdex/subdex-parachain/infra/store"
	"github.com/subdarkdex/subdex-parachain/runtime"
)

// maxBlockExtrinsics caps the body of one authored block; the rest of
// the pool waits for the next one.
const maxBlockExtrinsics = 512

// EventFeed publishes sealed block events off the node. Publishing is
// best effort: consensus state never depends on it.
type EventFeed interface {
	PublishBlock(ctx context.Context, height uint64, events []byte) error
}

// Node owns one shard's executor and persistence. All public methods
// are safe for concurrent use; block authoring, replay, and queries
// serialize on one lock.
type Node struct {
	mu sync.Mutex

	exec    *runtime.Executor
	pool    *Pool
	inbound InboundProvider
	journal *journal.Journal
	store   *store.Store
	feed    EventFeed
	metrics *Metrics
	log     *slog.Logger
}

type Options struct {
	Genesis runtime.Genesis
	Journal *journal.Journal
	Store   *store.Store

	// Feed may be nil: a node without a broker still seals blocks.
	Feed EventFeed
	// Inbound defaults to an empty StagedQueue.
	Inbound  InboundProvider
	Verifier runtime.SignatureVerifier
	Metrics  *Metrics
	Logger   *slog.Logger

	PoolCapacity int
}

// NewNode restores the executor from snapshot and journal, heals a
// half-committed head if the last run crashed mid-commit, and returns
// a node ready to serve.
func NewNode(opts Options) (*Node, error) {
	if opts.Journal == nil || opts.Store == nil {
		return nil, errors.New("service: journal and store are required")
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = runtime.Ed25519Verifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	inbound := opts.Inbound
	if inbound == nil {
		inbound = NewStagedQueue()
	}

	exec, err := bootState(opts.Genesis, opts.Journal, opts.Store, verifier)
	if err != nil {
		return nil, err
	}

	n := &Node{
		exec:    exec,
		pool:    NewPool(opts.PoolCapacity),
		inbound: inbound,
		journal: opts.Journal,
		store:   opts.Store,
		feed:    opts.Feed,
		metrics: metrics,
		log:     logger,
	}
	n.metrics.BlockHeight.Set(float64(exec.State().Height))
	logger.Info("node booted",
		"para", uint32(exec.State().Para()),
		"height", exec.State().Height,
	)
	return n, nil
}

// SubmitExtrinsic decodes and pools one signed extrinsic. It returns
// the extrinsic hash and the pool depth after the add.
func (n *Node) SubmitExtrinsic(raw []byte) ([32]byte, int, error) {
	ext, err := runtime.DecodeExtrinsicBytes(raw)
	if err != nil {
		return [32]byte{}, n.pool.Len(), fmt.Errorf("%w: %v", ErrBadExtrinsic, err)
	}
	size, err := n.pool.Add(ext)
	if err != nil {
		return [32]byte{}, size, err
	}
	n.metrics.PoolDepth.Set(float64(size))
	return ext.Hash(), size, nil
}

// AuthorBlock seals the next block from the pending inbound batch and
// the pooled extrinsics. A zero timestamp means wall clock; a timestamp
// inside the minimum period is clamped forward rather than rejected.
//
// The journal append lands before the store commit. A crash between
// the two leaves the store one block behind the journal, which the
// next boot heals; a persistence error here leaves memory ahead of
// disk, so the caller must treat it as fatal and restart.
func (n *Node) AuthorBlock(ctx context.Context, timestampMs uint64) (*runtime.BlockResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	state := n.exec.State()
	ts := timestampMs
	if ts == 0 {
		ts = uint64(time.Now().UnixMilli())
	}
	if state.Height > 0 {
		if floor := state.Timestamp + state.Params().MinimumPeriod; ts < floor {
			ts = floor
		}
	}

	if err := n.exec.InitBlock(runtime.Inherents{Height: state.Height + 1, Timestamp: ts}); err != nil {
		return nil, err
	}
	batch := n.inbound.NextBatch()
	if _, err := n.exec.ApplyInbound(batch); err != nil {
		return nil, err
	}
	exts := n.pool.Drain(maxBlockExtrinsics)
	if err := n.exec.ApplyExtrinsics(exts); err != nil {
		return nil, err
	}
	res, err := n.exec.Finalize()
	if err != nil {
		return nil, err
	}

	block := &runtime.Block{
		Header:     res.Header,
		Timestamp:  ts,
		Inbound:    batch,
		Extrinsics: exts,
	}
	rec := journal.NewRecord(journal.RecordBlock, res.Header.Height, block.EncodeToBytes())
	if err := n.journal.Append(rec); err != nil {
		return nil, fmt.Errorf("journal block %d: %w", res.Header.Height, err)
	}
	if err := n.journal.Sync(); err != nil {
		return nil, fmt.Errorf("sync journal at %d: %w", res.Header.Height, err)
	}
	if err := n.store.CommitBlock(res.Header.Height, res.Header.EncodeToBytes(), encodeOutbound(res.Outbound)); err != nil {
		return nil, fmt.Errorf("commit block %d: %w", res.Header.Height, err)
	}

	if n.feed != nil {
		if err := n.feed.PublishBlock(ctx, res.Header.Height, runtime.EncodeEvents(res.Events)); err != nil {
			n.log.Warn("event feed publish failed", "height", res.Header.Height, "err", err)
		}
	}

	n.observeBlock(res, time.Since(start))
	n.log.Info("block sealed",
		"height", res.Header.Height,
		"extrinsics", len(exts),
		"inbound", len(batch),
		"events", len(res.Events),
		"outbound", len(res.Outbound.Horizontal)+len(res.Outbound.Upward),
	)
	return res, nil
}

func (n *Node) observeBlock(res *runtime.BlockResult, elapsed time.Duration) {
	var applied, failed int
	for _, ev := range res.Events {
		switch ev.(type) {
		case runtime.ExtrinsicApplied:
			applied++
		case runtime.ExtrinsicFailed:
			failed++
		}
	}
	n.metrics.BlockHeight.Set(float64(res.Header.Height))
	n.metrics.BlockSeconds.Observe(elapsed.Seconds())
	n.metrics.ExtrinsicsTotal.WithLabelValues("applied").Add(float64(applied))
	n.metrics.ExtrinsicsTotal.WithLabelValues("failed").Add(float64(failed))
	n.metrics.EventsTotal.Add(float64(len(res.Events)))
	n.metrics.OutboundTotal.Add(float64(len(res.Outbound.Horizontal) + len(res.Outbound.Upward)))
	n.metrics.PoolDepth.Set(float64(n.pool.Len()))
}

// HeadInfo reports the committed chain head as persisted in the store.
type HeadInfo struct {
	Height      uint64
	Header      runtime.Header
	TimestampMs uint64
}

func (n *Node) Head() (HeadInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	height, raw, err := n.store.Head()
	if err != nil {
		return HeadInfo{}, err
	}
	info := HeadInfo{Height: height, TimestampMs: n.exec.State().Timestamp}
	if height > 0 {
		r := codec.NewReader(raw)
		info.Header = runtime.DecodeHeader(r)
		if err := r.Done(); err != nil {
			return HeadInfo{}, fmt.Errorf("head row: %w", err)
		}
	}
	return info, nil
}

// Book returns the aggregated depth of one market, best price first.
func (n *Node) Book(pair orderbook.Pair, maxLevels int) (bids, asks []orderbook.LevelView, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.exec.State().Books.Depth(pair, maxLevels)
}

// Balance returns the account's entry for one asset plus its next
// nonce. Unknown accounts are zero on both counts.
func (n *Node) Balance(account assets.AccountID, asset assets.Asset) (assets.Entry, uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	state := n.exec.State()
	return state.Balances.Get(account, asset), state.NonceOf(account)
}

// Channel returns a copy of the channel state toward one peer.
func (n *Node) Channel(peer assets.ParaID) (xcmp.Channel, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.exec.State().Channels.Channel(peer)
	if !ok {
		return xcmp.Channel{}, false
	}
	return *ch, true
}

// Outbox payload tags, the first byte of every outbound record handed
// to the store and later to the broker.
const (
	outboundHorizontal byte = 0
	outboundUpward     byte = 1
)

func encodeOutbound(b runtime.OutboundBundle) [][]byte {
	out := make([][]byte, 0, len(b.Horizontal)+len(b.Upward))
	for _, m := range b.Horizontal {
		out = append(out, append([]byte{outboundHorizontal}, m.EncodeToBytes()...))
	}
	for _, m := range b.Upward {
		out = append(out, append([]byte{outboundUpward}, m.EncodeToBytes()...))
	}
	return out
}
