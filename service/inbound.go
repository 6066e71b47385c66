package service

import (
	"sync"

	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// InboundProvider hands the node the relay-ordered inbound batch for
// the block being authored. A collator implements this against the
// relay; StagedQueue stands in everywhere else.
type InboundProvider interface {
	NextBatch() []xcmp.InboundMessage
}

// StagedQueue collects inbound messages staged over RPC until the next
// authored block drains them. Staging order is application order.
type StagedQueue struct {
	mu     sync.Mutex
	staged []xcmp.InboundMessage
}

func NewStagedQueue() *StagedQueue { return &StagedQueue{} }

// Stage appends messages and reports how many are now waiting.
func (q *StagedQueue) Stage(msgs []xcmp.InboundMessage) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.staged = append(q.staged, msgs...)
	return len(q.staged)
}

func (q *StagedQueue) NextBatch() []xcmp.InboundMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.staged
	q.staged = nil
	return batch
}
