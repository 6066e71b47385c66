package store

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
)

/*
Store is the node's durable side state in pebble: the committed head,
the latest state snapshot, and the outbox of undelivered outbound
messages. The journal holds the blocks themselves; everything here is
derived and rebuildable from it, but keeping it in pebble makes
restarts cheap and message delivery crash-safe.
*/

type Store struct {
	db *pebble.DB

	mu         sync.Mutex
	nextOutbox uint64
}

var (
	keyHead     = []byte("meta/head")
	keySnapshot = []byte("meta/snapshot")
)

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // we WANT durability
	})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initOutboxCursor(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CommitBlock installs the new head and enqueues the block's outbound
// messages in one synced batch. A crash either keeps the previous head
// or lands the new one together with its whole outbox batch.
func (s *Store) CommitBlock(height uint64, header []byte, outbound [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()

	hv := make([]byte, 8+len(header))
	binary.BigEndian.PutUint64(hv[:8], height)
	copy(hv[8:], header)
	if err := b.Set(keyHead, hv, nil); err != nil {
		return err
	}

	id := s.nextOutbox
	for _, payload := range outbound {
		rec := encodeOutboxValue(StateNew, 0, 0, payload)
		if err := b.Set(outboxKey(id), rec, nil); err != nil {
			return err
		}
		id++
	}

	if err := s.db.Apply(b, pebble.Sync); err != nil {
		return err
	}
	s.nextOutbox = id
	return nil
}

// Head returns the committed head height and encoded header, or zero
// and nil before the first commit.
func (s *Store) Head() (uint64, []byte, error) {
	return s.heightRow(keyHead)
}

// PutSnapshot replaces the state snapshot. The snapshot job calls it
// with fully encoded state bytes.
func (s *Store) PutSnapshot(height uint64, state []byte) error {
	val := make([]byte, 8+len(state))
	binary.BigEndian.PutUint64(val[:8], height)
	copy(val[8:], state)
	return s.db.Set(keySnapshot, val, pebble.Sync)
}

// Snapshot returns the latest state snapshot, or zero and nil when
// none has been taken yet.
func (s *Store) Snapshot() (uint64, []byte, error) {
	return s.heightRow(keySnapshot)
}

func (s *Store) heightRow(key []byte) (uint64, []byte, error) {
	val, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	defer closer.Close()

	if len(val) < 8 {
		return 0, nil, errors.New("store: malformed height row")
	}
	height := binary.BigEndian.Uint64(val[:8])
	body := make([]byte, len(val)-8)
	copy(body, val[8:])
	return height, body, nil
}
