package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// DeliveryState tracks an outbox record through the broadcaster.
type DeliveryState uint8

const (
	StateNew DeliveryState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s DeliveryState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// OutboxRecord is one outbound message awaiting delivery.
type OutboxRecord struct {
	ID          uint64
	State       DeliveryState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeOutboxValue(state DeliveryState, retries uint32, lastAttempt int64, payload []byte) []byte {
	buf := make([]byte, 1+4+8+len(payload))
	buf[0] = byte(state)
	binary.BigEndian.PutUint32(buf[1:5], retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(lastAttempt))
	copy(buf[13:], payload)
	return buf
}

func decodeOutboxValue(b []byte) (OutboxRecord, error) {
	if len(b) < 13 {
		return OutboxRecord{}, errors.New("store: invalid outbox record length")
	}
	return OutboxRecord{
		State:       DeliveryState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[13:]...),
	}, nil
}

func outboxKey(id uint64) []byte {
	return []byte(fmt.Sprintf("outbox/%020d", id))
}

func parseOutboxKey(b []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("outbox/"))), "%d", &id)
	return id, err
}

func outboxBounds() *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: []byte("outbox/"),
		UpperBound: []byte("outbox/~"),
	}
}

// initOutboxCursor resumes id assignment one past the newest stored
// record.
func (s *Store) initOutboxCursor() error {
	iter, err := s.db.NewIter(outboxBounds())
	if err != nil {
		return err
	}
	defer iter.Close()

	if iter.Last() && iter.Valid() {
		id, err := parseOutboxKey(iter.Key())
		if err != nil {
			return err
		}
		s.nextOutbox = id + 1
	}
	return iter.Error()
}

// ScanPending walks undelivered records in id order: NEW plus SENT. A
// SENT record without an ack means the send outcome is unknown, and
// redelivery is the at-least-once answer.
func (s *Store) ScanPending(fn func(rec OutboxRecord) error) error {
	iter, err := s.db.NewIter(outboxBounds())
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeOutboxValue(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != StateNew && rec.State != StateSent {
			continue
		}
		id, err := parseOutboxKey(iter.Key())
		if err != nil {
			return err
		}
		rec.ID = id
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// MarkSent flags a record as handed to the producer and bumps its
// retry count.
func (s *Store) MarkSent(id uint64) error {
	return s.mutateOutbox(id, func(rec *OutboxRecord) {
		rec.State = StateSent
		rec.Retries++
	})
}

func (s *Store) MarkAcked(id uint64) error {
	return s.mutateOutbox(id, func(rec *OutboxRecord) {
		rec.State = StateAcked
	})
}

// MarkFailed parks an undeliverable record for operator attention; it
// is never scanned again.
func (s *Store) MarkFailed(id uint64) error {
	return s.mutateOutbox(id, func(rec *OutboxRecord) {
		rec.State = StateFailed
	})
}

func (s *Store) mutateOutbox(id uint64, mutate func(*OutboxRecord)) error {
	val, closer, err := s.db.Get(outboxKey(id))
	if err != nil {
		return err
	}
	rec, derr := decodeOutboxValue(val)
	_ = closer.Close()
	if derr != nil {
		return derr
	}

	mutate(&rec)
	rec.LastAttempt = time.Now().UnixNano()

	out := encodeOutboxValue(rec.State, rec.Retries, rec.LastAttempt, rec.Payload)
	return s.db.Set(outboxKey(id), out, pebble.Sync)
}

// DeleteAcked drops delivered records and reports how many went. The
// snapshot job runs it as outbox GC.
func (s *Store) DeleteAcked() (int, error) {
	iter, err := s.db.NewIter(outboxBounds())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	b := s.db.NewBatch()
	defer b.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeOutboxValue(iter.Value())
		if err != nil {
			return 0, err
		}
		if rec.State != StateAcked {
			continue
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return 0, err
		}
		n++
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.db.Apply(b, pebble.Sync); err != nil {
		return 0, err
	}
	return n, nil
}
