package journal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
)

type Config struct {
	Dir         string
	SegmentSize int64
}

/*
Journal is the chain's write-ahead log: every sealed block is framed
and appended before the node treats it as committed. Replaying the
directory through the executor rebuilds the exact state, so everything
else the node persists is derived data.

Frames carry a CRC; segments rotate by size and are deleted wholesale
once a snapshot covers them.
*/

type Journal struct {
	mu       sync.Mutex
	dir      string
	segSize  int64
	current  *segment
	segIndex int
}

func Open(cfg Config) (*Journal, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = 2 * 1024 * 1024
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	index, err := latestSegmentIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &Journal{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		current:  seg,
		segIndex: index,
	}, nil
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) Append(r *Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	payloadLen := uint32(len(r.Data))

	// Frame:
	// [kind:1][height:8][time:8][len:4][payload][crc:4]
	buf := make([]byte, 1+8+8+4+payloadLen+4)

	buf[0] = byte(r.Kind)
	binary.BigEndian.PutUint64(buf[1:9], r.Height)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[21:], r.Data)

	crc := CRC32(buf[:21+payloadLen])
	binary.BigEndian.PutUint32(buf[21+payloadLen:], crc)

	if err := j.current.append(buf); err != nil {
		return err
	}

	if j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

// Sync flushes the active segment. The node calls it before the block
// counts as committed.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current.sync()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current.close()
}

func (j *Journal) rotate() error {
	if err := j.current.sync(); err != nil {
		return err
	}
	_ = j.current.close()
	j.segIndex++

	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return err
	}
	j.current = seg
	return nil
}

// TruncateBefore removes segments whose blocks are all at or below the
// given height, which a snapshot at that height makes redundant. The
// active segment is never removed.
func (j *Journal) TruncateBefore(height uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(j.dir, "segment-*.wal"))
	if err != nil {
		return err
	}

	for _, path := range files {
		if path == j.current.path {
			continue
		}
		maxHeight, err := maxHeightInSegment(path)
		if err != nil {
			continue
		}
		if maxHeight <= height {
			_ = os.Remove(path)
		}
	}
	return nil
}
