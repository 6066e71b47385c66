package journal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	payloads := [][]byte{
		[]byte("block-one"),
		[]byte("block-two"),
		[]byte("block-three"),
	}
	for i, p := range payloads {
		if err := j.Append(NewRecord(RecordBlock, uint64(i+1), p)); err != nil {
			t.Fatalf("append %d: %v", i+1, err)
		}
	}
	if err := j.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got [][]byte
	last, err := Replay(dir, func(rec *Record) error {
		if rec.Kind != RecordBlock {
			t.Fatalf("unexpected record kind %d", rec.Kind)
		}
		got = append(got, rec.Data)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 3 {
		t.Fatalf("last height = %d, want 3", last)
	}
	if len(got) != len(payloads) {
		t.Fatalf("replayed %d records, want %d", len(got), len(payloads))
	}
	for i := range payloads {
		if !bytes.Equal(got[i], payloads[i]) {
			t.Fatalf("record %d = %q, want %q", i, got[i], payloads[i])
		}
	}
}

func TestRotationAndTruncateBefore(t *testing.T) {
	dir := t.TempDir()

	// Every frame exceeds the segment size, so each append seals its
	// segment and rotates.
	j, err := Open(Config{Dir: dir, SegmentSize: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for h := uint64(1); h <= 4; h++ {
		if err := j.Append(NewRecord(RecordBlock, h, []byte{byte(h)})); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}

	if err := j.TruncateBefore(2); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	var heights []uint64
	if _, err := Replay(dir, func(rec *Record) error {
		heights = append(heights, rec.Height)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := []uint64{3, 4}
	if len(heights) != len(want) {
		t.Fatalf("heights = %v, want %v", heights, want)
	}
	for i := range want {
		if heights[i] != want[i] {
			t.Fatalf("heights = %v, want %v", heights, want)
		}
	}

	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReopenResumesAppending(t *testing.T) {
	dir := t.TempDir()

	// 33-byte frames against a 64-byte segment: two frames per
	// segment, then rotation.
	j, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for h := uint64(1); h <= 3; h++ {
		if err := j.Append(NewRecord(RecordBlock, h, []byte("01234567"))); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j2, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := j2.Append(NewRecord(RecordBlock, 4, []byte("01234567"))); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if err := j2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var heights []uint64
	last, err := Replay(dir, func(rec *Record) error {
		heights = append(heights, rec.Height)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 4 || len(heights) != 4 {
		t.Fatalf("replayed heights %v (last %d), want 1..4", heights, last)
	}
}

func TestReplayDetectsCorruption(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for h := uint64(1); h <= 2; h++ {
		if err := j.Append(NewRecord(RecordBlock, h, []byte("01234567"))); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, "segment-000000.wal")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read segment: %v", err)
	}
	raw[21] ^= 0xFF // first payload byte of the first frame
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}

	if _, err := Replay(dir, func(*Record) error { return nil }); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("replay error = %v, want ErrCorrupt", err)
	}
}

func TestReplayStopsCleanlyAtTornTail(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for h := uint64(1); h <= 2; h++ {
		if err := j.Append(NewRecord(RecordBlock, h, []byte("01234567"))); err != nil {
			t.Fatalf("append %d: %v", h, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Cut into the middle of the second frame, as a crash mid-append
	// would.
	path := filepath.Join(dir, "segment-000000.wal")
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := os.Truncate(path, st.Size()-5); err != nil {
		t.Fatalf("truncate file: %v", err)
	}

	var heights []uint64
	last, err := Replay(dir, func(rec *Record) error {
		heights = append(heights, rec.Height)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 1 || len(heights) != 1 || heights[0] != 1 {
		t.Fatalf("replayed heights %v (last %d), want just height 1", heights, last)
	}
}

func TestReplayRejectsNonMonotonicHeights(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.Append(NewRecord(RecordBlock, 2, []byte("a"))); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(NewRecord(RecordBlock, 2, []byte("b"))); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Replay(dir, func(*Record) error { return nil }); err == nil {
		t.Fatal("replay accepted a duplicate height")
	}
}
