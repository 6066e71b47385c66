package journal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxHeightInSegment scans a segment and returns the highest block
// height framed in it. It is used only for snapshot-based truncation.
func maxHeightInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64

	for {
		// Header: [kind:1][height:8][time:8][len:4]
		header := make([]byte, 21)
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return max, nil
			}
			return max, err
		}

		height := binary.BigEndian.Uint64(header[1:9])
		if height > max {
			max = height
		}

		payloadLen := binary.BigEndian.Uint32(header[17:21])

		// Skip payload + CRC
		if _, err := f.Seek(int64(payloadLen+4), io.SeekCurrent); err != nil {
			return max, err
		}
	}
}

// latestSegmentIndex finds the newest segment so a reopened journal
// resumes appending where it left off instead of starting over at
// zero.
func latestSegmentIndex(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return 0, err
	}

	latest := 0
	for _, path := range files {
		var index int
		if _, err := fmt.Sscanf(filepath.Base(path), "segment-%d.wal", &index); err != nil {
			continue
		}
		if index > latest {
			latest = index
		}
	}
	return latest, nil
}
