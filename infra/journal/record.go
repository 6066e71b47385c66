package journal

import "time"

type RecordKind uint8

const (
	// RecordBlock frames one sealed, codec-encoded block.
	RecordBlock RecordKind = iota
)

type Record struct {
	Kind   RecordKind
	Height uint64
	Time   int64
	Data   []byte
}

func NewRecord(kind RecordKind, height uint64, data []byte) *Record {
	return &Record{
		Kind:   kind,
		Height: height,
		Time:   time.Now().UnixNano(),
		Data:   data,
	}
}
