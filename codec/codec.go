// Package codec implements the canonical wire encoding shared with peer
// shards and the relay layer: fixed-width little-endian integers,
// uint32-length-prefixed byte strings and one-byte tags for variant types.
// Every top-level envelope starts with a format version byte.
//
// Encodings are canonical: for any value there is exactly one valid byte
// sequence, and decoders reject trailing input. Validators re-derive state
// from these bytes, so the codec must never produce or accept two
// representations of the same value.
package codec

import (
	"encoding/binary"
	"errors"
)

// FormatVersion is the current envelope version. Decoders reject anything
// else; bumping it is a wire-compatibility break with peer shards.
const FormatVersion byte = 1

var (
	ErrShortBuffer   = errors.New("codec: short buffer")
	ErrTrailingBytes = errors.New("codec: trailing bytes")
	ErrBadVersion    = errors.New("codec: unsupported format version")
	ErrBadTag        = errors.New("codec: unknown variant tag")
	ErrLength        = errors.New("codec: length prefix exceeds input")
)

// Writer accumulates a canonical encoding. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 128)}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) PutU8(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) PutU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutBytes writes a uint32 length prefix followed by the raw bytes.
func (w *Writer) PutBytes(b []byte) {
	w.PutU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) PutString(s string) {
	w.PutU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutRaw appends bytes without a length prefix. Only for fixed-width
// fields (hashes, account ids) whose size is implied by the schema.
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader consumes a canonical encoding. Errors are sticky: after the
// first failure every accessor returns zero values and Err reports the
// cause, so decode functions stay linear and check once at the end.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Done returns the sticky error, or ErrTrailingBytes if input is left
// over. Call it at the end of every top-level decode.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return ErrTrailingBytes
	}
	return nil
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.fail(ErrShortBuffer)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	switch r.U8() {
	case 0:
		return false
	case 1:
		return true
	default:
		// 2..255 would give the same value two encodings.
		r.fail(ErrBadTag)
		return false
	}
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Bytes reads a uint32 length prefix and returns a copy of the payload.
func (r *Reader) Bytes() []byte {
	n := r.U32()
	if r.err != nil {
		return nil
	}
	if int(n) > r.Remaining() {
		r.fail(ErrLength)
		return nil
	}
	b := r.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *Reader) String() string {
	n := r.U32()
	if r.err != nil {
		return ""
	}
	if int(n) > r.Remaining() {
		r.fail(ErrLength)
		return ""
	}
	b := r.take(int(n))
	return string(b)
}

// Raw reads exactly n bytes without a length prefix.
func (r *Reader) Raw(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Raw32 reads a fixed 32-byte field (account ids, hashes).
func (r *Reader) Raw32() [32]byte {
	var out [32]byte
	b := r.take(32)
	if b != nil {
		copy(out[:], b)
	}
	return out
}

// Version checks the leading envelope version byte.
func (r *Reader) Version() {
	if v := r.U8(); r.err == nil && v != FormatVersion {
		r.fail(ErrBadVersion)
	}
}

// FailTag marks the reader as failed with ErrBadTag. Decoders of variant
// types call it when a tag byte matches no known variant.
func (r *Reader) FailTag() {
	r.fail(ErrBadTag)
}
