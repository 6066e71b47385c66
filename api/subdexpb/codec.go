package subdexpb

import (
	"encoding"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec serializes both the hand-maintained wire types of this package
// and regular protobuf messages, under the standard "proto" name. The
// second branch keeps the health and reflection services working on a
// server that forces this codec.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case encoding.BinaryMarshaler:
		return m.MarshalBinary()
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("subdexpb: cannot marshal a %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case encoding.BinaryUnmarshaler:
		return m.UnmarshalBinary(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("subdexpb: cannot unmarshal into a %T", v)
}
