package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNilMessage = errors.New("codec: nil protobuf message")

// Protobuf serializes proto messages. T is the message pointer type and
// ctor returns an empty instance, e.g. func() *pb.User { return &pb.User{} }.
type Protobuf[T proto.Message] struct {
	ctor func() T
	// Deterministic orders map fields so equal messages encode equally.
	Deterministic bool
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	if !v.ProtoReflect().IsValid() {
		return nil, errNilMessage
	}
	return proto.MarshalOptions{Deterministic: c.Deterministic}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.ctor()
	err := proto.Unmarshal(b, m)
	return m, err
}
