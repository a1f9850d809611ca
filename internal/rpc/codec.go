package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// codecName is what the codec advertises in the grpc-encoding negotiation.
const codecName = "json"

// hybridCodec carries the bridge's plain-struct messages as JSON while
// still marshalling real protobuf messages (the health service, reflection)
// with proto, so standard gRPC infrastructure keeps working on the same
// server.
type hybridCodec struct{}

func (hybridCodec) Name() string { return codecName }

func (hybridCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal %T: %w", v, err)
	}
	return data, nil
}

func (hybridCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json unmarshal %T: %w", v, err)
	}
	return nil
}

func init() {
	encoding.RegisterCodec(hybridCodec{})
}
