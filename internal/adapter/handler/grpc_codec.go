package handler

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec lets the refund service speak gRPC without generated protobuf types.
// Clients select it with grpc.CallContentSubtype(jsonCodecName).
type jsonCodec struct{}

const jsonCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
