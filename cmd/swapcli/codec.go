package main

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName matches the codec cmd/swapd registers; the client must
// speak the same wire format since neither side generates protobuf code.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
