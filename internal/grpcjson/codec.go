// Package grpcjson registers a JSON codec so the Go side can call the
// Python vision/bridge services without committing generated protobuf stubs.
package grpcjson

// #region codec
import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the content subtype callers pass via grpc.CallContentSubtype.
const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return Name }

func init() {
	encoding.RegisterCodec(codec{})
}

// #endregion codec
