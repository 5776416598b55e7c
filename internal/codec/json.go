// Package codec registers the JSON codec used by both the kratos HTTP
// transport and the gRPC service.
package codec

import (
	"encoding/json"

	kratosencoding "github.com/go-kratos/kratos/v2/encoding"
	grpcencoding "google.golang.org/grpc/encoding"
)

// Name is the codec name and the gRPC content subtype ("application/grpc+json").
const Name = "json"

func init() {
	kratosencoding.RegisterCodec(Codec{})
	grpcencoding.RegisterCodec(Codec{})
}

// Codec is encoding/json behind the kratos and gRPC codec interfaces. An
// empty payload decodes to the zero value.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (Codec) Name() string { return Name }
