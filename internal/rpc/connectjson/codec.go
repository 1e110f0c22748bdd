package connectjson

import (
	"encoding/json"

	"github.com/bufbuild/connect-go"
)

// Codec carries plain Go session structs as JSON over Connect streams, so no protobuf
// schema is needed on either side.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (Codec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }
