package api

import (
	"encoding/json"
	"fmt"
)

// Codec marshals the plain structs of this package for Connect. It replaces
// Connect's protobuf-JSON codec under the same content-type names, so any
// Connect or plain HTTP client speaking application/json works unchanged.
type Codec struct {
	name string
}

var (
	// JSONCodec is registered as "json" (application/json).
	JSONCodec = Codec{name: "json"}

	// JSONCharsetCodec covers "application/json; charset=utf-8".
	JSONCharsetCodec = Codec{name: "json; charset=utf-8"}
)

func (c Codec) Name() string {
	if c.name == "" {
		return "json"
	}
	return c.name
}

func (c Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (c Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
