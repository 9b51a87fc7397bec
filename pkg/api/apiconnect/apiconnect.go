// Package apiconnect wires the groupsplit.v1 services to Connect: procedure
// names, handler constructors and typed clients.
//
// Every handler and client speaks JSON through api.Codec.
package apiconnect

import (
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/pkg/api"
)

func handlerOptions() []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithCodec(api.JSONCodec),
		connect.WithCodec(api.JSONCharsetCodec),
	}
}

func clientOptions() []connect.ClientOption {
	return []connect.ClientOption{
		connect.WithCodec(api.JSONCodec),
	}
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}
