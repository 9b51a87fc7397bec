package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/internal/metrics"
)

// MetricsInterceptor records the count and latency of every RPC by procedure
// and result code.
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.ObserveRPC(req.Spec().Procedure, codeOf(err), time.Since(start))
			return resp, err
		}
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}
