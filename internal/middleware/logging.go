package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, result code, duration and request ID. Client errors
// log at WARN; server-side failures log at ERROR.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"code", codeOf(err),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if id := chimw.GetReqID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				attrs = append(attrs, "error", errorMessage(err))
			}

			slog.Log(ctx, levelFor(err), "RPC finished", attrs...)
			return resp, err
		}
	}
}

func levelFor(err error) slog.Level {
	if err == nil {
		return slog.LevelInfo
	}
	switch connect.CodeOf(err) {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}
