package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/groupsplit.v1.GroupService/GetGroup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Connect-Protocol-Version")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, RequestLogger)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "ok", codeOf(nil))
	assert.Equal(t, "not_found", codeOf(connect.NewError(connect.CodeNotFound, errors.New("x"))))
	assert.Equal(t, "unknown", codeOf(errors.New("plain")))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelFor(nil))
	assert.Equal(t, slog.LevelWarn, levelFor(connect.NewError(connect.CodeInvalidArgument, errors.New("bad"))))
	assert.Equal(t, slog.LevelWarn, levelFor(connect.NewError(connect.CodeFailedPrecondition, errors.New("in use"))))
	assert.Equal(t, slog.LevelError, levelFor(connect.NewError(connect.CodeInternal, errors.New("db"))))
	assert.Equal(t, slog.LevelError, levelFor(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "group not found", errorMessage(connect.NewError(connect.CodeNotFound, errors.New("group not found"))))
	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	want := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, want
	})

	_, err := LoggingInterceptor()(next)(context.Background(), connect.NewRequest(&struct{}{}))
	assert.Same(t, want, err)
}
