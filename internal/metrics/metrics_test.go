package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRPC("/groupsplit.v1.GroupService/GetGroup", "ok", 15*time.Millisecond)
	m.ObserveRPC("/groupsplit.v1.GroupService/GetGroup", "ok", 5*time.Millisecond)
	m.ObserveRPC("/groupsplit.v1.GroupService/GetGroup", "not_found", time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/groupsplit.v1.GroupService/GetGroup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/groupsplit.v1.GroupService/GetGroup", "not_found")))

	m.ObserveAllocation("equal", nil)
	m.ObserveAllocation("shares", errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("equal", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("shares", "error")))

	m.ObserveBalances(2)
	m.ObserveBalances(0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.balanceRuns))

	m.EventFailed("expense.created")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsFailed.WithLabelValues("expense.created")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveBalances(3)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "groupsplit_balance_computations_total 1")
	assert.Contains(t, string(body), "groupsplit_settlement_transfers_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("p", "ok", time.Second)
		m.ObserveAllocation("equal", nil)
		m.ObserveBalances(1)
		m.EventFailed("x")
	})
	assert.NotNil(t, m.Handler())
}
