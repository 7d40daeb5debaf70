package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconfigmanus/mes-go/internal/adapters/metrics"
	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
)

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestRecordDecision(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordDecision("action_query", dispatch.ActionRelease)
	c.RecordDecision("action_query", dispatch.ActionRelease)
	c.RecordDecision("action_done_query", dispatch.ActionExecute)

	body := scrape(t, c)
	assert.Contains(t, body, `mes_dispatch_action_queries_total{action="release",query="action_query"} 2`)
	assert.Contains(t, body, `mes_dispatch_action_queries_total{action="execute",query="action_done_query"} 1`)
}

func TestObserveOrderQueues(t *testing.T) {
	c := metrics.NewCollector()

	c.ObserveOrderQueues(3, 1, 2)

	body := scrape(t, c)
	assert.Contains(t, body, `mes_dispatch_order_queue_depth{state="waiting"} 3`)
	assert.Contains(t, body, `mes_dispatch_order_queue_depth{state="running"} 1`)
	assert.Contains(t, body, `mes_dispatch_order_queue_depth{state="finished"} 2`)
}

func TestConnectionGauge(t *testing.T) {
	c := metrics.NewCollector()

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()

	body := scrape(t, c)
	assert.Contains(t, body, `mes_dispatch_connections_active 1`)
}
