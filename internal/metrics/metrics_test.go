package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.MessageSent()
	m.MessageSent()
	m.MessageFailed()
	m.CampaignFinished("completed")
	m.JobDeduplicated()
	m.Requeued(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.campaigns.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deduplicated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweeps))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageSent()
		m.CampaignFinished("failed")
		m.Requeued(1)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.MessageSent()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `crm_messages_total{status="sent"} 1`)
}
