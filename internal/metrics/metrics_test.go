package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.SMS("sent")
	r.SMS("sent")
	r.Workflow("notified")
	r.ListingFetch("inflow", "success")
	r.LedgerExport("sheets", "ok")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.smsResults.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.workflowResults.WithLabelValues("notified")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.listingFetches.WithLabelValues("inflow", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.ledgerExports.WithLabelValues("sheets", "ok")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warehouse_sms_notifications_total")
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.SMS("sent")
	r.Workflow("pending")
	r.ListingFetch("outflow", "failure")
	r.LedgerExport("xlsx", "error")
	assert.NotNil(t, r.Handler())
}
